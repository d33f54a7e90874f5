package seaport

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tidewater/seabridge/internal/money"
)

var (
	testOfferer   = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testContract  = common.HexToAddress("0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D")
	testRecipient = common.HexToAddress("0x0000a26b00c1F0DF003000390027140000fAa719")
)

func validParams() ListingParams {
	return ListingParams{
		Offerer:       testOfferer,
		TokenContract: testContract,
		TokenID:       big.NewInt(1234),
		Price:         money.MustFromString("1"),
		DurationDays:  7,
		FeeBps:        100,
		FeeRecipient:  testRecipient,
	}
}

func TestBuildListingFeeSplit(t *testing.T) {
	now := time.Unix(1700000000, 0)

	components, err := BuildListing(validParams(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 1 ETH at 100 bps: 0.01 ETH fee, 0.99 ETH to the seller.
	wantSeller, _ := new(big.Int).SetString("990000000000000000", 10)
	wantFee, _ := new(big.Int).SetString("10000000000000000", 10)

	if len(components.Consideration) != 2 {
		t.Fatalf("consideration items: got %d, want 2", len(components.Consideration))
	}
	if got := components.Consideration[0].StartAmount; got.Cmp(wantSeller) != 0 {
		t.Errorf("seller amount: got %s, want %s", got, wantSeller)
	}
	if components.Consideration[0].Recipient != testOfferer {
		t.Errorf("seller proceeds must go to the offerer")
	}
	if got := components.Consideration[1].StartAmount; got.Cmp(wantFee) != 0 {
		t.Errorf("fee amount: got %s, want %s", got, wantFee)
	}
	if components.Consideration[1].Recipient != testRecipient {
		t.Errorf("fee must go to the fee recipient")
	}

	// Split must be exact: seller + fee == total.
	sum := new(big.Int).Add(wantSeller, wantFee)
	total, _ := new(big.Int).SetString("1000000000000000000", 10)
	if sum.Cmp(total) != 0 {
		t.Errorf("split does not reassemble: %s + %s != %s", wantSeller, wantFee, total)
	}
}

func TestBuildListingTruncatesFee(t *testing.T) {
	params := validParams()
	params.Price = money.MustFromString("0.000000000000000033") // 33 wei
	params.FeeBps = 250

	components, err := BuildListing(params, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 33 * 250 / 10000 truncates to 0, so the fee item is dropped entirely.
	if len(components.Consideration) != 1 {
		t.Fatalf("consideration items: got %d, want 1", len(components.Consideration))
	}
	if got := components.Consideration[0].StartAmount; got.Cmp(big.NewInt(33)) != 0 {
		t.Errorf("seller amount: got %s, want 33", got)
	}
}

func TestBuildListingZeroFee(t *testing.T) {
	params := validParams()
	params.FeeBps = 0
	params.FeeRecipient = common.Address{}

	components, err := BuildListing(params, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(components.Consideration) != 1 {
		t.Errorf("zero-fee listing must have a single consideration item, got %d", len(components.Consideration))
	}
}

func TestBuildListingStructure(t *testing.T) {
	now := time.Unix(1700000000, 0)

	components, err := BuildListing(validParams(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(components.Offer) != 1 {
		t.Fatalf("offer items: got %d, want 1", len(components.Offer))
	}
	item := components.Offer[0]
	if item.ItemType != ItemTypeERC721 {
		t.Errorf("offer item type: got %d, want ERC721", item.ItemType)
	}
	if item.StartAmount.Cmp(big.NewInt(1)) != 0 || item.EndAmount.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("listing quantity must be exactly 1")
	}
	if item.IdentifierOrCriteria.Cmp(big.NewInt(1234)) != 0 {
		t.Errorf("token id: got %s, want 1234", item.IdentifierOrCriteria)
	}

	if components.OrderType != OrderTypeFullRestricted {
		t.Errorf("order type: got %d, want full restricted", components.OrderType)
	}
	if components.Zone != ZoneAddress {
		t.Errorf("zone: got %s, want %s", components.Zone.Hex(), ZoneAddress.Hex())
	}
	if components.ConduitKey != ConduitKey {
		t.Errorf("conduit key mismatch")
	}
	if components.ZoneHash != (common.Hash{}) {
		t.Errorf("zone hash must be zero")
	}

	if components.StartTime.Int64() != now.Unix() {
		t.Errorf("start time: got %d, want %d", components.StartTime.Int64(), now.Unix())
	}
	wantEnd := now.Unix() + 7*86400
	if components.EndTime.Int64() != wantEnd {
		t.Errorf("end time: got %d, want %d", components.EndTime.Int64(), wantEnd)
	}

	if components.Counter == nil || components.Counter.Sign() != 0 {
		t.Errorf("freshly built components must carry counter zero")
	}
	if components.TotalOriginalConsiderationItems.Int64() != 2 {
		t.Errorf("total original consideration items: got %s, want 2", components.TotalOriginalConsiderationItems)
	}
}

func TestBuildListingSaltVaries(t *testing.T) {
	now := time.Unix(1700000000, 0)

	a, err := BuildListing(validParams(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := BuildListing(validParams(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Salt.Cmp(b.Salt) == 0 {
		t.Errorf("two listings drew the same salt")
	}
}

func TestBuildListingRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ListingParams)
		want   error
	}{
		{
			name:   "zero price",
			mutate: func(p *ListingParams) { p.Price = money.MustFromString("0") },
			want:   ErrInvalidPrice,
		},
		{
			name:   "sub-wei price",
			mutate: func(p *ListingParams) { p.Price = money.MustFromString("0.0000000000000000001") },
			want:   ErrInvalidPrice,
		},
		{
			name:   "zero duration",
			mutate: func(p *ListingParams) { p.DurationDays = 0 },
			want:   ErrInvalidDuration,
		},
		{
			name:   "fee bps too high",
			mutate: func(p *ListingParams) { p.FeeBps = 10000 },
			want:   ErrInvalidFeeBps,
		},
		{
			name:   "negative fee bps",
			mutate: func(p *ListingParams) { p.FeeBps = -1 },
			want:   ErrInvalidFeeBps,
		},
		{
			name:   "fee without recipient",
			mutate: func(p *ListingParams) { p.FeeRecipient = common.Address{} },
			want:   ErrInvalidRecipient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.mutate(&params)

			_, err := BuildListing(params, time.Unix(1700000000, 0))
			if err != tt.want {
				t.Errorf("got error %v, want %v", err, tt.want)
			}
		})
	}
}
