package seaport

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tidewater/seabridge/internal/money"
)

const (
	// Native-currency amounts are expressed with 18 decimals.
	nativeDecimals = 18

	secondsPerDay = 86400

	bpsDenominator = 10000
)

var (
	ErrInvalidPrice     = errors.New("listing price must be positive")
	ErrInvalidDuration  = errors.New("listing duration must be positive")
	ErrAmountTooSmall   = errors.New("amount too small: seller proceeds would be zero")
	ErrInvalidFeeBps    = errors.New("fee basis points out of range")
	ErrInvalidRecipient = errors.New("fee recipient must be set when fee is nonzero")
)

// ListingParams is the user intent a fixed-price listing is built from.
type ListingParams struct {
	Offerer       common.Address
	TokenContract common.Address
	TokenID       *big.Int
	Price         money.Amount // whole units of the native currency
	DurationDays  int
	FeeBps        int
	FeeRecipient  common.Address
}

// BuildListing deterministically constructs order components for a
// fixed-price, single-quantity ERC-721 listing. Everything except the salt
// is a pure function of the inputs and the provided clock time.
//
// The counter is initialized to zero: valid only for a brand-new offerer
// who has never cancelled. Callers must overwrite it with the live on-chain
// counter before treating a signature over these components as valid.
func BuildListing(params ListingParams, now time.Time) (*OrderComponents, error) {
	if !params.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if params.DurationDays <= 0 {
		return nil, ErrInvalidDuration
	}
	if params.FeeBps < 0 || params.FeeBps >= bpsDenominator {
		return nil, ErrInvalidFeeBps
	}
	if params.FeeBps > 0 && params.FeeRecipient == (common.Address{}) {
		return nil, ErrInvalidRecipient
	}
	if params.TokenID == nil {
		return nil, errors.New("token id must be set")
	}

	// Convert the whole-unit price to minor units through decimal shifting,
	// never float multiplication.
	total, err := params.Price.MinorUnits(nativeDecimals)
	if err != nil {
		return nil, fmt.Errorf("failed to convert price: %w", err)
	}
	if total.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}

	// Fee split: fee = total * bps / 10000 with integer truncation, seller
	// gets the remainder. A price so small that truncation consumes it all
	// is rejected outright rather than emitting a zero consideration item.
	fee := new(big.Int).Mul(total, big.NewInt(int64(params.FeeBps)))
	fee.Div(fee, big.NewInt(bpsDenominator))
	seller := new(big.Int).Sub(total, fee)
	if seller.Sign() <= 0 {
		return nil, ErrAmountTooSmall
	}

	salt, err := generateSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	startTime := big.NewInt(now.Unix())
	endTime := big.NewInt(now.Unix() + int64(params.DurationDays)*secondsPerDay)

	one := big.NewInt(1)
	consideration := []ConsiderationItem{
		{
			ItemType:             ItemTypeNative,
			IdentifierOrCriteria: big.NewInt(0),
			StartAmount:          seller,
			EndAmount:            new(big.Int).Set(seller),
			Recipient:            params.Offerer,
		},
	}
	if fee.Sign() > 0 {
		consideration = append(consideration, ConsiderationItem{
			ItemType:             ItemTypeNative,
			IdentifierOrCriteria: big.NewInt(0),
			StartAmount:          fee,
			EndAmount:            new(big.Int).Set(fee),
			Recipient:            params.FeeRecipient,
		})
	}

	components := &OrderComponents{
		OrderParameters: OrderParameters{
			Offerer: params.Offerer,
			Zone:    ZoneAddress,
			Offer: []OfferItem{
				{
					ItemType:             ItemTypeERC721,
					Token:                params.TokenContract,
					IdentifierOrCriteria: new(big.Int).Set(params.TokenID),
					StartAmount:          one,
					EndAmount:            new(big.Int).Set(one),
				},
			},
			Consideration:                   consideration,
			OrderType:                       OrderTypeFullRestricted,
			StartTime:                       startTime,
			EndTime:                         endTime,
			ZoneHash:                        common.Hash{},
			Salt:                            salt,
			ConduitKey:                      ConduitKey,
			TotalOriginalConsiderationItems: big.NewInt(int64(len(consideration))),
		},
		Counter: big.NewInt(0),
	}

	return components, nil
}

// generateSalt draws a random 32-byte salt. Collision probability is
// negligible; the salt is not a security boundary.
func generateSalt() (*big.Int, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(bytes), nil
}
