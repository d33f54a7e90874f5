package market

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/tidewater/seabridge/internal/money"
)

var testNow = time.Unix(1700000000, 0)

func mustAmount(t *testing.T, value string, decimals int) money.Amount {
	t.Helper()
	a, err := money.FromMinorUnits(value, decimals)
	if err != nil {
		t.Fatalf("bad test amount %s/%d: %v", value, decimals, err)
	}
	return a
}

func offerJSON(t *testing.T, fields map[string]any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("failed to build test record: %v", err)
	}
	return data
}

func TestParseOfferPricePriority(t *testing.T) {
	tests := []struct {
		name string
		rec  map[string]any
		want string
	}{
		{
			name: "explicit value and decimals wins",
			rec: map[string]any{
				"order_hash":    "0xabc",
				"price":         map[string]any{"current": map[string]any{"value": "20000000000000000", "decimals": 18}},
				"current_price": "999999999999999999999",
			},
			want: "0.02",
		},
		{
			name: "flat price object",
			rec: map[string]any{
				"order_hash": "0xabc",
				"price":      map[string]any{"value": "1500000000000000000", "decimals": 18},
			},
			want: "1.5",
		},
		{
			name: "legacy integer string assumes 18 decimals",
			rec: map[string]any{
				"order_hash":    "0xabc",
				"current_price": "2500000000000000000",
			},
			want: "2.5",
		},
		{
			name: "bare number above threshold treated as minor units",
			rec: map[string]any{
				"order_hash":    "0xabc",
				"current_price": 1e16,
			},
			want: "0.01",
		},
		{
			name: "bare number below threshold treated as whole units",
			rec: map[string]any{
				"order_hash":    "0xabc",
				"current_price": 0.5,
			},
			want: "0.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offer := ParseOffer(offerJSON(t, tt.rec))
			if offer == nil {
				t.Fatal("expected a normalized offer, got nil")
			}
			if offer.Price.String() != tt.want {
				t.Errorf("price = %s, want %s", offer.Price.String(), tt.want)
			}
		})
	}
}

func TestParseOfferRejectsUnparseable(t *testing.T) {
	tests := []struct {
		name string
		raw  json.RawMessage
	}{
		{"not json", json.RawMessage(`{{{`)},
		{"no price at all", json.RawMessage(`{"order_hash":"0xabc"}`)},
		{"zero price", json.RawMessage(`{"order_hash":"0xabc","current_price":"0"}`)},
		{"garbage price string", json.RawMessage(`{"order_hash":"0xabc","current_price":"not-a-number"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if offer := ParseOffer(tt.raw); offer != nil {
				t.Errorf("expected nil, got %+v", offer)
			}
		})
	}
}

func TestCriteriaOfferPerTokenPrice(t *testing.T) {
	// Collection-wide offer: total 0.06 over a 3-token NFT leg.
	rec := map[string]any{
		"order_hash": "0xcrit",
		"price":      map[string]any{"current": map[string]any{"value": "60000000000000000", "decimals": 18}},
		"criteria":   map[string]any{"collection": map[string]any{"slug": "c"}},
		"protocol_data": map[string]any{
			"parameters": map[string]any{
				"offerer": "0x1111111111111111111111111111111111111111",
				"consideration": []map[string]any{
					{"itemType": 4, "token": "0x2222222222222222222222222222222222222222", "identifierOrCriteria": "0", "startAmount": "3", "endAmount": "3"},
					{"itemType": 0, "token": "0x0000000000000000000000000000000000000000", "startAmount": "100", "endAmount": "100"},
				},
			},
		},
	}

	offer := ParseOffer(offerJSON(t, rec))
	if offer == nil {
		t.Fatal("expected a normalized offer")
	}
	if !offer.Criteria {
		t.Error("offer should be marked criteria")
	}
	if offer.Price.String() != "0.02" {
		t.Errorf("per-token price = %s, want 0.02", offer.Price.String())
	}

	// Quantity 1: price unchanged.
	rec["protocol_data"].(map[string]any)["parameters"].(map[string]any)["consideration"].([]map[string]any)[0]["startAmount"] = "1"
	offer = ParseOffer(offerJSON(t, rec))
	if offer == nil {
		t.Fatal("expected a normalized offer")
	}
	if offer.Price.String() != "0.06" {
		t.Errorf("quantity-1 price = %s, want 0.06", offer.Price.String())
	}
}

func TestNonCriteriaOfferNeverDivided(t *testing.T) {
	rec := map[string]any{
		"order_hash":         "0xitem",
		"remaining_quantity": 5,
		"price":              map[string]any{"current": map[string]any{"value": "60000000000000000", "decimals": 18}},
		"protocol_data": map[string]any{
			"parameters": map[string]any{
				"consideration": []map[string]any{
					{"itemType": 2, "token": "0x2222222222222222222222222222222222222222", "identifierOrCriteria": "5", "startAmount": "1", "endAmount": "1"},
				},
			},
		},
	}

	offer := ParseOffer(offerJSON(t, rec))
	if offer == nil {
		t.Fatal("expected a normalized offer")
	}
	if offer.Criteria {
		t.Error("item-specific offer should not be criteria")
	}
	if offer.Price.String() != "0.06" {
		t.Errorf("price = %s, want 0.06 (no division)", offer.Price.String())
	}
	if offer.TargetTokenID != "5" {
		t.Errorf("target token = %q, want 5", offer.TargetTokenID)
	}
}

func TestParseActiveOfferFilters(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"order_hash": "0xabc",
			"price":      map[string]any{"current": map[string]any{"value": "10000000000000000", "decimals": 18}},
			"protocol_data": map[string]any{
				"parameters": map[string]any{
					"startTime": "0",
					"endTime":   fmt.Sprintf("%d", testNow.Unix()+3600),
					"consideration": []map[string]any{
						{"itemType": 2, "token": "0x22", "identifierOrCriteria": "5", "startAmount": "1", "endAmount": "1"},
					},
				},
			},
		}
	}

	t.Run("active offer passes", func(t *testing.T) {
		if ParseActiveOffer(offerJSON(t, base()), "5", testNow) == nil {
			t.Error("expected offer to pass the filter")
		}
	})

	t.Run("expired endTime excluded regardless of status", func(t *testing.T) {
		rec := base()
		rec["status"] = "active"
		rec["protocol_data"].(map[string]any)["parameters"].(map[string]any)["endTime"] = fmt.Sprintf("%d", testNow.Unix()-1)
		if ParseActiveOffer(offerJSON(t, rec), "5", testNow) != nil {
			t.Error("expired offer must be excluded")
		}
	})

	t.Run("not yet started excluded", func(t *testing.T) {
		rec := base()
		rec["protocol_data"].(map[string]any)["parameters"].(map[string]any)["startTime"] = fmt.Sprintf("%d", testNow.Unix()+100)
		if ParseActiveOffer(offerJSON(t, rec), "5", testNow) != nil {
			t.Error("future offer must be excluded")
		}
	})

	t.Run("missing bounds treated as unbounded", func(t *testing.T) {
		rec := base()
		params := rec["protocol_data"].(map[string]any)["parameters"].(map[string]any)
		delete(params, "startTime")
		delete(params, "endTime")
		if ParseActiveOffer(offerJSON(t, rec), "5", testNow) == nil {
			t.Error("offer with no time bounds should be active")
		}
	})

	t.Run("cancelled excluded", func(t *testing.T) {
		rec := base()
		rec["cancelled"] = true
		if ParseActiveOffer(offerJSON(t, rec), "5", testNow) != nil {
			t.Error("cancelled offer must be excluded")
		}
	})

	t.Run("zero remaining quantity excluded", func(t *testing.T) {
		rec := base()
		rec["remaining_quantity"] = 0
		if ParseActiveOffer(offerJSON(t, rec), "5", testNow) != nil {
			t.Error("fully-filled offer must be excluded")
		}
	})

	t.Run("absent status is active", func(t *testing.T) {
		if ParseActiveOffer(offerJSON(t, base()), "5", testNow) == nil {
			t.Error("absent status field should count as active")
		}
	})

	t.Run("token id mismatch excluded for item offers", func(t *testing.T) {
		if ParseActiveOffer(offerJSON(t, base()), "6", testNow) != nil {
			t.Error("offer targeting token 5 must not match query for token 6")
		}
	})

	t.Run("criteria offer bypasses token check", func(t *testing.T) {
		rec := base()
		rec["criteria"] = map[string]any{"collection": map[string]any{"slug": "c"}}
		if ParseActiveOffer(offerJSON(t, rec), "6", testNow) == nil {
			t.Error("criteria offer should match any token")
		}
	})
}

func TestParseOfferIdempotent(t *testing.T) {
	raw := offerJSON(t, map[string]any{
		"order_hash": "0xabc",
		"maker":      map[string]any{"address": "0xAbCdEF0000000000000000000000000000000001"},
		"price":      map[string]any{"current": map[string]any{"value": "12345000000000000", "decimals": 18}},
	})

	a := ParseOffer(raw)
	b := ParseOffer(raw)
	if a == nil || b == nil {
		t.Fatal("expected offers")
	}
	if a.ID != b.ID || a.Maker != b.Maker || !a.Price.Equal(b.Price) || a.ExpiresAt != b.ExpiresAt {
		t.Errorf("normalization not idempotent: %+v vs %+v", a, b)
	}
}

func TestParseListing(t *testing.T) {
	raw := offerJSON(t, map[string]any{
		"order_hash":       "0xlist",
		"protocol_address": "0x0000000000000068F116a894984e2DB1123eB395",
		"price":            map[string]any{"current": map[string]any{"value": "1000000000000000000", "decimals": 18}},
		"protocol_data": map[string]any{
			"parameters": map[string]any{
				"offerer": "0xSELLER000000000000000000000000000000000",
				"offer": []map[string]any{
					{"itemType": 2, "token": "0x2222222222222222222222222222222222222222", "identifierOrCriteria": "7", "startAmount": "1", "endAmount": "1"},
				},
			},
		},
	})

	l := ParseListing(raw)
	if l == nil {
		t.Fatal("expected a listing")
	}
	if l.Price.String() != "1" {
		t.Errorf("price = %s, want 1", l.Price.String())
	}
	if l.TokenID != "7" {
		t.Errorf("token id = %q, want 7", l.TokenID)
	}
	if l.TokenContract != "0x2222222222222222222222222222222222222222" {
		t.Errorf("token contract = %q", l.TokenContract)
	}
}

func TestParseSale(t *testing.T) {
	raw := json.RawMessage(`{
		"event_type": "sale",
		"order_hash": "0xsale",
		"event_timestamp": 1690000000,
		"buyer": "0xBB",
		"seller": "0xAA",
		"payment": {"quantity": "750000000000000000", "decimals": 18, "symbol": "ETH"},
		"nft": {"identifier": "9"}
	}`)

	s := ParseSale(raw)
	if s == nil {
		t.Fatal("expected a sale")
	}
	if s.Price.String() != "0.75" {
		t.Errorf("price = %s, want 0.75", s.Price.String())
	}
	if s.TokenID != "9" || s.PaymentSymbol != "ETH" || s.OccurredAt != 1690000000 {
		t.Errorf("unexpected sale: %+v", s)
	}

	if ParseSale(json.RawMessage(`{"event_type":"transfer"}`)) != nil {
		t.Error("non-sale events must be dropped")
	}
	if ParseSale(json.RawMessage(`{"event_type":"sale","payment":{"quantity":"0","decimals":18}}`)) != nil {
		t.Error("zero-price sales must be dropped")
	}
}

func TestSorting(t *testing.T) {
	offers := []Offer{
		{ID: "a", Price: mustAmount(t, "10000000000000000", 18)},  // 0.01
		{ID: "b", Price: mustAmount(t, "30000000000000000", 18)},  // 0.03
		{ID: "c", Price: mustAmount(t, "20000000000000000", 18)},  // 0.02
	}
	SortOffers(offers)
	if offers[0].ID != "b" || offers[1].ID != "c" || offers[2].ID != "a" {
		t.Errorf("offers not descending by price: %v %v %v", offers[0].ID, offers[1].ID, offers[2].ID)
	}

	listings := []Listing{
		{ID: "x", Price: mustAmount(t, "30000000000000000", 18)},
		{ID: "y", Price: mustAmount(t, "10000000000000000", 18)},
	}
	SortListings(listings)
	if listings[0].ID != "y" {
		t.Error("listings must be ascending by price")
	}

	sales := []Sale{
		{ID: "old", OccurredAt: 100, Price: mustAmount(t, "1", 0)},
		{ID: "new", OccurredAt: 200, Price: mustAmount(t, "1", 0)},
	}
	SortSalesForDisplay(sales)
	if sales[0].ID != "new" {
		t.Error("sales display order must be most recent first")
	}

	points := SalesSeries(sales)
	if len(points) != 2 || points[0].Timestamp != 100 || points[1].Timestamp != 200 {
		t.Errorf("series must be ascending by timestamp: %+v", points)
	}
	if points[0].Source != PointSourceSale {
		t.Errorf("series source = %s, want sale", points[0].Source)
	}
}

func TestBestOffer(t *testing.T) {
	if BestOffer(nil) != nil {
		t.Error("best of empty must be nil")
	}
	offers := []Offer{
		{ID: "low", Price: mustAmount(t, "10000000000000000", 18)},
		{ID: "high", Price: mustAmount(t, "20000000000000000", 18)},
	}
	best := BestOffer(offers)
	if best == nil || best.ID != "high" {
		t.Errorf("best offer = %+v, want high", best)
	}
}
