package market

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tidewater/seabridge/internal/money"
)

// The upstream API has no single stable schema: the same conceptual order
// arrives with different field names and nesting depending on the endpoint
// and its vintage. Normalization attempts each known shape in priority order
// and returns nil rather than erroring, so one malformed record never aborts
// a batch.

// Seaport item type tags as they appear in protocol parameters.
const (
	itemTypeNative          = 0
	itemTypeERC20           = 1
	itemTypeERC721          = 2
	itemTypeERC1155         = 3
	itemTypeERC721Criteria  = 4
	itemTypeERC1155Criteria = 5
)

// Wildcard marker upstream uses for collection-wide (criteria) offers.
const wildcardTokenID = "*"

// Bare numeric prices above this are assumed to be minor-unit (wei) values.
// The threshold is ambiguous for mid-range values; it replicates upstream
// behavior and must not be "hardened" without an upstream schema guarantee.
var minorUnitThreshold = decimal.New(1, 10) // 1e10

// legacyDecimals applies when a price arrives as a bare integer string with
// no decimals field.
const legacyDecimals = 18

// flexString decodes a JSON string or number into a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

// priceObject is the explicit {value, decimals} price shape.
type priceObject struct {
	Value    flexString `json:"value"`
	Decimals *int       `json:"decimals"`
	Currency string     `json:"currency"`
}

// priceEnvelope tolerates both the nested {current: {...}} and flat shapes.
type priceEnvelope struct {
	Current  *priceObject `json:"current"`
	Value    flexString   `json:"value"`
	Decimals *int         `json:"decimals"`
}

// rawItem is one offer or consideration leg from protocol parameters.
type rawItem struct {
	ItemType             int        `json:"itemType"`
	Token                string     `json:"token"`
	IdentifierOrCriteria flexString `json:"identifierOrCriteria"`
	StartAmount          flexString `json:"startAmount"`
	EndAmount            flexString `json:"endAmount"`
	Recipient            string     `json:"recipient"`
}

type rawParameters struct {
	Offerer       string     `json:"offerer"`
	StartTime     flexString `json:"startTime"`
	EndTime       flexString `json:"endTime"`
	Offer         []rawItem  `json:"offer"`
	Consideration []rawItem  `json:"consideration"`
}

type rawProtocolData struct {
	Parameters *rawParameters `json:"parameters"`
}

// rawMaker tolerates both the {"address": "0x.."} object and bare string.
type rawMaker struct {
	Address string
}

func (m *rawMaker) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &m.Address)
	}
	var obj struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	m.Address = obj.Address
	return nil
}

// rawAsset covers the legacy embedded asset block on old listing shapes.
type rawAsset struct {
	Name          string `json:"name"`
	ImageURL      string `json:"image_url"`
	TokenID       string `json:"token_id"`
	AssetContract struct {
		Address string `json:"address"`
	} `json:"asset_contract"`
}

type rawOrder struct {
	OrderHash         string           `json:"order_hash"`
	ID                string           `json:"id"`
	ProtocolAddress   string           `json:"protocol_address"`
	Status            string           `json:"status"`
	Cancelled         bool             `json:"cancelled"`
	Finalized         bool             `json:"finalized"`
	RemainingQuantity *int64           `json:"remaining_quantity"`
	ExpirationTime    *int64           `json:"expiration_time"`
	Maker             rawMaker         `json:"maker"`
	Price             *priceEnvelope   `json:"price"`
	CurrentPrice      json.RawMessage  `json:"current_price"`
	Criteria          json.RawMessage  `json:"criteria"`
	ProtocolData      *rawProtocolData `json:"protocol_data"`
	Asset             *rawAsset        `json:"asset"`
}

// ParseOffer normalizes one upstream order record into an Offer, or nil if
// the record cannot be confidently parsed as a strictly-positive-price
// entity. It never panics and never returns an error.
func ParseOffer(raw json.RawMessage) *Offer {
	rec := decodeOrder(raw)
	if rec == nil {
		return nil
	}
	return buildOffer(rec)
}

// ParseActiveOffer normalizes and then applies the activity filter: status,
// remaining quantity, time window, and (for item-specific offers) target
// token equality. Inactive or mismatched offers come back nil.
func ParseActiveOffer(raw json.RawMessage, targetTokenID string, now time.Time) *Offer {
	rec := decodeOrder(raw)
	if rec == nil {
		return nil
	}
	if !orderIsActive(rec, now) {
		return nil
	}

	offer := buildOffer(rec)
	if offer == nil {
		return nil
	}

	// Collection-wide offers match any token; item-specific offers must
	// target exactly the token under query.
	if !offer.Criteria && targetTokenID != "" {
		if offer.TargetTokenID == "" || offer.TargetTokenID != targetTokenID {
			return nil
		}
	}
	return offer
}

// ParseListing normalizes a sell-side order record, or nil.
func ParseListing(raw json.RawMessage) *Listing {
	rec := decodeOrder(raw)
	if rec == nil {
		return nil
	}

	price, ok := extractPrice(rec)
	if !ok || !price.IsPositive() {
		return nil
	}

	l := &Listing{
		ID:              orderID(rec),
		Price:           price,
		ProtocolAddress: rec.ProtocolAddress,
		ExpiresAt:       orderExpiration(rec),
	}
	if rec.Maker.Address != "" {
		l.Maker = strings.ToLower(rec.Maker.Address)
	} else if p := parameters(rec); p != nil && p.Offerer != "" {
		l.Maker = strings.ToLower(p.Offerer)
	}

	// Token identity: prefer protocol parameters, fall back to the legacy
	// embedded asset block.
	if p := parameters(rec); p != nil {
		if leg := nftLeg(p.Offer); leg != nil {
			l.TokenContract = strings.ToLower(leg.Token)
			l.TokenID = string(leg.IdentifierOrCriteria)
		}
	}
	if rec.Asset != nil {
		if l.TokenID == "" {
			l.TokenID = rec.Asset.TokenID
		}
		if l.TokenContract == "" && rec.Asset.AssetContract.Address != "" {
			l.TokenContract = strings.ToLower(rec.Asset.AssetContract.Address)
		}
		l.Name = rec.Asset.Name
		l.ImageURL = rec.Asset.ImageURL
	}

	return l
}

// ParseActiveListing is ParseListing plus the activity filter.
func ParseActiveListing(raw json.RawMessage, now time.Time) *Listing {
	rec := decodeOrder(raw)
	if rec == nil {
		return nil
	}
	if !orderIsActive(rec, now) {
		return nil
	}
	return ParseListing(raw)
}

// rawEvent is the historical-events record shape.
type rawEvent struct {
	EventType      string     `json:"event_type"`
	OrderHash      string     `json:"order_hash"`
	Transaction    string     `json:"transaction"`
	EventTimestamp *int64     `json:"event_timestamp"`
	ClosingDate    *int64     `json:"closing_date"`
	Buyer          string     `json:"buyer"`
	Seller         string     `json:"seller"`
	Quantity       *int64     `json:"quantity"`
	Payment        *struct {
		Quantity     flexString `json:"quantity"`
		TokenAddress string     `json:"token_address"`
		Decimals     *int       `json:"decimals"`
		Symbol       string     `json:"symbol"`
	} `json:"payment"`
	NFT *struct {
		Identifier string `json:"identifier"`
	} `json:"nft"`
}

// ParseSale normalizes one sale event record, or nil. Non-sale events and
// zero-price records are dropped.
func ParseSale(raw json.RawMessage) *Sale {
	var rec rawEvent
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil
	}
	if rec.EventType != "" && rec.EventType != "sale" {
		return nil
	}
	if rec.Payment == nil {
		return nil
	}

	decimals := legacyDecimals
	if rec.Payment.Decimals != nil {
		decimals = *rec.Payment.Decimals
	}
	price, err := money.FromMinorUnits(string(rec.Payment.Quantity), decimals)
	if err != nil || !price.IsPositive() {
		return nil
	}

	s := &Sale{
		Price:         price,
		Buyer:         strings.ToLower(rec.Buyer),
		Seller:        strings.ToLower(rec.Seller),
		PaymentSymbol: rec.Payment.Symbol,
	}
	switch {
	case rec.OrderHash != "":
		s.ID = rec.OrderHash
	case rec.Transaction != "":
		s.ID = rec.Transaction
	}
	if rec.EventTimestamp != nil {
		s.OccurredAt = *rec.EventTimestamp
	} else if rec.ClosingDate != nil {
		s.OccurredAt = *rec.ClosingDate
	}
	if rec.NFT != nil {
		s.TokenID = rec.NFT.Identifier
	}
	return s
}

func decodeOrder(raw json.RawMessage) *rawOrder {
	var rec rawOrder
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil
	}
	return &rec
}

func buildOffer(rec *rawOrder) *Offer {
	price, ok := extractPrice(rec)
	if !ok || !price.IsPositive() {
		return nil
	}

	o := &Offer{
		ID:              orderID(rec),
		ProtocolAddress: rec.ProtocolAddress,
		ExpiresAt:       orderExpiration(rec),
	}

	p := parameters(rec)
	if rec.Maker.Address != "" {
		o.Maker = strings.ToLower(rec.Maker.Address)
	} else if p != nil && p.Offerer != "" {
		o.Maker = strings.ToLower(p.Offerer)
	}

	// For a buy-side order the NFT travels as a consideration leg back to
	// the offerer; that leg carries the target token and quantity.
	var leg *rawItem
	if p != nil {
		leg = nftLeg(p.Consideration)
	}
	if leg != nil {
		o.TargetTokenID = string(leg.IdentifierOrCriteria)
	}

	o.Criteria = isCriteria(rec, leg)

	if o.Criteria {
		qty := criteriaQuantity(rec, leg)
		if qty > 1 {
			per, err := price.DivBy(qty)
			if err != nil {
				return nil
			}
			price = per
		}
		o.TargetTokenID = ""
	}
	o.Price = price

	return o
}

// extractPrice applies the documented priority order: explicit
// {value, decimals} object, then a legacy minor-unit integer string, then a
// bare numeric with the 1e10 heuristic.
func extractPrice(rec *rawOrder) (money.Amount, bool) {
	if rec.Price != nil {
		if obj := rec.Price.Current; obj != nil && obj.Value != "" && obj.Decimals != nil {
			a, err := money.FromMinorUnits(string(obj.Value), *obj.Decimals)
			if err == nil {
				return a, true
			}
		}
		if rec.Price.Value != "" && rec.Price.Decimals != nil {
			a, err := money.FromMinorUnits(string(rec.Price.Value), *rec.Price.Decimals)
			if err == nil {
				return a, true
			}
		}
	}

	if len(rec.CurrentPrice) > 0 {
		s := string(rec.CurrentPrice)
		if s[0] == '"' {
			var str string
			if err := json.Unmarshal(rec.CurrentPrice, &str); err == nil && str != "" {
				// Legacy shape: a large integer string in 18-decimal minor units.
				a, err := money.FromMinorUnits(str, legacyDecimals)
				if err == nil {
					return a, true
				}
			}
			return money.Amount{}, false
		}

		d, err := decimal.NewFromString(s)
		if err != nil || d.IsNegative() {
			return money.Amount{}, false
		}
		// Heuristic: very large bare numbers are minor units, small ones are
		// already whole units. Ambiguous mid-range behavior is intentional.
		if d.Cmp(minorUnitThreshold) > 0 {
			d = d.Shift(-legacyDecimals)
		}
		a, err := money.FromDecimal(d)
		if err != nil {
			return money.Amount{}, false
		}
		return a, true
	}

	return money.Amount{}, false
}

func orderIsActive(rec *rawOrder, now time.Time) bool {
	// Absent status is treated as active; explicit terminal states are not.
	if rec.Cancelled || rec.Finalized {
		return false
	}
	if rec.Status != "" && rec.Status != "active" && rec.Status != "open" {
		return false
	}
	if rec.RemainingQuantity != nil && *rec.RemainingQuantity <= 0 {
		return false
	}

	start, end := orderWindow(rec)
	ts := now.Unix()
	if start != 0 && ts < start {
		return false
	}
	if end != 0 && ts > end {
		return false
	}
	return true
}

func orderWindow(rec *rawOrder) (start, end int64) {
	if p := parameters(rec); p != nil {
		start = parseUnix(string(p.StartTime))
		end = parseUnix(string(p.EndTime))
	}
	if end == 0 && rec.ExpirationTime != nil {
		end = *rec.ExpirationTime
	}
	return start, end
}

func orderExpiration(rec *rawOrder) int64 {
	_, end := orderWindow(rec)
	return end
}

func orderID(rec *rawOrder) string {
	if rec.OrderHash != "" {
		return rec.OrderHash
	}
	return rec.ID
}

func parameters(rec *rawOrder) *rawParameters {
	if rec.ProtocolData == nil {
		return nil
	}
	return rec.ProtocolData.Parameters
}

// nftLeg finds the NFT-transfer item by its item-type tag.
func nftLeg(items []rawItem) *rawItem {
	for i := range items {
		switch items[i].ItemType {
		case itemTypeERC721, itemTypeERC1155, itemTypeERC721Criteria, itemTypeERC1155Criteria:
			return &items[i]
		}
	}
	return nil
}

func isCriteria(rec *rawOrder, leg *rawItem) bool {
	if len(rec.Criteria) > 0 && string(rec.Criteria) != "null" {
		return true
	}
	if leg == nil {
		return false
	}
	if leg.ItemType == itemTypeERC721Criteria || leg.ItemType == itemTypeERC1155Criteria {
		return true
	}
	return string(leg.IdentifierOrCriteria) == wildcardTokenID
}

// criteriaQuantity is the divisor for per-token pricing: the NFT leg's
// quantity, falling back to the remaining fillable quantity.
func criteriaQuantity(rec *rawOrder, leg *rawItem) int64 {
	if leg != nil {
		if q, err := strconv.ParseInt(string(leg.StartAmount), 10, 64); err == nil && q > 0 {
			return q
		}
	}
	if rec.RemainingQuantity != nil && *rec.RemainingQuantity > 0 {
		return *rec.RemainingQuantity
	}
	return 1
}

// parseUnix parses a unix-seconds value that may arrive as a string or
// number; malformed input means "unbounded".
func parseUnix(s string) int64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
