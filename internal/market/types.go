// Package market defines the canonical records the gateway serves and the
// normalization that produces them from raw marketplace JSON. Records are
// immutable values: every refresh replaces them wholesale, nothing merges.
package market

import (
	"github.com/tidewater/seabridge/internal/money"
)

// Offer is a normalized buy-side order. Price is per token: collection-wide
// offers have their total divided by the NFT leg quantity at parse time.
type Offer struct {
	ID              string       `json:"id"`
	Price           money.Amount `json:"price"`
	Maker           string       `json:"maker,omitempty"`
	ExpiresAt       int64        `json:"expiresAt,omitempty"`
	ProtocolAddress string       `json:"protocolAddress,omitempty"`
	TargetTokenID   string       `json:"targetTokenId,omitempty"`
	Criteria        bool         `json:"criteria"`
}

// Listing is a normalized sell-side order plus optional display metadata.
type Listing struct {
	ID              string       `json:"id"`
	Price           money.Amount `json:"price"`
	Maker           string       `json:"maker,omitempty"`
	ExpiresAt       int64        `json:"expiresAt,omitempty"`
	ProtocolAddress string       `json:"protocolAddress,omitempty"`
	TokenContract   string       `json:"tokenContract,omitempty"`
	TokenID         string       `json:"tokenId,omitempty"`
	Name            string       `json:"name,omitempty"`
	ImageURL        string       `json:"imageUrl,omitempty"`
}

// Sale is an immutable historical fact.
type Sale struct {
	ID            string       `json:"id"`
	Price         money.Amount `json:"price"`
	Buyer         string       `json:"buyer,omitempty"`
	Seller        string       `json:"seller,omitempty"`
	PaymentSymbol string       `json:"paymentSymbol,omitempty"`
	OccurredAt    int64        `json:"occurredAt,omitempty"`
	TokenID       string       `json:"tokenId,omitempty"`
}

// FloorInfo is a collection-wide statistic, refreshed on demand.
type FloorInfo struct {
	Value *money.Amount `json:"value"`
}

// PointSource tags where a chart sample came from.
type PointSource string

const (
	PointSourceSale  PointSource = "sale"
	PointSourceOffer PointSource = "offer"
	PointSourceFloor PointSource = "floor"
	PointSourceOther PointSource = "other"
)

// Point is one time-series sample for charting. Sequences are ascending by
// timestamp; deduplication is not required.
type Point struct {
	Timestamp int64        `json:"timestamp"`
	Price     money.Amount `json:"price"`
	Source    PointSource  `json:"source"`
}

// Trait is one attribute of an NFT.
type Trait struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// NFT is the normalized per-token metadata record.
type NFT struct {
	Contract   string  `json:"contract"`
	TokenID    string  `json:"tokenId"`
	Collection string  `json:"collection,omitempty"`
	Name       string  `json:"name,omitempty"`
	ImageURL   string  `json:"imageUrl,omitempty"`
	Owner      string  `json:"owner,omitempty"`
	Traits     []Trait `json:"traits,omitempty"`
}
