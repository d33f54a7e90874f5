package opensea

import (
	"encoding/json"
	"fmt"
)

// APIError is a non-success response from the marketplace API. The upstream
// status is preserved so callers can tell "no result" (404) from a fault.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("opensea: status %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == 404
}

// UpstreamStatus extracts the upstream HTTP status from an error, or 0.
func UpstreamStatus(err error) int {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Status
	}
	return 0
}

// CollectionStats is the subset of the stats resource the gateway serves.
type CollectionStats struct {
	FloorPrice       *float64 `json:"floor_price"`
	FloorPriceSymbol string   `json:"floor_price_symbol"`
}

// SignedOrderPayload registers a signed order with the marketplace.
type SignedOrderPayload struct {
	Parameters      json.RawMessage `json:"parameters"`
	Signature       string          `json:"signature"`
	ProtocolAddress string          `json:"protocol_address"`
}

// FulfillmentRequest asks the marketplace for the transaction that fulfills
// an existing order.
type FulfillmentRequest struct {
	OrderHash       string `json:"order_hash"`
	Chain           string `json:"chain"`
	ProtocolAddress string `json:"protocol_address"`
	Fulfiller       string `json:"fulfiller"`
	// Consideration identifies the NFT leg when accepting a criteria offer.
	ConsiderationContract string `json:"consideration_contract,omitempty"`
	ConsiderationTokenID  string `json:"consideration_token_id,omitempty"`
	// Side selects the upstream endpoint: "offer" or "listing".
	Side string `json:"-"`
}

// FulfillmentTransaction is the extracted {to, data, value} triple.
type FulfillmentTransaction struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}
