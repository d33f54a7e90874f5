package seaport

import (
	"encoding/json"
	"fmt"
)

// Wire shapes for the marketplace order-submission API. Numeric fields go
// out as decimal strings; the API rejects JSON numbers above float precision.

type wireItem struct {
	ItemType             int    `json:"itemType"`
	Token                string `json:"token"`
	IdentifierOrCriteria string `json:"identifierOrCriteria"`
	StartAmount          string `json:"startAmount"`
	EndAmount            string `json:"endAmount"`
	Recipient            string `json:"recipient,omitempty"`
}

type wireParameters struct {
	Offerer       string     `json:"offerer"`
	Zone          string     `json:"zone"`
	Offer         []wireItem `json:"offer"`
	Consideration []wireItem `json:"consideration"`
	OrderType     int        `json:"orderType"`
	StartTime     string     `json:"startTime"`
	EndTime       string     `json:"endTime"`
	ZoneHash      string     `json:"zoneHash"`
	Salt          string     `json:"salt"`
	ConduitKey    string     `json:"conduitKey"`
	TotalOriginal string     `json:"totalOriginalConsiderationItems"`
	Counter       string     `json:"counter"`
}

// EncodeParameters serializes order components into the submission wire
// format. The counter must already be resolved.
func EncodeParameters(c *OrderComponents) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("nil order components")
	}
	if c.Counter == nil {
		return nil, ErrCounterUnset
	}

	params := wireParameters{
		Offerer:       c.Offerer.Hex(),
		Zone:          c.Zone.Hex(),
		OrderType:     int(c.OrderType),
		StartTime:     c.StartTime.String(),
		EndTime:       c.EndTime.String(),
		ZoneHash:      c.ZoneHash.Hex(),
		Salt:          c.Salt.String(),
		ConduitKey:    c.ConduitKey.Hex(),
		TotalOriginal: c.TotalOriginalConsiderationItems.String(),
		Counter:       c.Counter.String(),
	}
	for _, item := range c.Offer {
		params.Offer = append(params.Offer, wireItem{
			ItemType:             int(item.ItemType),
			Token:                item.Token.Hex(),
			IdentifierOrCriteria: item.IdentifierOrCriteria.String(),
			StartAmount:          item.StartAmount.String(),
			EndAmount:            item.EndAmount.String(),
		})
	}
	for _, item := range c.Consideration {
		params.Consideration = append(params.Consideration, wireItem{
			ItemType:             int(item.ItemType),
			Token:                item.Token.Hex(),
			IdentifierOrCriteria: item.IdentifierOrCriteria.String(),
			StartAmount:          item.StartAmount.String(),
			EndAmount:            item.EndAmount.String(),
			Recipient:            item.Recipient.Hex(),
		})
	}

	return json.Marshal(params)
}
