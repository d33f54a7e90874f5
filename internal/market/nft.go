package market

import (
	"encoding/json"
	"strings"
)

type rawNFT struct {
	Identifier string `json:"identifier"`
	TokenID    string `json:"token_id"`
	Collection string `json:"collection"`
	Contract   string `json:"contract"`
	Name       string `json:"name"`
	ImageURL   string `json:"image_url"`
	DisplayURL string `json:"display_image_url"`
	Owners     []struct {
		Address string `json:"address"`
	} `json:"owners"`
	Owner  string `json:"owner"`
	Traits []struct {
		TraitType string          `json:"trait_type"`
		Value     json.RawMessage `json:"value"`
	} `json:"traits"`
}

// ParseNFT normalizes a per-token metadata record, or nil on failure.
func ParseNFT(raw json.RawMessage) *NFT {
	var rec rawNFT
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil
	}

	n := &NFT{
		Contract:   strings.ToLower(rec.Contract),
		Collection: rec.Collection,
		Name:       rec.Name,
	}

	if rec.Identifier != "" {
		n.TokenID = rec.Identifier
	} else {
		n.TokenID = rec.TokenID
	}
	if n.Contract == "" && n.TokenID == "" {
		return nil
	}

	if rec.ImageURL != "" {
		n.ImageURL = rec.ImageURL
	} else {
		n.ImageURL = rec.DisplayURL
	}

	if rec.Owner != "" {
		n.Owner = strings.ToLower(rec.Owner)
	} else if len(rec.Owners) > 0 {
		n.Owner = strings.ToLower(rec.Owners[0].Address)
	}

	for _, tr := range rec.Traits {
		value := string(tr.Value)
		var s string
		if err := json.Unmarshal(tr.Value, &s); err == nil {
			value = s
		}
		n.Traits = append(n.Traits, Trait{Type: tr.TraitType, Value: value})
	}

	return n
}
