package market

import (
	"encoding/json"
	"testing"
)

func TestParseNFT(t *testing.T) {
	raw := json.RawMessage(`{
		"identifier": "42",
		"collection": "apes",
		"contract": "0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D",
		"name": "Ape #42",
		"display_image_url": "https://img.example/42.png",
		"owners": [{"address": "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"}],
		"traits": [
			{"trait_type": "Fur", "value": "Golden"},
			{"trait_type": "Generation", "value": 2}
		]
	}`)

	nft := ParseNFT(raw)
	if nft == nil {
		t.Fatal("expected a parsed record")
	}
	if nft.Contract != "0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d" {
		t.Errorf("contract not lowercased: %q", nft.Contract)
	}
	if nft.TokenID != "42" {
		t.Errorf("token id: got %q", nft.TokenID)
	}
	if nft.ImageURL != "https://img.example/42.png" {
		t.Errorf("display_image_url fallback: got %q", nft.ImageURL)
	}
	if nft.Owner != "0x70997970c51812dc3a010c7d01b50e0d17dc79c8" {
		t.Errorf("owner from owners list: got %q", nft.Owner)
	}
	if len(nft.Traits) != 2 {
		t.Fatalf("traits: got %d", len(nft.Traits))
	}
	if nft.Traits[0].Value != "Golden" {
		t.Errorf("string trait: got %q", nft.Traits[0].Value)
	}
	if nft.Traits[1].Value != "2" {
		t.Errorf("numeric trait kept as raw text: got %q", nft.Traits[1].Value)
	}
}

func TestParseNFTLegacyFields(t *testing.T) {
	raw := json.RawMessage(`{
		"token_id": "7",
		"contract": "0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D",
		"image_url": "primary.png",
		"display_image_url": "secondary.png",
		"owner": "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	}`)

	nft := ParseNFT(raw)
	if nft == nil {
		t.Fatal("expected a parsed record")
	}
	if nft.TokenID != "7" {
		t.Errorf("token_id fallback: got %q", nft.TokenID)
	}
	if nft.ImageURL != "primary.png" {
		t.Errorf("image_url takes priority: got %q", nft.ImageURL)
	}
	if nft.Owner != "0x70997970c51812dc3a010c7d01b50e0d17dc79c8" {
		t.Errorf("flat owner: got %q", nft.Owner)
	}
}

func TestParseNFTEmpty(t *testing.T) {
	if nft := ParseNFT(json.RawMessage(`{"name": "orphan"}`)); nft != nil {
		t.Errorf("record without contract or token id must be dropped, got %+v", nft)
	}
	if nft := ParseNFT(json.RawMessage(`not json`)); nft != nil {
		t.Errorf("undecodable record must be dropped, got %+v", nft)
	}
}
