// Package opensea is the HTTP client for the upstream marketplace API. It
// holds the server credential and tolerates the API's unstable response
// envelopes; normalization into canonical records happens one layer up.
package opensea

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://api.opensea.io"
	defaultTimeout = 30 * time.Second

	headerAPIKey = "x-api-key"
)

// ErrMissingAPIKey is a configuration fault, reported distinctly from any
// upstream failure so operators can tell "we are broken" from "they are".
var ErrMissingAPIKey = errors.New("opensea: API key not configured")

// Client is the marketplace API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a marketplace client with the given credential.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// WithBaseURL overrides the API base URL (useful for testing).
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// WithHTTPClient sets a custom HTTP client.
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.httpClient = client
	return c
}

// CollectionStats fetches collection-wide statistics including the floor.
func (c *Client) CollectionStats(ctx context.Context, slug string) (*CollectionStats, error) {
	body, err := c.get(ctx, fmt.Sprintf("/api/v2/collections/%s/stats", url.PathEscape(slug)), nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Total *CollectionStats `json:"total"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode stats: %w", err)
	}
	if envelope.Total != nil {
		return envelope.Total, nil
	}

	// Older shape: stats at the top level.
	var flat CollectionStats
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("failed to decode stats: %w", err)
	}
	return &flat, nil
}

// BestOffer fetches the single best offer for one NFT. A 404 means no offer
// exists and is returned as (nil, nil), not an error.
func (c *Client) BestOffer(ctx context.Context, collection, tokenID string) (json.RawMessage, error) {
	path := fmt.Sprintf("/api/v2/offers/collection/%s/nfts/%s/best",
		url.PathEscape(collection), url.PathEscape(tokenID))

	body, err := c.get(ctx, path, nil)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return body, nil
}

// ItemOffers fetches offers targeting one NFT.
func (c *Client) ItemOffers(ctx context.Context, chain, contract, tokenID string, limit int) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("asset_contract_address", contract)
	params.Set("token_ids", tokenID)
	params.Set("limit", fmt.Sprintf("%d", limit))

	body, err := c.get(ctx, fmt.Sprintf("/api/v2/orders/%s/seaport/offers", url.PathEscape(chain)), params)
	if err != nil {
		return nil, err
	}
	return firstArray(body, "orders", "offers", "results")
}

// CollectionOffers fetches collection-wide (criteria) offers.
func (c *Client) CollectionOffers(ctx context.Context, collection string) ([]json.RawMessage, error) {
	body, err := c.get(ctx, fmt.Sprintf("/api/v2/offers/collection/%s", url.PathEscape(collection)), nil)
	if err != nil {
		return nil, err
	}
	return firstArray(body, "offers", "orders", "results")
}

// Listings fetches sell-side orders for one NFT.
func (c *Client) Listings(ctx context.Context, chain, contract, tokenID string, limit int) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("asset_contract_address", contract)
	params.Set("token_ids", tokenID)
	params.Set("limit", fmt.Sprintf("%d", limit))

	body, err := c.get(ctx, fmt.Sprintf("/api/v2/orders/%s/seaport/listings", url.PathEscape(chain)), params)
	if err != nil {
		return nil, err
	}
	return firstArray(body, "orders", "listings", "results")
}

// SaleEvents fetches historical sale events for one NFT.
func (c *Client) SaleEvents(ctx context.Context, chain, contract, tokenID string, limit int) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("event_type", "sale")
	params.Set("limit", fmt.Sprintf("%d", limit))

	path := fmt.Sprintf("/api/v2/events/chain/%s/contract/%s/nfts/%s",
		url.PathEscape(chain), url.PathEscape(contract), url.PathEscape(tokenID))

	body, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	return firstArray(body, "asset_events", "events", "results")
}

// NFT fetches per-token metadata.
func (c *Client) NFT(ctx context.Context, chain, contract, tokenID string) (json.RawMessage, error) {
	path := fmt.Sprintf("/api/v2/chain/%s/contract/%s/nfts/%s",
		url.PathEscape(chain), url.PathEscape(contract), url.PathEscape(tokenID))

	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		NFT json.RawMessage `json:"nft"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.NFT) > 0 {
		return envelope.NFT, nil
	}
	return body, nil
}

// AccountNFTs fetches NFTs held by an account.
func (c *Client) AccountNFTs(ctx context.Context, chain, address string) ([]json.RawMessage, error) {
	path := fmt.Sprintf("/api/v2/chain/%s/account/%s/nfts",
		url.PathEscape(chain), url.PathEscape(address))

	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return firstArray(body, "nfts", "results")
}

// OrderByHash retrieves a full order record, including its protocol data,
// by order hash.
func (c *Client) OrderByHash(ctx context.Context, chain, protocolAddress, orderHash string) (json.RawMessage, error) {
	path := fmt.Sprintf("/api/v2/orders/chain/%s/protocol/%s/%s",
		url.PathEscape(chain), url.PathEscape(protocolAddress), url.PathEscape(orderHash))

	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Order json.RawMessage `json:"order"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Order) > 0 {
		return envelope.Order, nil
	}
	return body, nil
}

// PostListing registers a signed order with the marketplace.
func (c *Client) PostListing(ctx context.Context, chain string, payload *SignedOrderPayload) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order: %w", err)
	}
	return c.post(ctx, fmt.Sprintf("/api/v2/orders/%s/seaport/listings", url.PathEscape(chain)), body)
}

// FulfillmentData asks the marketplace for the transaction that settles an
// order, trying the documented nesting shapes in priority order.
func (c *Client) FulfillmentData(ctx context.Context, req *FulfillmentRequest) (*FulfillmentTransaction, json.RawMessage, error) {
	side := req.Side
	if side != "offer" {
		side = "listing"
	}

	orderRef := map[string]any{
		"hash":             req.OrderHash,
		"chain":            req.Chain,
		"protocol_address": req.ProtocolAddress,
	}
	payload := map[string]any{
		side:        orderRef,
		"fulfiller": map[string]any{"address": req.Fulfiller},
	}
	if side == "offer" && req.ConsiderationContract != "" {
		payload["consideration"] = map[string]any{
			"asset_contract_address": req.ConsiderationContract,
			"token_id":               req.ConsiderationTokenID,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal fulfillment request: %w", err)
	}

	raw, err := c.post(ctx, fmt.Sprintf("/api/v2/%ss/fulfillment_data", side), body)
	if err != nil {
		return nil, nil, err
	}

	tx := extractTransaction(raw)
	return tx, raw, nil
}

// extractTransaction walks the known fulfillment response shapes and pulls
// out {to, data, value}. Returns nil when neither a target nor calldata can
// be located.
func extractTransaction(raw json.RawMessage) *FulfillmentTransaction {
	type txShape struct {
		To       string          `json:"to"`
		ToAddr   string          `json:"to_address"`
		Data     string          `json:"data"`
		Input    string          `json:"input_data"`
		Value    json.RawMessage `json:"value"`
		Function string          `json:"function"`
	}
	var envelope struct {
		FulfillmentData *struct {
			Transaction *txShape `json:"transaction"`
		} `json:"fulfillment_data"`
		Transaction *txShape `json:"transaction"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil
	}

	var shape *txShape
	switch {
	case envelope.FulfillmentData != nil && envelope.FulfillmentData.Transaction != nil:
		shape = envelope.FulfillmentData.Transaction
	case envelope.Transaction != nil:
		shape = envelope.Transaction
	default:
		return nil
	}

	tx := &FulfillmentTransaction{Value: "0"}
	if shape.To != "" {
		tx.To = shape.To
	} else {
		tx.To = shape.ToAddr
	}
	if shape.Data != "" {
		tx.Data = shape.Data
	} else {
		tx.Data = shape.Input
	}
	if len(shape.Value) > 0 {
		var s string
		if err := json.Unmarshal(shape.Value, &s); err == nil {
			tx.Value = s
		} else {
			tx.Value = string(shape.Value)
		}
	}

	if tx.To == "" && tx.Data == "" {
		return nil
	}
	return tx
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	return c.do(ctx, http.MethodGet, endpoint, nil)
}

func (c *Client) post(ctx context.Context, path string, body []byte) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, c.baseURL+path, body)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerAPIKey, c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp.StatusCode, data)
	}

	return data, nil
}

// parseError extracts a message from a failed response, falling back to the
// raw body.
func parseError(status int, body []byte) *APIError {
	var shapes struct {
		Errors  []string `json:"errors"`
		Message string   `json:"message"`
		Detail  string   `json:"detail"`
	}
	if err := json.Unmarshal(body, &shapes); err == nil {
		switch {
		case len(shapes.Errors) > 0:
			return &APIError{Status: status, Message: shapes.Errors[0]}
		case shapes.Message != "":
			return &APIError{Status: status, Message: shapes.Message}
		case shapes.Detail != "":
			return &APIError{Status: status, Message: shapes.Detail}
		}
	}
	msg := string(body)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return &APIError{Status: status, Message: msg}
}

// firstArray picks the first array field present in a known-field priority
// list. The upstream API nests result arrays under different keys per
// resource.
func firstArray(body json.RawMessage, keys ...string) ([]json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		// Some endpoints return a bare array.
		var bare []json.RawMessage
		if err2 := json.Unmarshal(body, &bare); err2 == nil {
			return bare, nil
		}
		return nil, fmt.Errorf("unexpected response shape: %w", err)
	}

	for _, key := range keys {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var records []json.RawMessage
		if err := json.Unmarshal(raw, &records); err != nil {
			continue
		}
		return records, nil
	}
	return nil, nil
}
