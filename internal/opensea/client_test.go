package opensea

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key").WithBaseURL(srv.URL)
}

func TestClientSendsAPIKey(t *testing.T) {
	var gotKey string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		w.Write([]byte(`{"total":{"floor_price":1.5}}`))
	})

	if _, err := client.CollectionStats(context.Background(), "boredapes"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header: got %q, want test-key", gotKey)
	}
}

func TestClientRefusesWithoutKey(t *testing.T) {
	client := NewClient("")

	_, err := client.CollectionStats(context.Background(), "boredapes")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("got error %v, want ErrMissingAPIKey", err)
	}
}

func TestCollectionStatsShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want float64
	}{
		{
			name: "nested under total",
			body: `{"total":{"floor_price":12.34,"floor_price_symbol":"ETH"}}`,
			want: 12.34,
		},
		{
			name: "flat legacy shape",
			body: `{"floor_price":0.08}`,
			want: 0.08,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			stats, err := client.CollectionStats(context.Background(), "slug")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if stats.FloorPrice == nil || *stats.FloorPrice != tt.want {
				t.Errorf("floor price: got %v, want %v", stats.FloorPrice, tt.want)
			}
		})
	}
}

func TestBestOffer404IsAbsence(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":["not found"]}`, http.StatusNotFound)
	})

	raw, err := client.BestOffer(context.Background(), "slug", "1")
	if err != nil {
		t.Fatalf("404 must not be an error, got: %v", err)
	}
	if raw != nil {
		t.Errorf("expected nil record, got %s", raw)
	}
}

func TestUpstreamStatusPreserved(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":["expired API key"]}`, http.StatusUnauthorized)
	})

	_, err := client.Listings(context.Background(), "ethereum", "0xabc", "1", 5)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %T, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", apiErr.Status)
	}
	if apiErr.Message != "expired API key" {
		t.Errorf("message: got %q", apiErr.Message)
	}
}

func TestParseErrorShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"errors array", `{"errors":["first","second"]}`, "first"},
		{"message field", `{"message":"rate limited"}`, "rate limited"},
		{"detail field", `{"detail":"invalid chain"}`, "invalid chain"},
		{"raw body fallback", `service unavailable`, "service unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseError(500, []byte(tt.body))
			if err.Message != tt.want {
				t.Errorf("message: got %q, want %q", err.Message, tt.want)
			}
		})
	}
}

func TestFirstArrayPriority(t *testing.T) {
	tests := []struct {
		name string
		body string
		keys []string
		want int
	}{
		{
			name: "first key wins",
			body: `{"orders":[{"a":1},{"a":2}],"results":[{"a":3}]}`,
			keys: []string{"orders", "results"},
			want: 2,
		},
		{
			name: "falls through to later key",
			body: `{"results":[{"a":1}]}`,
			keys: []string{"orders", "results"},
			want: 1,
		},
		{
			name: "bare array",
			body: `[{"a":1},{"a":2},{"a":3}]`,
			keys: []string{"orders"},
			want: 3,
		},
		{
			name: "no arrays at all",
			body: `{"next":"cursor"}`,
			keys: []string{"orders"},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := firstArray(json.RawMessage(tt.body), tt.keys...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(records) != tt.want {
				t.Errorf("records: got %d, want %d", len(records), tt.want)
			}
		})
	}
}

func TestNFTUnwrapsEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"nft":{"identifier":"7","collection":"apes"}}`))
	})

	raw, err := client.NFT(context.Background(), "ethereum", "0xabc", "7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rec struct {
		Identifier string `json:"identifier"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if rec.Identifier != "7" {
		t.Errorf("identifier: got %q, want 7", rec.Identifier)
	}
}

func TestExtractTransactionShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantTo   string
		wantData string
		wantVal  string
		wantNil  bool
	}{
		{
			name:     "nested fulfillment_data",
			body:     `{"fulfillment_data":{"transaction":{"to":"0x1","data":"0x2","value":1000}}}`,
			wantTo:   "0x1",
			wantData: "0x2",
			wantVal:  "1000",
		},
		{
			name:     "top-level transaction",
			body:     `{"transaction":{"to_address":"0x3","input_data":"0x4","value":"5"}}`,
			wantTo:   "0x3",
			wantData: "0x4",
			wantVal:  "5",
		},
		{
			name:    "missing target and calldata",
			body:    `{"fulfillment_data":{"transaction":{"function":"fulfillOrder"}}}`,
			wantNil: true,
		},
		{
			name:    "no transaction at all",
			body:    `{"protocol":"seaport1.6"}`,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := extractTransaction(json.RawMessage(tt.body))
			if tt.wantNil {
				if tx != nil {
					t.Errorf("expected nil, got %+v", tx)
				}
				return
			}
			if tx == nil {
				t.Fatal("expected a transaction, got nil")
			}
			if tx.To != tt.wantTo || tx.Data != tt.wantData || tx.Value != tt.wantVal {
				t.Errorf("got {%s %s %s}, want {%s %s %s}", tx.To, tx.Data, tx.Value, tt.wantTo, tt.wantData, tt.wantVal)
			}
		})
	}
}

func TestFulfillmentDataRequestShape(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/offers/fulfillment_data" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("undecodable request: %v", err)
		}
		w.Write([]byte(`{"fulfillment_data":{"transaction":{"to":"0xdead","data":"0xbeef"}}}`))
	})

	tx, _, err := client.FulfillmentData(context.Background(), &FulfillmentRequest{
		OrderHash:             "0xhash",
		Chain:                 "ethereum",
		ProtocolAddress:       "0xproto",
		Fulfiller:             "0xme",
		ConsiderationContract: "0xnft",
		ConsiderationTokenID:  "9",
		Side:                  "offer",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx == nil || tx.To != "0xdead" {
		t.Fatalf("transaction not extracted: %+v", tx)
	}

	if _, ok := got["offer"]; !ok {
		t.Error("request must nest the order under the side key")
	}
	if _, ok := got["consideration"]; !ok {
		t.Error("offer-side request must carry the consideration block")
	}
}
