// Package gateway is the service layer between the HTTP surface and the
// upstream marketplace client. It validates every input before any outbound
// call, normalizes raw records through the market package, and caps result
// sizes.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tidewater/seabridge/internal/chains"
	"github.com/tidewater/seabridge/internal/market"
	"github.com/tidewater/seabridge/internal/money"
	"github.com/tidewater/seabridge/internal/opensea"
)

const (
	// MinLimit and MaxLimit bound every list query.
	MinLimit = 1
	MaxLimit = 20

	// DefaultLimit applies when the caller omits the parameter.
	DefaultLimit = 10
)

// ValidationError reports a rejected input. It is produced before any
// upstream call is made.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Query identifies one NFT for a per-token resource.
type Query struct {
	Chain    string
	Contract string
	TokenID  string

	// Collection is the marketplace slug, required only by resources
	// addressed per collection.
	Collection string
}

func (q Query) validate() error {
	if !chains.IsSupported(q.Chain) {
		return badRequest("unsupported chain %q", q.Chain)
	}
	if !chains.ValidAddress(q.Contract) {
		return badRequest("invalid contract address %q", q.Contract)
	}
	if !chains.ValidTokenID(q.TokenID) {
		return badRequest("invalid token id %q", q.TokenID)
	}
	return nil
}

func validateLimit(limit int) (int, error) {
	if limit == 0 {
		return DefaultLimit, nil
	}
	if limit < MinLimit || limit > MaxLimit {
		return 0, badRequest("limit must be between %d and %d", MinLimit, MaxLimit)
	}
	return limit, nil
}

// Service composes the marketplace client with validation and normalization.
type Service struct {
	client *opensea.Client
	now    func() time.Time
}

// New creates the service. The clock is real time; tests override it.
func New(client *opensea.Client) *Service {
	return &Service{client: client, now: time.Now}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Floor returns the collection floor price. A collection with no market data
// yields a FloorInfo with a nil value, not an error.
func (s *Service) Floor(ctx context.Context, chain, collection string) (*market.FloorInfo, error) {
	if !chains.IsSupported(chain) {
		return nil, badRequest("unsupported chain %q", chain)
	}
	if collection == "" {
		return nil, badRequest("collection slug required")
	}

	stats, err := s.client.CollectionStats(ctx, collection)
	if err != nil {
		return nil, err
	}

	info := &market.FloorInfo{}
	if stats != nil && stats.FloorPrice != nil && *stats.FloorPrice > 0 {
		amount, err := money.FromDecimal(decimal.NewFromFloat(*stats.FloorPrice))
		if err == nil {
			info.Value = &amount
		}
	}
	return info, nil
}

// BestOffer returns the single best active offer for one NFT, or nil when
// none exists. Absence is not an error.
func (s *Service) BestOffer(ctx context.Context, q Query) (*market.Offer, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	if q.Collection == "" {
		return nil, badRequest("collection slug required")
	}

	raw, err := s.client.BestOffer(ctx, q.Collection, q.TokenID)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return market.ParseActiveOffer(raw, q.TokenID, s.now()), nil
}

// Offers returns the top active offers for one NFT, highest price first.
func (s *Service) Offers(ctx context.Context, q Query, limit int) ([]market.Offer, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	limit, err := validateLimit(limit)
	if err != nil {
		return nil, err
	}

	records, err := s.client.ItemOffers(ctx, q.Chain, q.Contract, q.TokenID, limit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	offers := make([]market.Offer, 0, len(records))
	for _, rec := range records {
		if offer := market.ParseActiveOffer(rec, q.TokenID, now); offer != nil {
			offers = append(offers, *offer)
		}
	}
	market.SortOffers(offers)
	return capOffers(offers, limit), nil
}

// Listings returns the cheapest active listings for one NFT.
func (s *Service) Listings(ctx context.Context, q Query, limit int) ([]market.Listing, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	limit, err := validateLimit(limit)
	if err != nil {
		return nil, err
	}

	records, err := s.client.Listings(ctx, q.Chain, q.Contract, q.TokenID, limit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	listings := make([]market.Listing, 0, len(records))
	for _, rec := range records {
		if listing := market.ParseActiveListing(rec, now); listing != nil {
			listings = append(listings, *listing)
		}
	}
	market.SortListings(listings)
	if len(listings) > limit {
		listings = listings[:limit]
	}
	return listings, nil
}

// Sales returns recent sales for one NFT, newest first.
func (s *Service) Sales(ctx context.Context, q Query, limit int) ([]market.Sale, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	limit, err := validateLimit(limit)
	if err != nil {
		return nil, err
	}

	records, err := s.client.SaleEvents(ctx, q.Chain, q.Contract, q.TokenID, limit)
	if err != nil {
		return nil, err
	}

	sales := make([]market.Sale, 0, len(records))
	for _, rec := range records {
		if sale := market.ParseSale(rec); sale != nil {
			sales = append(sales, *sale)
		}
	}
	market.SortSalesForDisplay(sales)
	if len(sales) > limit {
		sales = sales[:limit]
	}
	return sales, nil
}

// NFT returns per-token metadata including traits.
func (s *Service) NFT(ctx context.Context, q Query) (*market.NFT, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	raw, err := s.client.NFT(ctx, q.Chain, q.Contract, q.TokenID)
	if err != nil {
		return nil, err
	}
	nft := market.ParseNFT(raw)
	if nft == nil {
		return nil, fmt.Errorf("unparseable metadata for %s/%s", q.Contract, q.TokenID)
	}
	return nft, nil
}

// History builds the charting series for one NFT: historical sales ascending
// by time, then the current floor and the best of the token's active offers
// as of now. The supplementary points are best effort; a failed lookup leaves
// the sales series intact.
func (s *Service) History(ctx context.Context, q Query) ([]market.Point, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	records, err := s.client.SaleEvents(ctx, q.Chain, q.Contract, q.TokenID, MaxLimit)
	if err != nil {
		return nil, err
	}

	sales := make([]market.Sale, 0, len(records))
	for _, rec := range records {
		if sale := market.ParseSale(rec); sale != nil {
			sales = append(sales, *sale)
		}
	}
	points := market.SalesSeries(sales)

	now := s.now()

	collection := q.Collection
	if collection == "" {
		if raw, err := s.client.NFT(ctx, q.Chain, q.Contract, q.TokenID); err == nil {
			if nft := market.ParseNFT(raw); nft != nil {
				collection = nft.Collection
			}
		}
	}
	if collection != "" {
		if info, err := s.Floor(ctx, q.Chain, collection); err == nil && info.Value != nil {
			points = append(points, market.Point{
				Timestamp: now.Unix(),
				Price:     *info.Value,
				Source:    market.PointSourceFloor,
			})
		}
	}

	// The offer point needs no collection slug: select the best from the
	// token's own active offers.
	if records, err := s.client.ItemOffers(ctx, q.Chain, q.Contract, q.TokenID, MaxLimit); err == nil {
		offers := make([]market.Offer, 0, len(records))
		for _, rec := range records {
			if offer := market.ParseActiveOffer(rec, q.TokenID, now); offer != nil {
				offers = append(offers, *offer)
			}
		}
		if best := market.BestOffer(offers); best != nil {
			points = append(points, market.Point{
				Timestamp: now.Unix(),
				Price:     best.Price,
				Source:    market.PointSourceOffer,
			})
		}
	}
	return points, nil
}

// AccountNFTs returns the NFTs held by an account on one chain.
func (s *Service) AccountNFTs(ctx context.Context, chain, address string) ([]market.NFT, error) {
	if !chains.IsSupported(chain) {
		return nil, badRequest("unsupported chain %q", chain)
	}
	if !chains.ValidAddress(address) {
		return nil, badRequest("invalid account address %q", address)
	}

	records, err := s.client.AccountNFTs(ctx, chain, address)
	if err != nil {
		return nil, err
	}

	nfts := make([]market.NFT, 0, len(records))
	for _, rec := range records {
		if nft := market.ParseNFT(rec); nft != nil {
			nfts = append(nfts, *nft)
		}
	}
	return nfts, nil
}

// SubmitListing registers a signed order with the marketplace.
func (s *Service) SubmitListing(ctx context.Context, chain string, payload *opensea.SignedOrderPayload) ([]byte, error) {
	if !chains.IsSupported(chain) {
		return nil, badRequest("unsupported chain %q", chain)
	}
	if payload == nil || len(payload.Parameters) == 0 {
		return nil, badRequest("order parameters required")
	}
	if !strings.HasPrefix(payload.Signature, "0x") {
		return nil, badRequest("signature must be 0x-prefixed hex")
	}
	return s.client.PostListing(ctx, chain, payload)
}

// Client exposes the underlying marketplace client for components that need
// raw access, like the fulfillment resolver.
func (s *Service) Client() *opensea.Client {
	return s.client
}

func capOffers(offers []market.Offer, limit int) []market.Offer {
	if len(offers) > limit {
		return offers[:limit]
	}
	return offers
}
