// Package fulfill turns marketplace orders into executable transactions. The
// resolver never executes anything itself; it produces {to, data, value} for
// the caller's wallet, with safety checks on the cancel path.
package fulfill

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidewater/seabridge/internal/chains"
	"github.com/tidewater/seabridge/internal/opensea"
	"github.com/tidewater/seabridge/internal/seaport"
)

// Resolution outcome codes. A non-empty code means no transaction was
// produced; the HTTP layer reports these with ok:false at status 200 because
// the gateway itself handled the request fine.
const (
	CodeDisabled          = "fulfillment_disabled"
	CodeUpstreamError     = "opensea_error"
	CodeUpstreamException = "opensea_exception"
	CodeInvalidResponse   = "invalid_opensea_response"
	CodeOffererMismatch   = "offerer_mismatch"
	CodeProtocolMismatch  = "protocol_mismatch"
)

// Sides of an order the resolver can settle.
const (
	SideOffer   = "offer"
	SideListing = "listing"
)

var orderHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// ValidationError reports a rejected input, before any upstream call.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Request asks for the transaction that settles one order.
type Request struct {
	Chain     string `json:"chain"`
	OrderHash string `json:"orderHash"`
	Side      string `json:"side"`
	Fulfiller string `json:"fulfiller"`

	// Consideration pins which NFT settles a criteria offer. Required when
	// accepting an offer.
	ConsiderationContract string `json:"considerationContract,omitempty"`
	ConsiderationTokenID  string `json:"considerationTokenId,omitempty"`
}

// CancelRequest asks for the transaction that cancels one order on chain.
type CancelRequest struct {
	Chain     string `json:"chain"`
	OrderHash string `json:"orderHash"`
	Offerer   string `json:"offerer"`
}

// Result is the resolver outcome. Either Ready is true and To/Data/Value are
// set, or Code explains why no transaction was produced.
type Result struct {
	Ready bool   `json:"ready"`
	To    string `json:"to,omitempty"`
	Data  string `json:"data,omitempty"`
	Value string `json:"value,omitempty"`

	Code           string `json:"code,omitempty"`
	Message        string `json:"message,omitempty"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
}

// Resolver derives settlement and cancellation transactions.
type Resolver struct {
	client *opensea.Client
	live   bool
	testTx bool
}

// New creates a resolver. With live false the resolver refuses to produce
// real settlement transactions; testTx then substitutes a zero-value
// self-transfer so wallet plumbing can be exercised without touching an
// order. With live true both flags yield real fulfillment.
func New(client *opensea.Client, live, testTx bool) *Resolver {
	return &Resolver{client: client, live: live, testTx: testTx}
}

// Fulfill resolves the transaction for accepting an offer or buying a
// listing.
func (r *Resolver) Fulfill(ctx context.Context, req *Request) (*Result, error) {
	if err := r.validateFulfill(req); err != nil {
		return nil, err
	}

	// Live fulfillment always wins; the test self-transfer only stands in
	// while real fulfillment is switched off.
	if !r.live {
		if r.testTx {
			return &Result{Ready: true, To: req.Fulfiller, Data: "0x", Value: "0"}, nil
		}
		return &Result{
			Code:    CodeDisabled,
			Message: "fulfillment is disabled on this gateway",
		}, nil
	}

	tx, _, err := r.client.FulfillmentData(ctx, &opensea.FulfillmentRequest{
		OrderHash:             req.OrderHash,
		Chain:                 req.Chain,
		ProtocolAddress:       seaport.ProtocolAddress.Hex(),
		Fulfiller:             req.Fulfiller,
		ConsiderationContract: req.ConsiderationContract,
		ConsiderationTokenID:  req.ConsiderationTokenID,
		Side:                  req.Side,
	})
	if err != nil {
		return upstreamFailure(err)
	}
	if tx == nil {
		return &Result{
			Code:    CodeInvalidResponse,
			Message: "fulfillment response carried no transaction",
		}, nil
	}

	value := tx.Value
	if value == "" {
		value = "0"
	}
	return &Result{Ready: true, To: tx.To, Data: tx.Data, Value: value}, nil
}

// Cancel resolves the transaction that cancels an order. The order is fetched
// from the marketplace, checked against the requesting wallet, and the
// calldata is encoded locally so the transaction target is always the
// canonical settlement contract. Cancel ignores the live flag: the resulting
// transaction is zero-value and can only void the caller's own order.
func (r *Resolver) Cancel(ctx context.Context, req *CancelRequest) (*Result, error) {
	if err := r.validateCancel(req); err != nil {
		return nil, err
	}

	raw, err := r.client.OrderByHash(ctx, req.Chain, seaport.ProtocolAddress.Hex(), req.OrderHash)
	if err != nil {
		return upstreamFailure(err)
	}

	order, err := decodeOrder(raw)
	if err != nil {
		return &Result{Code: CodeInvalidResponse, Message: err.Error()}, nil
	}

	if !seaport.IsCanonicalProtocol(order.Protocol) {
		return &Result{
			Code:    CodeProtocolMismatch,
			Message: fmt.Sprintf("order lives on unsupported protocol %s", order.Protocol.Hex()),
		}, nil
	}
	if !strings.EqualFold(order.Components.Offerer.Hex(), req.Offerer) {
		return &Result{
			Code:    CodeOffererMismatch,
			Message: "order was created by a different wallet",
		}, nil
	}
	if order.Components.Counter == nil {
		return &Result{
			Code:    CodeInvalidResponse,
			Message: "order record carried no counter",
		}, nil
	}

	data, err := seaport.EncodeCancel([]seaport.OrderComponents{*order.Components})
	if err != nil {
		return nil, fmt.Errorf("failed to encode cancel: %w", err)
	}

	return &Result{
		Ready: true,
		To:    seaport.ProtocolAddress.Hex(),
		Data:  "0x" + hex.EncodeToString(data),
		Value: "0",
	}, nil
}

func (r *Resolver) validateFulfill(req *Request) error {
	if req == nil {
		return badRequest("request body required")
	}
	if !chains.IsSupported(req.Chain) {
		return badRequest("unsupported chain %q", req.Chain)
	}
	if !orderHashPattern.MatchString(req.OrderHash) {
		return badRequest("invalid order hash %q", req.OrderHash)
	}
	if req.Side != SideOffer && req.Side != SideListing {
		return badRequest("side must be %q or %q", SideOffer, SideListing)
	}
	if !chains.ValidAddress(req.Fulfiller) {
		return badRequest("invalid fulfiller address %q", req.Fulfiller)
	}
	if req.Side == SideOffer {
		if !chains.ValidAddress(req.ConsiderationContract) {
			return badRequest("invalid consideration contract %q", req.ConsiderationContract)
		}
		if !chains.ValidTokenID(req.ConsiderationTokenID) {
			return badRequest("invalid consideration token id %q", req.ConsiderationTokenID)
		}
	}
	return nil
}

func (r *Resolver) validateCancel(req *CancelRequest) error {
	if req == nil {
		return badRequest("request body required")
	}
	if !chains.IsSupported(req.Chain) {
		return badRequest("unsupported chain %q", req.Chain)
	}
	if !orderHashPattern.MatchString(req.OrderHash) {
		return badRequest("invalid order hash %q", req.OrderHash)
	}
	if !chains.ValidAddress(req.Offerer) {
		return badRequest("invalid offerer address %q", req.Offerer)
	}
	return nil
}

// upstreamFailure maps a marketplace client error into a result. Missing
// credentials stay an error: that is our misconfiguration, not theirs.
func upstreamFailure(err error) (*Result, error) {
	if errors.Is(err, opensea.ErrMissingAPIKey) {
		return nil, err
	}

	var apiErr *opensea.APIError
	if errors.As(err, &apiErr) {
		return &Result{
			Code:           CodeUpstreamError,
			Message:        apiErr.Message,
			UpstreamStatus: apiErr.Status,
		}, nil
	}
	return &Result{Code: CodeUpstreamException, Message: err.Error()}, nil
}
