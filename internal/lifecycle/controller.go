// Package lifecycle orchestrates the approve, list, accept and cancel flows
// against the chain and the marketplace. The controller owns the wallet; the
// gateway never sees a private key.
package lifecycle

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tidewater/seabridge/internal/chains"
	"github.com/tidewater/seabridge/internal/fulfill"
	"github.com/tidewater/seabridge/internal/gateway"
	"github.com/tidewater/seabridge/internal/money"
	"github.com/tidewater/seabridge/internal/opensea"
	"github.com/tidewater/seabridge/internal/seaport"
	"github.com/tidewater/seabridge/internal/wallet"
)

// Notifier receives lifecycle events. Implementations must tolerate being
// called with a cancelled context; delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Controller drives order lifecycles for one wallet on one chain.
type Controller struct {
	chain    chains.Chain
	backend  Backend
	wallet   *wallet.Wallet
	signer   *wallet.Signer
	svc      *gateway.Service
	resolver *fulfill.Resolver
	counters seaport.CounterSource

	feeBps       int
	feeRecipient common.Address

	policy   PollPolicy
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	offersEpoch   fetchEpoch
	listingsEpoch fetchEpoch
}

// Options configures a Controller.
type Options struct {
	Chain        chains.Chain
	Backend      Backend
	Wallet       *wallet.Wallet
	Service      *gateway.Service
	Resolver     *fulfill.Resolver
	Counters     seaport.CounterSource
	FeeBps       int
	FeeRecipient string

	// Optional.
	Policy   *PollPolicy
	Notifier Notifier
	Logger   *slog.Logger
}

// NewController wires a controller from its collaborators.
func NewController(opts Options) (*Controller, error) {
	if opts.Backend == nil {
		return nil, configErr("new", fmt.Errorf("backend required"))
	}
	if opts.Wallet == nil {
		return nil, configErr("new", fmt.Errorf("wallet required"))
	}
	if opts.Service == nil {
		return nil, configErr("new", fmt.Errorf("gateway service required"))
	}
	if opts.Resolver == nil {
		return nil, configErr("new", fmt.Errorf("resolver required"))
	}
	if opts.Counters == nil {
		return nil, configErr("new", fmt.Errorf("counter source required"))
	}
	if !chains.ValidAddress(opts.FeeRecipient) {
		return nil, configErr("new", fmt.Errorf("invalid fee recipient %q", opts.FeeRecipient))
	}

	policy := DefaultPollPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		chain:        opts.Chain,
		backend:      opts.Backend,
		wallet:       opts.Wallet,
		signer:       wallet.NewSigner(opts.Wallet, opts.Chain.ID),
		svc:          opts.Service,
		resolver:     opts.Resolver,
		counters:     opts.Counters,
		feeBps:       opts.FeeBps,
		feeRecipient: common.HexToAddress(opts.FeeRecipient),
		policy:       policy,
		notifier:     opts.Notifier,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// ApprovalStatus reports the conduit approval state for one collection.
type ApprovalStatus struct {
	Approved bool
	TxHash   common.Hash
}

// CheckApproval reads whether the settlement conduit may transfer the
// wallet's tokens in a collection.
func (c *Controller) CheckApproval(ctx context.Context, contract string) (bool, error) {
	if !chains.ValidAddress(contract) {
		return false, configErr("approve", fmt.Errorf("invalid contract %q", contract))
	}
	approved, err := isApprovedForAll(ctx, c.backend, common.HexToAddress(contract), c.wallet.Address(), seaport.ConduitAddress)
	if err != nil {
		return false, chainErr("approve", err)
	}
	return approved, nil
}

// EnsureApproval grants the conduit approval if missing, waiting for the
// grant transaction to confirm. Idempotent.
func (c *Controller) EnsureApproval(ctx context.Context, contract string) (*ApprovalStatus, error) {
	approved, err := c.CheckApproval(ctx, contract)
	if err != nil {
		return nil, err
	}
	if approved {
		return &ApprovalStatus{Approved: true}, nil
	}

	data, err := encodeSetApprovalForAll(seaport.ConduitAddress, true)
	if err != nil {
		return nil, chainErr("approve", err)
	}

	txHash, err := sendTransaction(ctx, c.backend, c.wallet, big.NewInt(c.chain.ID), common.HexToAddress(contract), zeroValue, data)
	if err != nil {
		return nil, walletErr("approve", err)
	}
	c.logger.Info("approval transaction sent", "contract", contract, "tx", txHash.Hex())

	if _, err := waitReceipt(ctx, c.backend, c.policy, txHash); err != nil {
		return nil, chainErr("approve", err)
	}
	return &ApprovalStatus{Approved: true, TxHash: txHash}, nil
}

// ListRequest describes one listing to create.
type ListRequest struct {
	Contract     string
	TokenID      string
	Price        money.Amount
	DurationDays int
}

// ListReceipt is the marketplace acknowledgement of a created listing.
type ListReceipt struct {
	OrderHash string          `json:"orderHash,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// List builds, signs, and registers a listing. The flow is gated on conduit
// approval and on resolving the live counter; a listing signed under a stale
// counter would be dead on arrival.
func (c *Controller) List(ctx context.Context, req ListRequest) (*ListReceipt, error) {
	approved, err := c.CheckApproval(ctx, req.Contract)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, walletErr("list", ErrNotApproved)
	}

	tokenID, ok := new(big.Int).SetString(req.TokenID, 10)
	if !ok {
		return nil, configErr("list", fmt.Errorf("invalid token id %q", req.TokenID))
	}

	components, err := seaport.BuildListing(seaport.ListingParams{
		Offerer:       c.wallet.Address(),
		TokenContract: common.HexToAddress(req.Contract),
		TokenID:       tokenID,
		Price:         req.Price,
		DurationDays:  req.DurationDays,
		FeeBps:        c.feeBps,
		FeeRecipient:  c.feeRecipient,
	}, c.now())
	if err != nil {
		return nil, configErr("list", err)
	}

	if err := seaport.ResolveCounter(ctx, c.counters, components); err != nil {
		return nil, chainErr("list", err)
	}

	signed, err := c.signer.SignOrder(components)
	if err != nil {
		return nil, walletErr("list", err)
	}

	params, err := seaport.EncodeParameters(components)
	if err != nil {
		return nil, walletErr("list", err)
	}

	raw, err := c.svc.SubmitListing(ctx, c.chain.Slug, &opensea.SignedOrderPayload{
		Parameters:      params,
		Signature:       signed.Signature,
		ProtocolAddress: signed.ProtocolAddress.Hex(),
	})
	if err != nil {
		return nil, marketErr("list", err)
	}

	receipt := &ListReceipt{Raw: raw}
	var envelope struct {
		Order struct {
			OrderHash string `json:"order_hash"`
		} `json:"order"`
		OrderHash string `json:"order_hash"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Order.OrderHash != "" {
			receipt.OrderHash = envelope.Order.OrderHash
		} else {
			receipt.OrderHash = envelope.OrderHash
		}
	}

	c.logger.Info("listing registered", "contract", req.Contract, "token", req.TokenID, "price", req.Price.String())
	c.notify(ctx, fmt.Sprintf("Listed %s #%s for %s %s", req.Contract, req.TokenID, req.Price.Display(), c.chain.Native))
	return receipt, nil
}

// AcceptRequest describes accepting the current best offer on one NFT.
type AcceptRequest struct {
	Collection string
	Contract   string
	TokenID    string

	// ExpectedPrice is the per-token price the operator confirmed. The
	// accept aborts unless the live offer still matches it exactly.
	ExpectedPrice money.Amount
}

// AcceptBestOffer re-fetches the best offer, verifies its price has not
// drifted from the confirmed one, and executes the settlement transaction.
func (c *Controller) AcceptBestOffer(ctx context.Context, req AcceptRequest) (common.Hash, error) {
	token := c.offersEpoch.begin()
	offer, err := c.svc.BestOffer(ctx, gateway.Query{
		Chain:      c.chain.Slug,
		Contract:   req.Contract,
		TokenID:    req.TokenID,
		Collection: req.Collection,
	})
	if err != nil {
		return common.Hash{}, marketErr("accept", err)
	}
	if c.offersEpoch.stale(token) {
		return common.Hash{}, marketErr("accept", ErrStaleResponse)
	}
	if offer == nil {
		return common.Hash{}, marketErr("accept", ErrNoOffer)
	}
	if !offer.Price.Equal(req.ExpectedPrice) {
		return common.Hash{}, marketErr("accept", fmt.Errorf("%w: confirmed %s, live %s",
			ErrPriceDrift, req.ExpectedPrice.String(), offer.Price.String()))
	}

	res, err := c.resolver.Fulfill(ctx, &fulfill.Request{
		Chain:                 c.chain.Slug,
		OrderHash:             offer.ID,
		Side:                  fulfill.SideOffer,
		Fulfiller:             c.wallet.AddressHex(),
		ConsiderationContract: req.Contract,
		ConsiderationTokenID:  req.TokenID,
	})
	if err != nil {
		return common.Hash{}, marketErr("accept", err)
	}
	if !res.Ready {
		return common.Hash{}, marketErr("accept", fmt.Errorf("%s: %s", res.Code, res.Message))
	}

	txHash, err := c.execute(ctx, "accept", res)
	if err != nil {
		return common.Hash{}, err
	}

	c.notify(ctx, fmt.Sprintf("Sold %s #%s for %s %s", req.Contract, req.TokenID, offer.Price.Display(), c.chain.Native))
	return txHash, nil
}

// CancelRequest describes cancelling one of the wallet's own orders.
type CancelRequest struct {
	Contract  string
	TokenID   string
	OrderHash string
}

// Cancel resolves and executes the on-chain cancel, then polls the listings
// for the token until the order is gone. Polling is bounded; exhaustion is
// reported, not retried forever.
func (c *Controller) Cancel(ctx context.Context, req CancelRequest) (common.Hash, error) {
	res, err := c.resolver.Cancel(ctx, &fulfill.CancelRequest{
		Chain:     c.chain.Slug,
		OrderHash: req.OrderHash,
		Offerer:   c.wallet.AddressHex(),
	})
	if err != nil {
		return common.Hash{}, marketErr("cancel", err)
	}
	if !res.Ready {
		return common.Hash{}, marketErr("cancel", fmt.Errorf("%s: %s", res.Code, res.Message))
	}

	txHash, err := c.execute(ctx, "cancel", res)
	if err != nil {
		return common.Hash{}, err
	}

	if err := c.confirmCancelled(ctx, req); err != nil {
		return txHash, err
	}

	c.notify(ctx, fmt.Sprintf("Cancelled order %s", req.OrderHash))
	return txHash, nil
}

// confirmCancelled polls until the order disappears from the token's active
// listings. Stale responses from superseded fetches are discarded.
func (c *Controller) confirmCancelled(ctx context.Context, req CancelRequest) error {
	err := c.policy.Run(ctx, func(ctx context.Context) (bool, error) {
		token := c.listingsEpoch.begin()
		listings, err := c.svc.Listings(ctx, gateway.Query{
			Chain:    c.chain.Slug,
			Contract: req.Contract,
			TokenID:  req.TokenID,
		}, gateway.MaxLimit)
		if err != nil {
			// Transient marketplace trouble; keep polling.
			c.logger.Warn("cancel confirmation fetch failed", "err", err)
			return false, nil
		}
		if c.listingsEpoch.stale(token) {
			return false, nil
		}

		for _, listing := range listings {
			if strings.EqualFold(listing.ID, req.OrderHash) {
				return false, nil
			}
		}
		return true, nil
	})
	if err != nil {
		return marketErr("cancel", err)
	}
	return nil
}

// execute sends a resolved transaction and waits for its receipt.
func (c *Controller) execute(ctx context.Context, op string, res *fulfill.Result) (common.Hash, error) {
	to := common.HexToAddress(res.To)
	value, err := parseTxValue(res.Value)
	if err != nil {
		return common.Hash{}, marketErr(op, err)
	}
	data, err := parseTxData(res.Data)
	if err != nil {
		return common.Hash{}, marketErr(op, err)
	}

	txHash, err := sendTransaction(ctx, c.backend, c.wallet, big.NewInt(c.chain.ID), to, value, data)
	if err != nil {
		return common.Hash{}, walletErr(op, err)
	}
	c.logger.Info("transaction sent", "op", op, "tx", txHash.Hex())

	if _, err := waitReceipt(ctx, c.backend, c.policy, txHash); err != nil {
		return txHash, chainErr(op, err)
	}
	return txHash, nil
}

func (c *Controller) notify(ctx context.Context, text string) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(ctx, text); err != nil {
		c.logger.Warn("notification failed", "err", err)
	}
}

func parseTxValue(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	var (
		v  *big.Int
		ok bool
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, ok = new(big.Int).SetString(s[2:], 16)
	} else {
		v, ok = new(big.Int).SetString(s, 10)
	}
	if !ok {
		return nil, fmt.Errorf("invalid transaction value %q", s)
	}
	return v, nil
}

func parseTxData(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil, nil
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction data: %w", err)
	}
	return data, nil
}
