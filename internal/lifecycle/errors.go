package lifecycle

import (
	"errors"
	"fmt"
)

// Kind classifies where a lifecycle failure originated, so operators can
// tell a wallet problem from a marketplace one from our own configuration.
type Kind string

const (
	KindWallet      Kind = "wallet"
	KindMarketplace Kind = "marketplace"
	KindConfig      Kind = "config"
	KindChain       Kind = "chain"
)

var (
	// ErrNotApproved means the conduit has no transfer approval for the
	// collection; listing cannot proceed until the approve step runs.
	ErrNotApproved = errors.New("conduit not approved for collection")

	// ErrPriceDrift aborts an accept when the live offer price no longer
	// equals the price the operator confirmed.
	ErrPriceDrift = errors.New("offer price changed since confirmation")

	// ErrNoOffer means no active offer exists to accept.
	ErrNoOffer = errors.New("no active offer")

	// ErrPollExhausted means confirmation polling hit its attempt bound
	// without the predicate holding.
	ErrPollExhausted = errors.New("confirmation polling exhausted")

	// ErrStaleResponse marks a fetch superseded by a newer one.
	ErrStaleResponse = errors.New("stale response discarded")
)

// Error wraps a failure with its origin and the operation that hit it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s failure: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func walletErr(op string, err error) error {
	return &Error{Kind: KindWallet, Op: op, Err: err}
}

func marketErr(op string, err error) error {
	return &Error{Kind: KindMarketplace, Op: op, Err: err}
}

func configErr(op string, err error) error {
	return &Error{Kind: KindConfig, Op: op, Err: err}
}

func chainErr(op string, err error) error {
	return &Error{Kind: KindChain, Op: op, Err: err}
}
