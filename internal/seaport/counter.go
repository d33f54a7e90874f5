package seaport

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrCounterUnset rejects any signing or encoding attempt on components whose
// counter was never resolved from the chain.
var ErrCounterUnset = errors.New("order counter not resolved")

// CounterSource provides the offerer's live settlement counter. The counter
// invalidates every order signed under an earlier value, so signing and
// cancellation must never assume zero for an offerer with history.
type CounterSource interface {
	Counter(ctx context.Context, offerer common.Address) (*big.Int, error)
}

// ChainCounterSource reads the counter from the settlement contract.
type ChainCounterSource struct {
	client   *ethclient.Client
	contract common.Address
}

// NewChainCounterSource dials an RPC endpoint and reads counters from the
// canonical settlement contract.
func NewChainCounterSource(rpcURL string) (*ChainCounterSource, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	return &ChainCounterSource{client: client, contract: ProtocolAddress}, nil
}

// Counter fetches the live on-chain counter for an offerer.
func (s *ChainCounterSource) Counter(ctx context.Context, offerer common.Address) (*big.Int, error) {
	data, err := EncodeGetCounter(offerer)
	if err != nil {
		return nil, err
	}

	result, err := s.client.CallContract(ctx, ethereum.CallMsg{
		To:   &s.contract,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("getCounter call failed: %w", err)
	}

	return DecodeCounter(result)
}

// Close releases the underlying RPC connection.
func (s *ChainCounterSource) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// ResolveCounter overwrites the components' counter with the live on-chain
// value. Must run before signing any order that is not provably fresh.
func ResolveCounter(ctx context.Context, src CounterSource, c *OrderComponents) error {
	counter, err := src.Counter(ctx, c.Offerer)
	if err != nil {
		return fmt.Errorf("failed to resolve counter: %w", err)
	}
	c.Counter = counter
	return nil
}
