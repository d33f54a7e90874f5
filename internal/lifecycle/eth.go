package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/tidewater/seabridge/internal/wallet"
)

// Backend is the subset of the RPC client the controller needs.
// *ethclient.Client satisfies it; tests substitute a fake.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// DialBackend connects to an RPC endpoint.
func DialBackend(rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	return client, nil
}

// ErrTxReverted reports an on-chain execution failure after inclusion.
var ErrTxReverted = errors.New("transaction reverted")

// sendTransaction signs and broadcasts a call from the wallet, returning the
// transaction hash. Gas is estimated with headroom so marginal estimates do
// not revert on state drift between estimation and inclusion.
func sendTransaction(ctx context.Context, backend Backend, w *wallet.Wallet, chainID *big.Int, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	from := w.Address()

	nonce, err := backend.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to fetch nonce: %w", err)
	}

	gasPrice, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to fetch gas price: %w", err)
	}

	gasLimit, err := backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("gas estimation failed: %w", err)
	}
	gasLimit += gasLimit / 5

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Value:    value,
		Data:     data,
	})

	signed, err := w.SignTx(tx, chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to broadcast: %w", err)
	}
	return signed.Hash(), nil
}

// waitReceipt polls for a receipt under the policy and checks the execution
// status.
func waitReceipt(ctx context.Context, backend Backend, policy PollPolicy, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt

	err := policy.Run(ctx, func(ctx context.Context) (bool, error) {
		r, err := backend.TransactionReceipt(ctx, txHash)
		if err != nil {
			// Not mined yet; keep polling.
			return false, nil
		}
		receipt = r
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, ErrTxReverted
	}
	return receipt, nil
}
