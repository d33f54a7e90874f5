package wallet

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrInvalidPrivateKey = errors.New("invalid private key format")
	ErrNilPrivateKey     = errors.New("private key is nil")
)

// Wallet holds a private key and its derived address for signing listings,
// cancellations, and transactions.
type Wallet struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewWalletFromHex creates a Wallet from a hex-encoded private key, with or
// without the "0x" prefix.
func NewWalletFromHex(hexKey string) (*Wallet, error) {
	cleanKey := strings.TrimPrefix(hexKey, "0x")
	cleanKey = strings.TrimPrefix(cleanKey, "0X")

	if len(cleanKey) != 64 {
		return nil, ErrInvalidPrivateKey
	}

	privateKey, err := crypto.HexToECDSA(cleanKey)
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, ErrInvalidPrivateKey
	}

	return &Wallet{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(*publicKey),
	}, nil
}

// Address returns the address derived from the private key.
func (w *Wallet) Address() common.Address {
	return w.address
}

// AddressHex returns the checksummed hex address.
func (w *Wallet) AddressHex() string {
	return w.address.Hex()
}

// Sign signs a 32-byte digest, returning a 65-byte [R || S || V] signature
// with V in {0, 1}.
func (w *Wallet) Sign(digest []byte) ([]byte, error) {
	if w.privateKey == nil {
		return nil, ErrNilPrivateKey
	}
	return crypto.Sign(digest, w.privateKey)
}

// SignTx signs a transaction for the given chain.
func (w *Wallet) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if w.privateKey == nil {
		return nil, ErrNilPrivateKey
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), w.privateKey)
}
