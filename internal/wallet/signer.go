package wallet

import (
	"encoding/hex"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tidewater/seabridge/internal/seaport"
)

var (
	ErrInvalidOrder = errors.New("invalid order components")

	// ErrCounterUnset mirrors the seaport sentinel so callers can match on
	// either package.
	ErrCounterUnset = seaport.ErrCounterUnset
)

// Signer produces EIP-712 signatures over settlement orders for one chain.
type Signer struct {
	wallet   *Wallet
	chainID  *big.Int
	contract common.Address
}

// NewSigner creates a Signer bound to a chain ID and the canonical
// settlement contract.
func NewSigner(wallet *Wallet, chainID int64) *Signer {
	return &Signer{
		wallet:   wallet,
		chainID:  big.NewInt(chainID),
		contract: seaport.ProtocolAddress,
	}
}

// SignOrder signs order components and returns the signed order. The
// counter must already hold the live on-chain value; a nil counter is
// refused because the resulting signature would bind a guessed nonce.
func (s *Signer) SignOrder(components *seaport.OrderComponents) (*seaport.SignedOrder, error) {
	if err := validateComponents(components); err != nil {
		return nil, err
	}

	digest := seaport.SigningDigest(s.chainID, s.contract, components)

	signature, err := s.wallet.Sign(digest.Bytes())
	if err != nil {
		return nil, err
	}

	// Normalize V from 0/1 to 27/28.
	if signature[64] < 27 {
		signature[64] += 27
	}

	return &seaport.SignedOrder{
		Components:      *components,
		Signature:       "0x" + hex.EncodeToString(signature),
		ProtocolAddress: s.contract,
	}, nil
}

// OrderDigest returns the EIP-712 digest for components without signing.
func (s *Signer) OrderDigest(components *seaport.OrderComponents) (common.Hash, error) {
	if err := validateComponents(components); err != nil {
		return common.Hash{}, err
	}
	return seaport.SigningDigest(s.chainID, s.contract, components), nil
}

// DomainSeparator returns the EIP-712 domain separator for this signer's
// chain.
func (s *Signer) DomainSeparator() common.Hash {
	return seaport.DomainSeparator(s.chainID, s.contract)
}

// Wallet returns the underlying wallet.
func (s *Signer) Wallet() *Wallet {
	return s.wallet
}

func validateComponents(c *seaport.OrderComponents) error {
	if c == nil {
		return ErrInvalidOrder
	}
	if c.Counter == nil {
		return ErrCounterUnset
	}
	if len(c.Offer) == 0 || len(c.Consideration) == 0 {
		return ErrInvalidOrder
	}
	if c.StartTime == nil || c.EndTime == nil || c.Salt == nil {
		return ErrInvalidOrder
	}
	return nil
}

// ParseSignature splits a hex signature into (r, s, v).
func ParseSignature(sigHex string) (r, s *big.Int, v uint8, err error) {
	sigHex = strings.TrimPrefix(sigHex, "0x")
	if len(sigHex) != 130 {
		return nil, nil, 0, errors.New("invalid signature length")
	}

	sigBytes, err := hex.DecodeString(sigHex)
	if err != nil {
		return nil, nil, 0, err
	}

	r = new(big.Int).SetBytes(sigBytes[0:32])
	s = new(big.Int).SetBytes(sigBytes[32:64])
	v = sigBytes[64]

	return r, s, v, nil
}
