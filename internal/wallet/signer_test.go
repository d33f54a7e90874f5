package wallet

import (
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tidewater/seabridge/internal/money"
	"github.com/tidewater/seabridge/internal/seaport"
)

// Test private key (DO NOT use in production)
const testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func testComponents(t *testing.T) *seaport.OrderComponents {
	t.Helper()

	w, err := NewWalletFromHex(testPrivateKey)
	if err != nil {
		t.Fatalf("failed to create wallet: %v", err)
	}

	components, err := seaport.BuildListing(seaport.ListingParams{
		Offerer:       w.Address(),
		TokenContract: common.HexToAddress("0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D"),
		TokenID:       big.NewInt(42),
		Price:         money.MustFromString("0.5"),
		DurationDays:  3,
		FeeBps:        250,
		FeeRecipient:  common.HexToAddress("0x0000a26b00c1F0DF003000390027140000fAa719"),
	}, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("failed to build components: %v", err)
	}
	components.Counter = big.NewInt(0)
	return components
}

func TestNewWalletFromHex(t *testing.T) {
	tests := []struct {
		name        string
		hexKey      string
		wantAddress string
		wantErr     bool
	}{
		{
			name:        "valid key without prefix",
			hexKey:      testPrivateKey,
			wantAddress: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		},
		{
			name:        "valid key with 0x prefix",
			hexKey:      "0x" + testPrivateKey,
			wantAddress: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		},
		{
			name:    "too short",
			hexKey:  "abc123",
			wantErr: true,
		},
		{
			name:    "not hex",
			hexKey:  strings.Repeat("z", 64),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWalletFromHex(tt.hexKey)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w.AddressHex() != tt.wantAddress {
				t.Errorf("address mismatch: got %s, want %s", w.AddressHex(), tt.wantAddress)
			}
		})
	}
}

func TestSignOrderRecoversSigner(t *testing.T) {
	w, err := NewWalletFromHex(testPrivateKey)
	if err != nil {
		t.Fatalf("failed to create wallet: %v", err)
	}
	signer := NewSigner(w, 1)
	components := testComponents(t)

	signed, err := signer.SignOrder(components)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	if !strings.HasPrefix(signed.Signature, "0x") || len(signed.Signature) != 132 {
		t.Fatalf("unexpected signature format: %s", signed.Signature)
	}
	if signed.ProtocolAddress != seaport.ProtocolAddress {
		t.Errorf("signed order must target the canonical protocol")
	}

	_, _, v, err := ParseSignature(signed.Signature)
	if err != nil {
		t.Fatalf("failed to parse signature: %v", err)
	}
	if v != 27 && v != 28 {
		t.Errorf("V not normalized: got %d", v)
	}

	// Recover the signer from the digest and compare addresses.
	digest, err := signer.OrderDigest(components)
	if err != nil {
		t.Fatalf("failed to compute digest: %v", err)
	}

	sigBytes := common.FromHex(signed.Signature)
	sigBytes[64] -= 27
	pubKey, err := crypto.SigToPub(digest.Bytes(), sigBytes)
	if err != nil {
		t.Fatalf("failed to recover public key: %v", err)
	}
	if recovered := crypto.PubkeyToAddress(*pubKey); recovered != w.Address() {
		t.Errorf("recovered %s, want %s", recovered.Hex(), w.AddressHex())
	}
}

func TestSignOrderRefusesNilCounter(t *testing.T) {
	w, err := NewWalletFromHex(testPrivateKey)
	if err != nil {
		t.Fatalf("failed to create wallet: %v", err)
	}
	signer := NewSigner(w, 1)

	components := testComponents(t)
	components.Counter = nil

	if _, err := signer.SignOrder(components); !errors.Is(err, ErrCounterUnset) {
		t.Errorf("got error %v, want ErrCounterUnset", err)
	}
}

func TestSignOrderRefusesEmptyOrder(t *testing.T) {
	w, err := NewWalletFromHex(testPrivateKey)
	if err != nil {
		t.Fatalf("failed to create wallet: %v", err)
	}
	signer := NewSigner(w, 1)

	components := testComponents(t)
	components.Offer = nil

	if _, err := signer.SignOrder(components); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("got error %v, want ErrInvalidOrder", err)
	}
}

func TestSignatureDiffersAcrossChains(t *testing.T) {
	w, err := NewWalletFromHex(testPrivateKey)
	if err != nil {
		t.Fatalf("failed to create wallet: %v", err)
	}
	components := testComponents(t)

	mainnet, err := NewSigner(w, 1).SignOrder(components)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	base, err := NewSigner(w, 8453).SignOrder(components)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	if mainnet.Signature == base.Signature {
		t.Error("signature must bind the chain id")
	}
}
