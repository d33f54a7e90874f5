package seaport

import "github.com/ethereum/go-ethereum/common"

// EIP-712 domain for the settlement contract.
const (
	DomainName    = "Seaport"
	DomainVersion = "1.6"
)

// Canonical protocol addresses. The contract is deployed at the same
// address on every supported chain.
var (
	// Settlement contract (Seaport 1.6).
	ProtocolAddress = common.HexToAddress("0x0000000000000068F116a894984e2DB1123eB395")

	// Marketplace signed zone used for restricted orders.
	ZoneAddress = common.HexToAddress("0x000056F7000000EcE9003ca63978907a00FFD100")

	// Conduit the marketplace routes asset transfers through. Token
	// approvals must target this address, not the settlement contract.
	ConduitAddress = common.HexToAddress("0x1E0049783F008A0085193E00003D00cd54003c71")

	// Conduit key embedded in orders to select the conduit above.
	ConduitKey = common.HexToHash("0x0000007b02230091a7ed01230072f7006a004d60a01aab9efa1e4f885b53ad9d")
)

// IsCanonicalProtocol reports whether addr is the expected settlement
// contract. Fulfillment and cancel paths refuse anything else.
func IsCanonicalProtocol(addr common.Address) bool {
	return addr == ProtocolAddress
}
