package seaport

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EIP-712 type strings. Referenced struct types are appended to the
// top-level type in alphabetical order, as the encoding requires.
const (
	offerItemTypeString = "OfferItem(" +
		"uint8 itemType,address token,uint256 identifierOrCriteria," +
		"uint256 startAmount,uint256 endAmount)"

	considerationItemTypeString = "ConsiderationItem(" +
		"uint8 itemType,address token,uint256 identifierOrCriteria," +
		"uint256 startAmount,uint256 endAmount,address recipient)"

	orderComponentsTypeString = "OrderComponents(" +
		"address offerer,address zone,OfferItem[] offer," +
		"ConsiderationItem[] consideration,uint8 orderType," +
		"uint256 startTime,uint256 endTime,bytes32 zoneHash," +
		"uint256 salt,bytes32 conduitKey,uint256 counter)"
)

// Pre-computed type hashes.
var (
	eip712DomainTypeHash = crypto.Keccak256Hash(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
	)

	offerItemTypeHash = crypto.Keccak256Hash([]byte(offerItemTypeString))

	considerationItemTypeHash = crypto.Keccak256Hash([]byte(considerationItemTypeString))

	orderComponentsTypeHash = crypto.Keccak256Hash(
		[]byte(orderComponentsTypeString + considerationItemTypeString + offerItemTypeString),
	)
)

// DomainSeparator computes the EIP-712 domain separator for the settlement
// contract on a given chain.
func DomainSeparator(chainID *big.Int, verifyingContract common.Address) common.Hash {
	return crypto.Keccak256Hash(
		eip712DomainTypeHash.Bytes(),
		crypto.Keccak256Hash([]byte(DomainName)).Bytes(),
		crypto.Keccak256Hash([]byte(DomainVersion)).Bytes(),
		padTo32Bytes(chainID),
		padAddress(verifyingContract),
	)
}

// HashOrderComponents computes the EIP-712 struct hash of order components.
// This is the value the offerer signs (after domain binding) and the hash
// the settlement contract uses to identify the order.
func HashOrderComponents(c *OrderComponents) common.Hash {
	offerHashes := make([]byte, 0, len(c.Offer)*32)
	for i := range c.Offer {
		offerHashes = append(offerHashes, hashOfferItem(&c.Offer[i]).Bytes()...)
	}
	considerationHashes := make([]byte, 0, len(c.Consideration)*32)
	for i := range c.Consideration {
		considerationHashes = append(considerationHashes, hashConsiderationItem(&c.Consideration[i]).Bytes()...)
	}

	return crypto.Keccak256Hash(
		orderComponentsTypeHash.Bytes(),
		padAddress(c.Offerer),
		padAddress(c.Zone),
		crypto.Keccak256(offerHashes),
		crypto.Keccak256(considerationHashes),
		padUint8(uint8(c.OrderType)),
		padTo32Bytes(c.StartTime),
		padTo32Bytes(c.EndTime),
		c.ZoneHash.Bytes(),
		padTo32Bytes(c.Salt),
		c.ConduitKey.Bytes(),
		padTo32Bytes(c.Counter),
	)
}

// SigningDigest is the final digest an offerer signs:
// keccak256("\x19\x01" || domainSeparator || structHash).
func SigningDigest(chainID *big.Int, verifyingContract common.Address, c *OrderComponents) common.Hash {
	return crypto.Keccak256Hash(
		[]byte{0x19, 0x01},
		DomainSeparator(chainID, verifyingContract).Bytes(),
		HashOrderComponents(c).Bytes(),
	)
}

func hashOfferItem(item *OfferItem) common.Hash {
	return crypto.Keccak256Hash(
		offerItemTypeHash.Bytes(),
		padUint8(uint8(item.ItemType)),
		padAddress(item.Token),
		padTo32Bytes(item.IdentifierOrCriteria),
		padTo32Bytes(item.StartAmount),
		padTo32Bytes(item.EndAmount),
	)
}

func hashConsiderationItem(item *ConsiderationItem) common.Hash {
	return crypto.Keccak256Hash(
		considerationItemTypeHash.Bytes(),
		padUint8(uint8(item.ItemType)),
		padAddress(item.Token),
		padTo32Bytes(item.IdentifierOrCriteria),
		padTo32Bytes(item.StartAmount),
		padTo32Bytes(item.EndAmount),
		padAddress(item.Recipient),
	)
}

// padTo32Bytes left-pads a big.Int to 32 bytes.
func padTo32Bytes(value *big.Int) []byte {
	if value == nil {
		return make([]byte, 32)
	}
	bytes := value.Bytes()
	if len(bytes) >= 32 {
		return bytes[:32]
	}
	padded := make([]byte, 32)
	copy(padded[32-len(bytes):], bytes)
	return padded
}

// padAddress left-pads an address to 32 bytes.
func padAddress(addr common.Address) []byte {
	padded := make([]byte, 32)
	copy(padded[12:], addr.Bytes())
	return padded
}

// padUint8 left-pads a uint8 to 32 bytes.
func padUint8(value uint8) []byte {
	padded := make([]byte, 32)
	padded[31] = value
	return padded
}
