// Package seaport models settlement-protocol orders and builds, hashes, and
// encodes them for off-chain signing and on-chain execution.
package seaport

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ItemType tags what kind of asset an order item moves.
type ItemType uint8

const (
	ItemTypeNative          ItemType = 0
	ItemTypeERC20           ItemType = 1
	ItemTypeERC721          ItemType = 2
	ItemTypeERC1155         ItemType = 3
	ItemTypeERC721Criteria  ItemType = 4
	ItemTypeERC1155Criteria ItemType = 5
)

// OrderType selects fill and restriction semantics.
type OrderType uint8

const (
	OrderTypeFullOpen          OrderType = 0
	OrderTypePartialOpen       OrderType = 1
	OrderTypeFullRestricted    OrderType = 2
	OrderTypePartialRestricted OrderType = 3
)

// OfferItem is one asset the offerer gives up.
type OfferItem struct {
	ItemType             ItemType
	Token                common.Address
	IdentifierOrCriteria *big.Int
	StartAmount          *big.Int
	EndAmount            *big.Int
}

// ConsiderationItem is one asset the offerer requires in return, paid to a
// specific recipient.
type ConsiderationItem struct {
	ItemType             ItemType
	Token                common.Address
	IdentifierOrCriteria *big.Int
	StartAmount          *big.Int
	EndAmount            *big.Int
	Recipient            common.Address
}

// OrderParameters is the full field set the settlement protocol needs to
// describe a trade.
type OrderParameters struct {
	Offerer                         common.Address
	Zone                            common.Address
	Offer                           []OfferItem
	Consideration                   []ConsiderationItem
	OrderType                       OrderType
	StartTime                       *big.Int
	EndTime                         *big.Int
	ZoneHash                        common.Hash
	Salt                            *big.Int
	ConduitKey                      common.Hash
	TotalOriginalConsiderationItems *big.Int
}

// OrderComponents is OrderParameters plus the offerer's counter. The counter
// is mandatory for cancellation and must come from the chain for any order
// that is not demonstrably fresh.
type OrderComponents struct {
	OrderParameters
	Counter *big.Int
}

// SignedOrder pairs components with their off-chain typed-data signature.
type SignedOrder struct {
	Components      OrderComponents
	Signature       string
	ProtocolAddress common.Address
}
