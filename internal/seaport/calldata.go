package seaport

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Minimal settlement-contract ABI: only the entry points the gateway
// encodes calls for.
const seaportABIJSON = `[
  {
    "inputs": [
      {
        "components": [
          {"name": "offerer", "type": "address"},
          {"name": "zone", "type": "address"},
          {
            "components": [
              {"name": "itemType", "type": "uint8"},
              {"name": "token", "type": "address"},
              {"name": "identifierOrCriteria", "type": "uint256"},
              {"name": "startAmount", "type": "uint256"},
              {"name": "endAmount", "type": "uint256"}
            ],
            "name": "offer",
            "type": "tuple[]"
          },
          {
            "components": [
              {"name": "itemType", "type": "uint8"},
              {"name": "token", "type": "address"},
              {"name": "identifierOrCriteria", "type": "uint256"},
              {"name": "startAmount", "type": "uint256"},
              {"name": "endAmount", "type": "uint256"},
              {"name": "recipient", "type": "address"}
            ],
            "name": "consideration",
            "type": "tuple[]"
          },
          {"name": "orderType", "type": "uint8"},
          {"name": "startTime", "type": "uint256"},
          {"name": "endTime", "type": "uint256"},
          {"name": "zoneHash", "type": "bytes32"},
          {"name": "salt", "type": "uint256"},
          {"name": "conduitKey", "type": "bytes32"},
          {"name": "counter", "type": "uint256"}
        ],
        "name": "orders",
        "type": "tuple[]"
      }
    ],
    "name": "cancel",
    "outputs": [{"name": "cancelled", "type": "bool"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [{"name": "offerer", "type": "address"}],
    "name": "getCounter",
    "outputs": [{"name": "counter", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

var parsedSeaportABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(seaportABIJSON))
	if err != nil {
		panic(fmt.Sprintf("seaport: invalid embedded ABI: %v", err))
	}
	parsedSeaportABI = parsed
}

// ABI returns the parsed settlement-contract ABI.
func ABI() abi.ABI {
	return parsedSeaportABI
}

// abiOfferItem mirrors the ABI tuple layout for packing.
type abiOfferItem struct {
	ItemType             uint8
	Token                common.Address
	IdentifierOrCriteria *big.Int
	StartAmount          *big.Int
	EndAmount            *big.Int
}

type abiConsiderationItem struct {
	ItemType             uint8
	Token                common.Address
	IdentifierOrCriteria *big.Int
	StartAmount          *big.Int
	EndAmount            *big.Int
	Recipient            common.Address
}

type abiOrderComponents struct {
	Offerer       common.Address
	Zone          common.Address
	Offer         []abiOfferItem
	Consideration []abiConsiderationItem
	OrderType     uint8
	StartTime     *big.Int
	EndTime       *big.Int
	ZoneHash      [32]byte
	Salt          *big.Int
	ConduitKey    [32]byte
	Counter       *big.Int
}

// EncodeCancel builds calldata for cancel(OrderComponents[]). Every order
// must carry a resolved counter: cancelling with a guessed counter would
// silently target a different (or nonexistent) order hash.
func EncodeCancel(orders []OrderComponents) ([]byte, error) {
	if len(orders) == 0 {
		return nil, errors.New("no orders to cancel")
	}

	packed := make([]abiOrderComponents, 0, len(orders))
	for i := range orders {
		c := &orders[i]
		if c.Counter == nil {
			return nil, ErrCounterUnset
		}
		packed = append(packed, toABIComponents(c))
	}

	data, err := parsedSeaportABI.Pack("cancel", packed)
	if err != nil {
		return nil, fmt.Errorf("failed to pack cancel: %w", err)
	}
	return data, nil
}

// EncodeGetCounter builds calldata for the getCounter view call.
func EncodeGetCounter(offerer common.Address) ([]byte, error) {
	data, err := parsedSeaportABI.Pack("getCounter", offerer)
	if err != nil {
		return nil, fmt.Errorf("failed to pack getCounter: %w", err)
	}
	return data, nil
}

// DecodeCounter unpacks the getCounter return value.
func DecodeCounter(result []byte) (*big.Int, error) {
	var counter *big.Int
	if err := parsedSeaportABI.UnpackIntoInterface(&counter, "getCounter", result); err != nil {
		return nil, fmt.Errorf("failed to unpack counter: %w", err)
	}
	return counter, nil
}

func toABIComponents(c *OrderComponents) abiOrderComponents {
	offer := make([]abiOfferItem, len(c.Offer))
	for i, item := range c.Offer {
		offer[i] = abiOfferItem{
			ItemType:             uint8(item.ItemType),
			Token:                item.Token,
			IdentifierOrCriteria: item.IdentifierOrCriteria,
			StartAmount:          item.StartAmount,
			EndAmount:            item.EndAmount,
		}
	}
	consideration := make([]abiConsiderationItem, len(c.Consideration))
	for i, item := range c.Consideration {
		consideration[i] = abiConsiderationItem{
			ItemType:             uint8(item.ItemType),
			Token:                item.Token,
			IdentifierOrCriteria: item.IdentifierOrCriteria,
			StartAmount:          item.StartAmount,
			EndAmount:            item.EndAmount,
			Recipient:            item.Recipient,
		}
	}

	return abiOrderComponents{
		Offerer:       c.Offerer,
		Zone:          c.Zone,
		Offer:         offer,
		Consideration: consideration,
		OrderType:     uint8(c.OrderType),
		StartTime:     c.StartTime,
		EndTime:       c.EndTime,
		ZoneHash:      [32]byte(c.ZoneHash),
		Salt:          c.Salt,
		ConduitKey:    [32]byte(c.ConduitKey),
		Counter:       c.Counter,
	}
}
