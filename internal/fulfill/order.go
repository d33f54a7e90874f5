package fulfill

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tidewater/seabridge/internal/seaport"
)

// flexBig decodes a JSON number, decimal string, or 0x-hex string into a
// big.Int. The upstream API is inconsistent about which one it sends.
type flexBig struct {
	value *big.Int
}

func (f *flexBig) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return f.set(s)
	}
	return f.set(string(data))
}

func (f *flexBig) set(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		f.value = nil
		return nil
	}

	var (
		i  *big.Int
		ok bool
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		i, ok = new(big.Int).SetString(s[2:], 16)
	} else {
		i, ok = new(big.Int).SetString(s, 10)
	}
	if !ok {
		return fmt.Errorf("not a valid integer: %q", s)
	}
	f.value = i
	return nil
}

type rawOrderItem struct {
	ItemType             flexBig `json:"itemType"`
	Token                string  `json:"token"`
	IdentifierOrCriteria flexBig `json:"identifierOrCriteria"`
	StartAmount          flexBig `json:"startAmount"`
	EndAmount            flexBig `json:"endAmount"`
	Recipient            string  `json:"recipient"`
}

type rawOrderParameters struct {
	Offerer       string         `json:"offerer"`
	Zone          string         `json:"zone"`
	Offer         []rawOrderItem `json:"offer"`
	Consideration []rawOrderItem `json:"consideration"`
	OrderType     flexBig        `json:"orderType"`
	StartTime     flexBig        `json:"startTime"`
	EndTime       flexBig        `json:"endTime"`
	ZoneHash      string         `json:"zoneHash"`
	Salt          flexBig        `json:"salt"`
	ConduitKey    string         `json:"conduitKey"`
	TotalOriginal flexBig        `json:"totalOriginalConsiderationItems"`
	Counter       *flexBig       `json:"counter"`
}

type rawOrderRecord struct {
	OrderHash       string `json:"order_hash"`
	ProtocolAddress string `json:"protocol_address"`
	ProtocolData    struct {
		Parameters *rawOrderParameters `json:"parameters"`
		Signature  string              `json:"signature"`
	} `json:"protocol_data"`
}

// upstreamOrder is a marketplace order decoded into local types.
type upstreamOrder struct {
	Hash       string
	Protocol   common.Address
	Signature  string
	Components *seaport.OrderComponents
}

// decodeOrder parses a full order record including its protocol data.
func decodeOrder(raw json.RawMessage) (*upstreamOrder, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty order record")
	}

	var rec rawOrderRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("undecodable order record: %w", err)
	}
	params := rec.ProtocolData.Parameters
	if params == nil {
		return nil, errors.New("order record carried no protocol parameters")
	}

	components := &seaport.OrderComponents{
		OrderParameters: seaport.OrderParameters{
			Offerer:                         common.HexToAddress(params.Offerer),
			Zone:                            common.HexToAddress(params.Zone),
			OrderType:                       seaport.OrderType(bigToUint8(params.OrderType.value)),
			StartTime:                       orZero(params.StartTime.value),
			EndTime:                         orZero(params.EndTime.value),
			ZoneHash:                        common.HexToHash(params.ZoneHash),
			Salt:                            orZero(params.Salt.value),
			ConduitKey:                      common.HexToHash(params.ConduitKey),
			TotalOriginalConsiderationItems: orZero(params.TotalOriginal.value),
		},
	}
	if params.Counter != nil {
		components.Counter = params.Counter.value
	}

	for _, item := range params.Offer {
		components.Offer = append(components.Offer, seaport.OfferItem{
			ItemType:             seaport.ItemType(bigToUint8(item.ItemType.value)),
			Token:                common.HexToAddress(item.Token),
			IdentifierOrCriteria: orZero(item.IdentifierOrCriteria.value),
			StartAmount:          orZero(item.StartAmount.value),
			EndAmount:            orZero(item.EndAmount.value),
		})
	}
	for _, item := range params.Consideration {
		components.Consideration = append(components.Consideration, seaport.ConsiderationItem{
			ItemType:             seaport.ItemType(bigToUint8(item.ItemType.value)),
			Token:                common.HexToAddress(item.Token),
			IdentifierOrCriteria: orZero(item.IdentifierOrCriteria.value),
			StartAmount:          orZero(item.StartAmount.value),
			EndAmount:            orZero(item.EndAmount.value),
			Recipient:            common.HexToAddress(item.Recipient),
		})
	}
	if len(components.Offer) == 0 || len(components.Consideration) == 0 {
		return nil, errors.New("order record missing offer or consideration items")
	}
	if components.TotalOriginalConsiderationItems.Sign() == 0 {
		components.TotalOriginalConsiderationItems = big.NewInt(int64(len(components.Consideration)))
	}

	return &upstreamOrder{
		Hash:       rec.OrderHash,
		Protocol:   common.HexToAddress(rec.ProtocolAddress),
		Signature:  rec.ProtocolData.Signature,
		Components: components,
	}, nil
}

func orZero(i *big.Int) *big.Int {
	if i == nil {
		return new(big.Int)
	}
	return i
}

func bigToUint8(i *big.Int) uint8 {
	if i == nil || !i.IsUint64() || i.Uint64() > 255 {
		return 0
	}
	return uint8(i.Uint64())
}
