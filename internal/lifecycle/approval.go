package lifecycle

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Minimal ERC-721 surface for conduit approval.
const erc721ABIJSON = `[
  {
    "name": "isApprovedForAll",
    "type": "function",
    "stateMutability": "view",
    "inputs": [
      {"name": "owner", "type": "address"},
      {"name": "operator", "type": "address"}
    ],
    "outputs": [{"name": "", "type": "bool"}]
  },
  {
    "name": "setApprovalForAll",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "operator", "type": "address"},
      {"name": "approved", "type": "bool"}
    ],
    "outputs": []
  }
]`

var parsedERC721ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(erc721ABIJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid ERC-721 ABI: %v", err))
	}
	parsedERC721ABI = parsed
}

// isApprovedForAll reads whether operator may move owner's tokens in the
// collection.
func isApprovedForAll(ctx context.Context, backend Backend, contract, owner, operator common.Address) (bool, error) {
	data, err := parsedERC721ABI.Pack("isApprovedForAll", owner, operator)
	if err != nil {
		return false, fmt.Errorf("failed to pack isApprovedForAll: %w", err)
	}

	result, err := backend.CallContract(ctx, ethereum.CallMsg{
		To:   &contract,
		Data: data,
	}, nil)
	if err != nil {
		return false, fmt.Errorf("isApprovedForAll call failed: %w", err)
	}

	var approved bool
	if err := parsedERC721ABI.UnpackIntoInterface(&approved, "isApprovedForAll", result); err != nil {
		return false, fmt.Errorf("failed to unpack isApprovedForAll: %w", err)
	}
	return approved, nil
}

// encodeSetApprovalForAll builds the approval-grant calldata.
func encodeSetApprovalForAll(operator common.Address, approved bool) ([]byte, error) {
	data, err := parsedERC721ABI.Pack("setApprovalForAll", operator, approved)
	if err != nil {
		return nil, fmt.Errorf("failed to pack setApprovalForAll: %w", err)
	}
	return data, nil
}

var zeroValue = big.NewInt(0)
