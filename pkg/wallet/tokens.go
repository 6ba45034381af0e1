package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Standard ERC20 ABI defines the minimal ABI for interacting with ERC20 tokens.
const erc20ABIJSON = `[
	{
		"constant": true,
		"inputs": [{"name": "_owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "balance", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [],
		"name": "symbol",
		"outputs": [{"name": "", "type": "string"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [],
		"name": "decimals",
		"outputs": [{"name": "", "type": "uint8"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "_to", "type": "address"},
			{"name": "_value", "type": "uint256"}
		],
		"name": "transfer",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	}
]`

// ERC20ABI is the parsed minimal ERC20 ABI.
var ERC20ABI = mustParseABI(erc20ABIJSON)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("wallet: invalid built-in ABI: %v", err))
	}
	return parsed
}

// TokenMetadata holds ERC20 token information used for display.
type TokenMetadata struct {
	// Address is the contract address of the token
	Address common.Address

	// Symbol is the token's symbol (e.g., "DAI", "USDC")
	Symbol string

	// Decimals specifies the number of decimal places the token uses
	Decimals uint8
}

// PackERC20Transfer returns the calldata for transfer(to, amount).
func PackERC20Transfer(to common.Address, amount *big.Int) ([]byte, error) {
	data, err := ERC20ABI.Pack("transfer", to, amount)
	if err != nil {
		return nil, NewWalletError(ErrCodeInvalidABI, "failed to pack transfer", err, "")
	}
	return data, nil
}

// GetERC20Balance retrieves the token balance of account at the latest block.
//
// Example:
//
//	balance, err := GetERC20Balance(ctx, client, tokenAddr, userAddr)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Token balance: %s\n", balance.String())
func GetERC20Balance(ctx context.Context, chain Chain, token, account common.Address) (*big.Int, error) {
	out, err := callERC20(ctx, chain, token, "balanceOf", account)
	if err != nil {
		return nil, err
	}

	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, NewWalletError(ErrCodeContractError, "failed to convert balance to *big.Int", nil, "")
	}
	return balance, nil
}

// GetTokenMetadata reads symbol and decimals from an ERC20 contract.
func GetTokenMetadata(ctx context.Context, chain Chain, token common.Address) (*TokenMetadata, error) {
	symOut, err := callERC20(ctx, chain, token, "symbol")
	if err != nil {
		return nil, err
	}
	decOut, err := callERC20(ctx, chain, token, "decimals")
	if err != nil {
		return nil, err
	}

	symbol, _ := symOut[0].(string)
	decimals, _ := decOut[0].(uint8)

	return &TokenMetadata{
		Address:  token,
		Symbol:   symbol,
		Decimals: decimals,
	}, nil
}

func callERC20(ctx context.Context, chain Chain, token common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := ERC20ABI.Pack(method, args...)
	if err != nil {
		return nil, NewWalletError(ErrCodeInvalidABI, fmt.Sprintf("failed to pack %s", method), err, "")
	}

	raw, err := chain.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, NewWalletError(ErrCodeContractError, fmt.Sprintf("failed to call %s", method), err, "")
	}

	out, err := ERC20ABI.Unpack(method, raw)
	if err != nil {
		return nil, NewWalletError(ErrCodeContractError, fmt.Sprintf("failed to unpack %s", method), err, "")
	}
	if len(out) == 0 {
		return nil, NewWalletError(ErrCodeContractError, fmt.Sprintf("no value returned by %s", method), nil, "")
	}
	return out, nil
}
