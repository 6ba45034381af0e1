package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet"
	"golang.org/x/sync/errgroup"
)

const erc721ABIJSON = `[
	{
		"constant": true,
		"inputs": [
			{"internalType": "address", "name": "owner", "type": "address"},
			{"internalType": "address", "name": "operator", "type": "address"}
		],
		"name": "isApprovedForAll",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"internalType": "address", "name": "to", "type": "address"},
			{"internalType": "bool", "name": "approved", "type": "bool"}
		],
		"name": "setApprovalForAll",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// ERC721ABI is the subset of the ERC-721 ABI used by Approval721.
var ERC721ABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc721ABIJSON))
	if err != nil {
		panic(fmt.Sprintf("engine: invalid ERC721 ABI: %v", err))
	}
	return parsed
}()

// Approval721 grants recipient operator rights over every listed ERC-721
// collection with setApprovalForAll, so the NFTs can be moved out of the
// compromised account afterwards.
type Approval721 struct {
	recipient common.Address
	contracts []common.Address

	// addresses as given, for Description
	recipientText string
	contractText  []string
}

// NewApproval721 validates recipient and contract addresses and builds
// the strategy. No network access happens here.
func NewApproval721(recipient string, contracts []string) (*Approval721, error) {
	recipientAddr, err := wallet.ParseAddress(recipient)
	if err != nil {
		return nil, fmt.Errorf("bad recipient address: %w", err)
	}
	if len(contracts) == 0 {
		return nil, wallet.NewWalletError(wallet.ErrCodeInvalidAddress, "at least one ERC721 contract is required", nil, "")
	}

	seen := make(map[common.Address]bool, len(contracts))
	addrs := make([]common.Address, 0, len(contracts))
	texts := make([]string, 0, len(contracts))
	for _, c := range contracts {
		addr, err := wallet.ParseAddress(c)
		if err != nil {
			return nil, fmt.Errorf("bad ERC721 contract address: %w", err)
		}
		if addr == recipientAddr {
			return nil, wallet.NewWalletError(wallet.ErrCodeInvalidAddress, fmt.Sprintf("contract %s is the recipient", addr.Hex()), nil, "")
		}
		if seen[addr] {
			return nil, wallet.NewWalletError(wallet.ErrCodeInvalidAddress, fmt.Sprintf("duplicate contract %s", addr.Hex()), nil, "")
		}
		seen[addr] = true
		addrs = append(addrs, addr)
		texts = append(texts, strings.TrimSpace(c))
	}

	return &Approval721{
		recipient:     recipientAddr,
		contracts:     addrs,
		recipientText: strings.TrimSpace(recipient),
		contractText:  texts,
	}, nil
}

// Description implements Payload. Addresses are printed as they were
// passed to NewApproval721, not in checksummed form.
func (a *Approval721) Description(ctx context.Context) (string, error) {
	return fmt.Sprintf("Giving %s approval for: %s", a.recipientText, strings.Join(a.contractText, ", ")), nil
}

// SponsoredTransactions implements Payload. One transaction per contract,
// in the order the contracts were given.
func (a *Approval721) SponsoredTransactions(ctx context.Context) ([]UnsignedTransaction, error) {
	txs := make([]UnsignedTransaction, len(a.contracts))

	g, ctx := errgroup.WithContext(ctx)
	for i, contract := range a.contracts {
		i, contract := i, contract
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := ERC721ABI.Pack("setApprovalForAll", a.recipient, true)
			if err != nil {
				return wallet.NewWalletError(wallet.ErrCodeInvalidABI, "failed to pack setApprovalForAll", err, "")
			}
			txs[i] = UnsignedTransaction{To: contract, Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return txs, nil
}
