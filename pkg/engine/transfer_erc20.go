package engine

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet"
)

// TransferERC20 moves the sender's whole balance of one ERC-20 token to
// the recipient.
type TransferERC20 struct {
	chain     wallet.Chain
	sender    common.Address
	recipient common.Address
	token     common.Address
}

// NewTransferERC20 validates the three addresses and builds the strategy.
// The balance is read lazily, when transactions are requested.
func NewTransferERC20(chain wallet.Chain, sender, recipient, token string) (*TransferERC20, error) {
	senderAddr, err := wallet.ParseAddress(sender)
	if err != nil {
		return nil, fmt.Errorf("bad sender address: %w", err)
	}
	recipientAddr, err := wallet.ParseAddress(recipient)
	if err != nil {
		return nil, fmt.Errorf("bad recipient address: %w", err)
	}
	tokenAddr, err := wallet.ParseAddress(token)
	if err != nil {
		return nil, fmt.Errorf("bad token address: %w", err)
	}
	if senderAddr == recipientAddr {
		return nil, wallet.NewWalletError(wallet.ErrCodeInvalidAddress, "sender and recipient are the same account", nil, "")
	}

	return &TransferERC20{
		chain:     chain,
		sender:    senderAddr,
		recipient: recipientAddr,
		token:     tokenAddr,
	}, nil
}

// Description implements Payload. It looks up the live balance and the
// token symbol.
func (t *TransferERC20) Description(ctx context.Context) (string, error) {
	balance, err := wallet.GetERC20Balance(ctx, t.chain, t.token, t.sender)
	if err != nil {
		return "", err
	}

	symbol := "tokens"
	if meta, err := wallet.GetTokenMetadata(ctx, t.chain, t.token); err == nil && meta.Symbol != "" {
		symbol = meta.Symbol
	}

	return fmt.Sprintf("Transfer ERC20 balance %s %s @ %s from %s to %s",
		balance.String(), symbol, t.token.Hex(), t.sender.Hex(), t.recipient.Hex()), nil
}

// SponsoredTransactions implements Payload.
func (t *TransferERC20) SponsoredTransactions(ctx context.Context) ([]UnsignedTransaction, error) {
	balance, err := wallet.GetERC20Balance(ctx, t.chain, t.token, t.sender)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return nil, fmt.Errorf("no token balance: %s holds nothing of %s", t.sender.Hex(), t.token.Hex())
	}

	data, err := wallet.PackERC20Transfer(t.recipient, balance)
	if err != nil {
		return nil, err
	}

	from := t.sender
	return []UnsignedTransaction{{To: t.token, Data: data, From: &from}}, nil
}
