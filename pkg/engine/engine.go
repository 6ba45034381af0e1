// Package engine defines the payload strategies of a rescue: each one
// describes its intended effect and produces the unsigned transactions the
// executor account must send.
package engine

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// UnsignedTransaction is a transaction request produced by a Payload. It
// carries no gas or nonce information; those are filled in when the
// bundle is assembled and signed.
type UnsignedTransaction struct {
	To    common.Address
	Data  []byte
	Value *big.Int        // nil means zero
	From  *common.Address // nil means the executor account
}

// Sender returns the account the transaction is sent from.
func (tx UnsignedTransaction) Sender(executor common.Address) common.Address {
	if tx.From != nil {
		return *tx.From
	}
	return executor
}

// ValueOrZero returns a copy of the transferred value.
func (tx UnsignedTransaction) ValueOrZero() *big.Int {
	if tx.Value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(tx.Value)
}

// Payload is one asset-rescue strategy.
type Payload interface {
	// Description returns a human readable summary of the intended effect.
	Description(ctx context.Context) (string, error)
	// SponsoredTransactions returns the executor's transactions, in the
	// order they must be executed.
	SponsoredTransactions(ctx context.Context) ([]UnsignedTransaction, error)
}
