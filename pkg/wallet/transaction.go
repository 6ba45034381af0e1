package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

const (
	// defaultWaitPollInterval is how often the head is checked while waiting
	defaultWaitPollInterval = time.Second
)

// WaitForBlock blocks until the chain head reaches target and returns the
// observed head. It polls the network at the given interval.
//
// Example:
//
//	head, err := WaitForBlock(ctx, client, target, time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
func WaitForBlock(ctx context.Context, chain Chain, target uint64, interval time.Duration) (uint64, error) {
	if interval <= 0 {
		interval = defaultWaitPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		head, err := chain.BlockNumber(ctx)
		if err == nil && head >= target {
			return head, nil
		}

		select {
		case <-ctx.Done():
			return 0, NewWalletError(ErrCodeTimeout, fmt.Sprintf("context cancelled while waiting for block %d", target), ctx.Err(), "")
		case <-ticker.C:
		}
	}
}

// IncludedInBlock reports whether the transaction with hash was mined in
// the given block.
func IncludedInBlock(ctx context.Context, chain Chain, hash common.Hash, block uint64) (bool, error) {
	receipt, err := chain.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, NewWalletError(ErrCodeRPCError, "failed to get receipt", err, "")
	}
	if receipt.BlockNumber == nil {
		return false, nil
	}
	return receipt.BlockNumber.Uint64() == block, nil
}
