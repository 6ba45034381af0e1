package wallet

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// NonceManager pins the starting nonce of every account for the lifetime
// of a rescue run. Every resubmitted bundle reuses the same nonces, so at
// most one version of it can ever land. The manager is safe for
// concurrent use.
type NonceManager struct {
	nonces map[common.Address]uint64 // first unconfirmed nonce per account
	mu     sync.Mutex
}

// NewNonceManager creates an empty nonce manager.
func NewNonceManager() *NonceManager {
	return &NonceManager{
		nonces: make(map[common.Address]uint64),
	}
}

// GetNonce returns the pinned nonce for account, fetching the confirmed
// transaction count from the chain the first time the account is seen.
func (nm *NonceManager) GetNonce(ctx context.Context, chain Chain, account common.Address) (uint64, error) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	if nonce, ok := nm.nonces[account]; ok {
		return nonce, nil
	}

	nonce, err := chain.NonceAt(ctx, account, nil)
	if err != nil {
		return 0, NewWalletError(ErrCodeRPCError, "failed to get nonce", err, "")
	}

	nm.nonces[account] = nonce
	return nonce, nil
}
