package relay

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lisanmuaddib/rescue-go/pkg/bundle"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet"
)

// Signers holds the two keys a bundle is signed with.
type Signers struct {
	Sponsor  *wallet.KeyManager
	Executor *wallet.KeyManager
}

func (s Signers) forRole(role bundle.Role) (*wallet.KeyManager, error) {
	switch role {
	case bundle.RoleSponsor:
		if s.Sponsor == nil {
			return nil, fmt.Errorf("no sponsor key")
		}
		return s.Sponsor, nil
	case bundle.RoleExecutor:
		if s.Executor == nil {
			return nil, fmt.Errorf("no executor key")
		}
		return s.Executor, nil
	}
	return nil, fmt.Errorf("unknown role %s", role)
}

// SignedTx is one signed bundle transaction.
type SignedTx struct {
	Raw    []byte
	Hash   common.Hash
	Signer common.Address
	Nonce  uint64
}

// SignedBundle is a bundle ready to be sent to the relay.
type SignedBundle struct {
	Txs []SignedTx
}

// RawTransactions returns the 0x-prefixed signed transactions in order.
func (s *SignedBundle) RawTransactions() []string {
	raw := make([]string, len(s.Txs))
	for i, tx := range s.Txs {
		raw[i] = hexutil.Encode(tx.Raw)
	}
	return raw
}

// Hashes returns the transaction hashes in order.
func (s *SignedBundle) Hashes() []common.Hash {
	hashes := make([]common.Hash, len(s.Txs))
	for i, tx := range s.Txs {
		hashes[i] = tx.Hash
	}
	return hashes
}

// SignBundle signs every entry with the key for its role. Each signer's
// first transaction uses its pinned nonce from nonces; later transactions
// from the same signer take consecutive nonces.
func SignBundle(ctx context.Context, chain wallet.Chain, nonces *wallet.NonceManager, chainID *big.Int, b *bundle.Bundle, signers Signers) (*SignedBundle, error) {
	if b == nil || len(b.Entries) == 0 {
		return nil, fmt.Errorf("empty bundle")
	}
	if signers.Sponsor != nil && signers.Sponsor.GetAddress() != b.Sponsor {
		return nil, fmt.Errorf("sponsor key %s does not match bundle sponsor %s", signers.Sponsor.GetAddress().Hex(), b.Sponsor.Hex())
	}
	if signers.Executor != nil && signers.Executor.GetAddress() != b.Executor {
		return nil, fmt.Errorf("executor key %s does not match bundle executor %s", signers.Executor.GetAddress().Hex(), b.Executor.Hex())
	}

	next := make(map[common.Address]uint64)
	signed := &SignedBundle{Txs: make([]SignedTx, 0, len(b.Entries))}

	for i, e := range b.Entries {
		key, err := signers.forRole(e.Role)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		from := key.GetAddress()

		nonce, ok := next[from]
		if !ok {
			nonce, err = nonces.GetNonce(ctx, chain, from)
			if err != nil {
				return nil, err
			}
		}
		next[from] = nonce + 1

		to := e.Tx.To
		tx := types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: e.Tx.GasPrice,
			Gas:      e.Tx.GasLimit,
			To:       &to,
			Value:    e.Tx.Value,
			Data:     e.Tx.Data,
		})
		tx, err = key.SignTx(tx, chainID)
		if err != nil {
			return nil, err
		}

		raw, err := tx.MarshalBinary()
		if err != nil {
			return nil, wallet.NewWalletError(wallet.ErrCodeSigningFailed, "failed to encode transaction", err, "")
		}

		signed.Txs = append(signed.Txs, SignedTx{
			Raw:    raw,
			Hash:   tx.Hash(),
			Signer: from,
			Nonce:  nonce,
		})
	}

	return signed, nil
}
