package relay

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet"
	"github.com/sirupsen/logrus"
)

// Submission is one bundle accepted by the relay for a target block.
type Submission struct {
	Target     uint64
	BundleHash common.Hash
	Txs        []SignedTx

	client *Client
}

// Wait blocks until the chain passes the target block and reports what
// happened to the bundle there. Every transaction mined in the target
// block means BundleIncluded. Otherwise a signer whose nonce at the target
// is above its bundle nonce means AccountNonceTooHigh, and anything else
// is BlockPassedWithoutInclusion.
func (s *Submission) Wait(ctx context.Context) (Resolution, error) {
	chain := s.client.chain
	log := s.client.logger.WithFields(logrus.Fields{
		"target_block": s.Target,
		"bundle_hash":  s.BundleHash.Hex(),
	})

	if _, err := wallet.WaitForBlock(ctx, chain, s.Target, s.client.pollInterval); err != nil {
		return 0, err
	}

	included := true
	for _, tx := range s.Txs {
		ok, err := wallet.IncludedInBlock(ctx, chain, tx.Hash, s.Target)
		if err != nil {
			return 0, err
		}
		if !ok {
			included = false
			break
		}
	}
	if included {
		log.Debug("Bundle found in target block")
		return BundleIncluded, nil
	}

	target := new(big.Int).SetUint64(s.Target)
	seen := make(map[common.Address]uint64)
	for _, tx := range s.Txs {
		nonce, ok := seen[tx.Signer]
		if !ok {
			n, err := chain.NonceAt(ctx, tx.Signer, target)
			if err != nil {
				return 0, wallet.NewWalletError(wallet.ErrCodeRPCError, "failed to get nonce at target block", err, "")
			}
			seen[tx.Signer] = n
			nonce = n
		}
		if nonce > tx.Nonce {
			log.WithFields(logrus.Fields{
				"signer":       tx.Signer.Hex(),
				"bundle_nonce": tx.Nonce,
				"chain_nonce":  nonce,
			}).Debug("Signer nonce moved past bundle")
			return AccountNonceTooHigh, nil
		}
	}

	return BlockPassedWithoutInclusion, nil
}
