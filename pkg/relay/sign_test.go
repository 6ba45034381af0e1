package relay_test

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lisanmuaddib/rescue-go/pkg/bundle"
	"github.com/lisanmuaddib/rescue-go/pkg/relay"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet/wallettest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SignBundle", func() {
	var (
		ctx     context.Context
		chain   *wallettest.Chain
		nonces  *wallet.NonceManager
		signers relay.Signers
		b       *bundle.Bundle
		chainID = big.NewInt(5)
	)

	BeforeEach(func() {
		ctx = context.Background()
		chain = wallettest.NewChain(100, nil)
		nonces = wallet.NewNonceManager()
		signers = relay.Signers{Sponsor: mustKey(sponsorKeyHex), Executor: mustKey(executorKeyHex)}
		chain.SetNonce(signers.Sponsor.GetAddress(), 7)
		chain.SetNonce(signers.Executor.GetAddress(), 3)
		b = testBundle(signers.Sponsor.GetAddress(), signers.Executor.GetAddress(), 2)
	})

	It("signs every entry with its role's key and consecutive nonces", func() {
		signed, err := relay.SignBundle(ctx, chain, nonces, chainID, b, signers)
		Expect(err).NotTo(HaveOccurred())
		Expect(signed.Txs).To(HaveLen(3))

		wantSigner := []common.Address{signers.Sponsor.GetAddress(), signers.Executor.GetAddress(), signers.Executor.GetAddress()}
		wantNonce := []uint64{7, 3, 4}

		for i, stx := range signed.Txs {
			var tx types.Transaction
			Expect(tx.UnmarshalBinary(stx.Raw)).To(Succeed())

			sender, err := types.Sender(types.LatestSignerForChainID(chainID), &tx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sender).To(Equal(wantSigner[i]))
			Expect(stx.Signer).To(Equal(wantSigner[i]))
			Expect(tx.Nonce()).To(Equal(wantNonce[i]))
			Expect(stx.Nonce).To(Equal(wantNonce[i]))
			Expect(tx.Hash()).To(Equal(stx.Hash))
			Expect(tx.Type()).To(Equal(uint8(types.LegacyTxType)))
			Expect(tx.GasPrice()).To(Equal(bundle.GweiToWei(41)))
			Expect(*tx.To()).To(Equal(b.Entries[i].Tx.To))
			Expect(tx.Gas()).To(Equal(b.Entries[i].Tx.GasLimit))
		}
	})

	It("reuses pinned nonces across rebuilt bundles", func() {
		first, err := relay.SignBundle(ctx, chain, nonces, chainID, b, signers)
		Expect(err).NotTo(HaveOccurred())

		chain.SetNonce(signers.Executor.GetAddress(), 50)
		second, err := relay.SignBundle(ctx, chain, nonces, chainID, b, signers)
		Expect(err).NotTo(HaveOccurred())

		for i := range first.Txs {
			Expect(second.Txs[i].Nonce).To(Equal(first.Txs[i].Nonce))
		}
		Expect(chain.NonceCalls).To(Equal(2))
	})

	It("rejects keys that do not match the bundle accounts", func() {
		swapped := relay.Signers{Sponsor: signers.Executor, Executor: signers.Sponsor}
		_, err := relay.SignBundle(ctx, chain, nonces, chainID, b, swapped)
		Expect(err).To(MatchError(ContainSubstring("does not match")))
	})

	It("requires a key for every role", func() {
		_, err := relay.SignBundle(ctx, chain, nonces, chainID, b, relay.Signers{Sponsor: signers.Sponsor})
		Expect(err).To(MatchError(ContainSubstring("no executor key")))
	})

	It("exposes raw transactions and hashes in order", func() {
		signed, err := relay.SignBundle(ctx, chain, nonces, chainID, b, signers)
		Expect(err).NotTo(HaveOccurred())

		raw := signed.RawTransactions()
		hashes := signed.Hashes()
		Expect(raw).To(HaveLen(3))
		for i := range raw {
			Expect(raw[i]).To(HavePrefix("0x"))
			Expect(hashes[i]).To(Equal(signed.Txs[i].Hash))
		}
	})
})
