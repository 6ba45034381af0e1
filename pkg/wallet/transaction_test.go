package wallet_test

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet/wallettest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("WaitForBlock", func() {
	It("returns once the head reaches the target", func() {
		chain := wallettest.NewChain(5, nil)
		go func() {
			time.Sleep(20 * time.Millisecond)
			chain.SetHead(7)
		}()

		head, err := wallet.WaitForBlock(context.Background(), chain, 7, 5*time.Millisecond)
		Expect(err).NotTo(HaveOccurred())
		Expect(head).To(Equal(uint64(7)))
	})

	It("gives up when the context ends", func() {
		chain := wallettest.NewChain(5, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := wallet.WaitForBlock(ctx, chain, 7, 5*time.Millisecond)
		Expect(wallet.IsWalletError(err, wallet.ErrCodeTimeout)).To(BeTrue())
	})
})

var _ = Describe("IncludedInBlock", func() {
	It("matches the receipt block", func() {
		chain := wallettest.NewChain(5, nil)
		hash := common.HexToHash("0x01")
		chain.Mine(hash, 12)

		ok, err := wallet.IncludedInBlock(context.Background(), chain, hash, 12)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		ok, err = wallet.IncludedInBlock(context.Background(), chain, hash, 13)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("treats a missing receipt as not included", func() {
		chain := wallettest.NewChain(5, nil)
		ok, err := wallet.IncludedInBlock(context.Background(), chain, common.HexToHash("0x02"), 12)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("LatestBaseFee", func() {
	It("reads the base fee and number of the latest block", func() {
		chain := wallettest.NewChain(42, big.NewInt(7))
		fee, number, err := wallet.LatestBaseFee(context.Background(), chain)
		Expect(err).NotTo(HaveOccurred())
		Expect(fee.Int64()).To(Equal(int64(7)))
		Expect(number).To(Equal(uint64(42)))
	})

	It("reports zero on chains without a base fee", func() {
		fee, _, err := wallet.LatestBaseFee(context.Background(), wallettest.NewChain(1, nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(fee.Sign()).To(Equal(0))
	})
})
