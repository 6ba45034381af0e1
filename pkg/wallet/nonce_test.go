package wallet_test

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet/wallettest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NonceManager", func() {
	var (
		chain   *wallettest.Chain
		account common.Address
		nm      *wallet.NonceManager
	)

	BeforeEach(func() {
		chain = wallettest.NewChain(100, nil)
		account = common.HexToAddress("0x0000000000000000000000000000000000000abc")
		chain.SetNonce(account, 7)
		nm = wallet.NewNonceManager()
	})

	It("pins the first observed nonce", func() {
		ctx := context.Background()
		n, err := nm.GetNonce(ctx, chain, account)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(uint64(7)))

		chain.SetNonce(account, 8)
		n, err = nm.GetNonce(ctx, chain, account)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(uint64(7)))
		Expect(chain.NonceCalls).To(Equal(1))
	})
})
