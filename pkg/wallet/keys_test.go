package wallet_test

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// Well-known development key (hardhat account #0).
const devKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var _ = Describe("KeyManager", func() {
	It("derives the address with or without 0x prefix", func() {
		km, err := wallet.NewKeyManager(devKey)
		Expect(err).NotTo(HaveOccurred())
		Expect(km.GetAddress()).To(Equal(common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")))

		km2, err := wallet.NewKeyManager(devKey[2:])
		Expect(err).NotTo(HaveOccurred())
		Expect(km2.GetAddress()).To(Equal(km.GetAddress()))
	})

	It("rejects empty and malformed keys", func() {
		_, err := wallet.NewKeyManager("  ")
		Expect(wallet.IsWalletError(err, wallet.ErrCodeInvalidPrivateKey)).To(BeTrue())

		_, err = wallet.NewKeyManager("0xnothex")
		Expect(wallet.IsWalletError(err, wallet.ErrCodeInvalidPrivateKey)).To(BeTrue())
	})

	It("produces recoverable EIP-191 signatures", func() {
		km, err := wallet.NewKeyManager(devKey)
		Expect(err).NotTo(HaveOccurred())

		msg := []byte("0xdeadbeef")
		sig, err := km.SignText(msg)
		Expect(err).NotTo(HaveOccurred())
		Expect(sig).To(HaveLen(65))
		Expect(sig[64]).To(BeNumerically(">=", 27))

		raw := append([]byte(nil), sig...)
		raw[64] -= 27
		pub, err := crypto.SigToPub(accounts.TextHash(msg), raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(crypto.PubkeyToAddress(*pub)).To(Equal(km.GetAddress()))
	})

	It("signs transactions for a chain", func() {
		km, err := wallet.NewKeyManager(devKey)
		Expect(err).NotTo(HaveOccurred())

		to := common.HexToAddress("0x4da27a545c0c5B758a6BA100e3a049001de870f5")
		tx := types.NewTx(&types.LegacyTx{Nonce: 3, To: &to, Gas: 21000, GasPrice: big.NewInt(1), Value: big.NewInt(5)})
		signed, err := km.SignTx(tx, big.NewInt(5))
		Expect(err).NotTo(HaveOccurred())

		sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(5)), signed)
		Expect(err).NotTo(HaveOccurred())
		Expect(sender).To(Equal(km.GetAddress()))
	})
})
