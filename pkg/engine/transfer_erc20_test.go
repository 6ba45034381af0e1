package engine_test

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/lisanmuaddib/rescue-go/pkg/engine"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet/wallettest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const (
	sender = "0x00000000000000000000000000000000000000e0"
	token  = "0x00000000000000000000000000000000000000f0"
)

func tokenChain(balance int64) *wallettest.Chain {
	chain := wallettest.NewChain(1, nil)
	chain.CallFunc = func(msg ethereum.CallMsg) ([]byte, error) {
		method, err := wallet.ERC20ABI.MethodById(msg.Data[:4])
		if err != nil {
			return nil, err
		}
		switch method.Name {
		case "balanceOf":
			return method.Outputs.Pack(big.NewInt(balance))
		case "symbol":
			return method.Outputs.Pack("USDT")
		default:
			return method.Outputs.Pack(uint8(6))
		}
	}
	return chain
}

var _ = Describe("TransferERC20", func() {
	It("fails on a malformed recipient without touching the network", func() {
		chain := tokenChain(10)
		_, err := engine.NewTransferERC20(chain, sender, "0xabc", token)
		Expect(wallet.IsWalletError(err, wallet.ErrCodeInvalidAddress)).To(BeTrue())
		Expect(chain.CallCount).To(Equal(0))
		Expect(chain.EstimateCalls).To(BeEmpty())
	})

	It("transfers the full balance to the recipient", func() {
		chain := tokenChain(1234)
		t, err := engine.NewTransferERC20(chain, sender, recipient, token)
		Expect(err).NotTo(HaveOccurred())

		txs, err := t.SponsoredTransactions(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(txs).To(HaveLen(1))
		Expect(txs[0].To).To(Equal(common.HexToAddress(token)))
		Expect(*txs[0].From).To(Equal(common.HexToAddress(sender)))

		args, err := wallet.ERC20ABI.Methods["transfer"].Inputs.Unpack(txs[0].Data[4:])
		Expect(err).NotTo(HaveOccurred())
		Expect(args[0]).To(Equal(common.HexToAddress(recipient)))
		Expect(args[1].(*big.Int).Int64()).To(Equal(int64(1234)))
	})

	It("refuses to build a transfer of nothing", func() {
		t, err := engine.NewTransferERC20(tokenChain(0), sender, recipient, token)
		Expect(err).NotTo(HaveOccurred())

		_, err = t.SponsoredTransactions(context.Background())
		Expect(err).To(MatchError(ContainSubstring("no token balance")))
	})

	It("describes balance, token and both parties", func() {
		t, err := engine.NewTransferERC20(tokenChain(55), sender, recipient, token)
		Expect(err).NotTo(HaveOccurred())

		desc, err := t.Description(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(desc).To(ContainSubstring("55 USDT"))
		Expect(desc).To(ContainSubstring(common.HexToAddress(sender).Hex()))
		Expect(desc).To(ContainSubstring(common.HexToAddress(recipient).Hex()))
	})
})
