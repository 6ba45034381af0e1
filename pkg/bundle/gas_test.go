package bundle_test

import (
	"context"
	"errors"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/lisanmuaddib/rescue-go/pkg/bundle"
	"github.com/lisanmuaddib/rescue-go/pkg/engine"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet/wallettest"
	"github.com/sirupsen/logrus"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var (
	executor = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	sponsor  = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	nftA     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	nftB     = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func gwei(n int64) *big.Int {
	return bundle.GweiToWei(n)
}

var _ = Describe("Estimator", func() {
	var (
		ctx   context.Context
		chain *wallettest.Chain
		est   *bundle.Estimator
		txs   []engine.UnsignedTransaction
	)

	BeforeEach(func() {
		ctx = context.Background()
		chain = wallettest.NewChain(100, gwei(10))
		chain.EstimateFunc = func(msg ethereum.CallMsg) (uint64, error) {
			switch *msg.To {
			case nftA:
				return 46000, nil
			case nftB:
				return 52000, nil
			}
			return 21000, nil
		}

		var err error
		est, err = bundle.NewEstimator(chain, bundle.DefaultParams(), quietLogger())
		Expect(err).NotTo(HaveOccurred())

		txs = []engine.UnsignedTransaction{{To: nftA}, {To: nftB}}
	})

	It("prices gas as priority fee plus base fee", func() {
		plan, err := est.Estimate(ctx, txs, executor)
		Expect(err).NotTo(HaveOccurred())
		Expect(plan.GasPrice).To(Equal(gwei(41)))
		Expect(plan.BaseFee).To(Equal(gwei(10)))
		Expect(plan.BlockNumber).To(Equal(uint64(100)))
	})

	It("treats a missing base fee as zero", func() {
		chain.SetBaseFee(nil)
		plan, err := est.Estimate(ctx, txs, executor)
		Expect(err).NotTo(HaveOccurred())
		Expect(plan.GasPrice).To(Equal(gwei(31)))
		Expect(plan.BaseFee.Sign()).To(Equal(0))
	})

	It("keeps one limit per transaction in order and sums them", func() {
		plan, err := est.Estimate(ctx, txs, executor)
		Expect(err).NotTo(HaveOccurred())
		Expect(plan.GasLimits).To(Equal([]uint64{46000, 52000}))
		Expect(plan.TotalGas).To(Equal(big.NewInt(98000)))
	})

	It("estimates from the executor unless the transaction names a sender", func() {
		other := common.HexToAddress("0x00000000000000000000000000000000000000c3")
		txs[1].From = &other

		_, err := est.Estimate(ctx, txs, executor)
		Expect(err).NotTo(HaveOccurred())

		froms := map[common.Address]common.Address{}
		for _, msg := range chain.EstimateCalls {
			froms[*msg.To] = msg.From
		}
		Expect(froms[nftA]).To(Equal(executor))
		Expect(froms[nftB]).To(Equal(other))
	})

	It("fails the whole plan when any estimate fails", func() {
		chain.EstimateFunc = func(msg ethereum.CallMsg) (uint64, error) {
			if *msg.To == nftB {
				return 0, errors.New("execution reverted")
			}
			return 46000, nil
		}

		plan, err := est.Estimate(ctx, txs, executor)
		Expect(plan).To(BeNil())
		Expect(wallet.IsWalletError(err, wallet.ErrCodeGasEstimationFailed)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("execution reverted"))
	})

	It("refuses an empty transaction list", func() {
		_, err := est.Estimate(ctx, nil, executor)
		Expect(wallet.IsWalletError(err, wallet.ErrCodeGasEstimationFailed)).To(BeTrue())
	})

	It("reports header failures as RPC errors", func() {
		chain.HeaderErr = errors.New("connection refused")
		_, err := est.Estimate(ctx, txs, executor)
		Expect(wallet.IsWalletError(err, wallet.ErrCodeRPCError)).To(BeTrue())
	})

	It("rejects a negative priority fee", func() {
		_, err := bundle.NewEstimator(chain, bundle.Params{PriorityFee: big.NewInt(-1)}, nil)
		Expect(err).To(HaveOccurred())
	})

	It("fills defaults for zero params", func() {
		e, err := bundle.NewEstimator(chain, bundle.Params{}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Params().PriorityFee).To(Equal(gwei(31)))
		Expect(e.Params().FundingGasLimit).To(Equal(bundle.FundingGasLimit))
	})

	It("moves the gas price by exactly the base fee change", func() {
		first, err := est.Estimate(ctx, txs, executor)
		Expect(err).NotTo(HaveOccurred())

		chain.SetBaseFee(gwei(17))
		chain.SetHead(101)
		second, err := est.Estimate(ctx, txs, executor)
		Expect(err).NotTo(HaveOccurred())

		delta := new(big.Int).Sub(second.GasPrice, first.GasPrice)
		Expect(delta).To(Equal(new(big.Int).Sub(second.BaseFee, first.BaseFee)))
		Expect(delta).To(Equal(gwei(7)))
		Expect(second.BlockNumber).To(Equal(uint64(101)))
	})

	It("carries the funding gas limit into the assembled bundle", func() {
		e, err := bundle.NewEstimator(chain, bundle.Params{FundingGasLimit: 30000}, quietLogger())
		Expect(err).NotTo(HaveOccurred())

		plan, err := e.Estimate(ctx, txs, executor)
		Expect(err).NotTo(HaveOccurred())
		Expect(plan.FundingGasLimit).To(Equal(uint64(30000)))

		b, err := bundle.Assemble(txs, plan, sponsor, executor)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Funding().Tx.GasLimit).To(Equal(uint64(30000)))
	})
})
