package bundle_test

import (
	"bytes"
	"math/big"
	"strings"

	"github.com/lisanmuaddib/rescue-go/pkg/bundle"
	"github.com/lisanmuaddib/rescue-go/pkg/engine"
	"github.com/sirupsen/logrus"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("GasPriceToGwei", func() {
	DescribeTable("formats wei as gwei with two truncated decimals",
		func(wei string, want string) {
			n, ok := new(big.Int).SetString(wei, 10)
			Expect(ok).To(BeTrue())
			Expect(bundle.GasPriceToGwei(n)).To(Equal(want))
		},
		Entry("whole gwei", "31000000000", "31.00"),
		Entry("fractional", "41123456789", "41.12"),
		Entry("truncates instead of rounding", "1999999999", "1.99"),
		Entry("below a centi-gwei", "9999999", "0.00"),
		Entry("zero", "0", "0.00"),
		Entry("large", "123456000000000000000", "123456000000.00"),
	)

	It("handles nil", func() {
		Expect(bundle.GasPriceToGwei(nil)).To(Equal("0.00"))
	})
})

var _ = Describe("LogTransactions", func() {
	It("writes one line per entry with role and sender", func() {
		plan := &bundle.GasPlan{
			GasLimits: []uint64{46000},
			TotalGas:  big.NewInt(46000),
			GasPrice:  gwei(31),
			BaseFee:   new(big.Int),
		}
		b, err := bundle.Assemble(nil, plan, sponsor, executor)
		Expect(err).To(HaveOccurred())
		Expect(b).To(BeNil())

		b, err = bundle.Assemble([]engine.UnsignedTransaction{{To: nftA}}, plan, sponsor, executor)
		Expect(err).NotTo(HaveOccurred())

		var buf bytes.Buffer
		logger := logrus.New()
		logger.SetOutput(&buf)
		logger.SetFormatter(&logrus.JSONFormatter{})

		bundle.LogTransactions(logger, b)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(HaveLen(2))
		Expect(lines[0]).To(ContainSubstring(`"role":"sponsor"`))
		Expect(lines[0]).To(ContainSubstring(sponsor.Hex()))
		Expect(lines[1]).To(ContainSubstring(`"role":"executor"`))
		Expect(lines[1]).To(ContainSubstring(`"gas_price_gwei":"31.00"`))
	})
})
