package wallet_test

import (
	"github.com/lisanmuaddib/rescue-go/pkg/wallet"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ValidateAddress", func() {
	DescribeTable("address formats",
		func(address string, valid bool) {
			err := wallet.ValidateAddress(address)
			if valid {
				Expect(err).NotTo(HaveOccurred())
				return
			}
			Expect(err).To(HaveOccurred())
			Expect(wallet.IsWalletError(err, wallet.ErrCodeInvalidAddress)).To(BeTrue())
		},
		Entry("checksummed", "0xC2C747E0F7004F9E8817Db2ca4997657a7746928", true),
		Entry("lowercase", "0xc2c747e0f7004f9e8817db2ca4997657a7746928", true),
		Entry("uppercase body", "0xC2C747E0F7004F9E8817DB2CA4997657A7746928", true),
		Entry("bad checksum", "0xc2C747E0F7004F9E8817Db2ca4997657a7746928", false),
		Entry("too short", "0xC2C747E0F7004F9E8817Db2ca4997657a774692", false),
		Entry("too long", "0xC2C747E0F7004F9E8817Db2ca4997657a774692811", false),
		Entry("missing prefix", "C2C747E0F7004F9E8817Db2ca4997657a7746928", false),
		Entry("non hex", "0xZ2C747E0F7004F9E8817Db2ca4997657a7746928", false),
		Entry("empty", "", false),
	)

	It("parses comma separated lists and skips blanks", func() {
		addrs, err := wallet.ParseAddressList("0xC2C747E0F7004F9E8817Db2ca4997657a7746928, ,0x4da27a545c0c5b758a6ba100e3a049001de870f5")
		Expect(err).NotTo(HaveOccurred())
		Expect(addrs).To(HaveLen(2))
		Expect(addrs[1].Hex()).To(Equal("0x4da27a545c0c5B758a6BA100e3a049001de870f5"))
	})

	It("rejects a list with one malformed entry", func() {
		_, err := wallet.ParseAddressList("0xC2C747E0F7004F9E8817Db2ca4997657a7746928,0x1234")
		Expect(wallet.IsWalletError(err, wallet.ErrCodeInvalidAddress)).To(BeTrue())
	})
})
