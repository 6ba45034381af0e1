package relay_test

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/lisanmuaddib/rescue-go/pkg/relay"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet/wallettest"
	"golang.org/x/time/rate"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Client", func() {
	var (
		ctx     context.Context
		cancel  context.CancelFunc
		chain   *wallettest.Chain
		server  *fakeRelay
		client  *relay.Client
		signers relay.Signers
		signed  *relay.SignedBundle
		runID   = uuid.MustParse("6a1c2f4e-0c3b-4a8e-9d5b-2f0e1b7c9a11")
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		chain = wallettest.NewChain(100, nil)
		server = newFakeRelay()
		signers = relay.Signers{Sponsor: mustKey(sponsorKeyHex), Executor: mustKey(executorKeyHex)}

		var err error
		client, err = relay.NewClient(chain, mustKey(authKeyHex), server.URL,
			relay.WithLogger(quietLogger()),
			relay.WithRunID(runID),
			relay.WithRateLimit(rate.Inf, 1),
			relay.WithHTTPClient(&http.Client{Timeout: time.Second}),
		)
		Expect(err).NotTo(HaveOccurred())

		b := testBundle(signers.Sponsor.GetAddress(), signers.Executor.GetAddress(), 1)
		signed, err = client.SignBundle(ctx, b, signers)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
		cancel()
	})

	It("requires a chain, auth key and url", func() {
		_, err := relay.NewClient(nil, mustKey(authKeyHex), server.URL)
		Expect(err).To(HaveOccurred())
		_, err = relay.NewClient(chain, nil, server.URL)
		Expect(err).To(HaveOccurred())
		_, err = relay.NewClient(chain, mustKey(authKeyHex), "")
		Expect(err).To(HaveOccurred())
	})

	Context("Simulate", func() {
		BeforeEach(func() {
			server.on("eth_callBundle", func(map[string]interface{}) (interface{}, *rpcErr) {
				return map[string]interface{}{
					"bundleGasPrice": "41000000000",
					"bundleHash":     "0x01",
					"coinbaseDiff":   "3772000000000000",
					"totalGasUsed":   92000,
					"results": []map[string]interface{}{
						{"txHash": "0x02", "gasUsed": 21000},
						{"txHash": "0x03", "gasUsed": 71000},
					},
				}, nil
			})
		})

		It("signs the request with the relay key", func() {
			_, err := client.Simulate(ctx, signed, 101)
			Expect(err).NotTo(HaveOccurred())

			calls := server.recorded()
			Expect(calls).To(HaveLen(1))
			Expect(calls[0].Signer).To(Equal(mustKey(authKeyHex).GetAddress()))
		})

		It("simulates against the latest state for the given block", func() {
			_, err := client.Simulate(ctx, signed, 101)
			Expect(err).NotTo(HaveOccurred())

			params := server.recorded()[0].Params
			Expect(params["blockNumber"]).To(Equal("0x65"))
			Expect(params["stateBlockNumber"]).To(Equal("latest"))
			Expect(params["txs"]).To(HaveLen(2))
		})

		It("decodes the simulation result", func() {
			result, err := client.Simulate(ctx, signed, 101)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.TotalGasUsed).To(Equal(uint64(92000)))
			Expect(result.Results).To(HaveLen(2))

			idx, failed := result.FirstFailure()
			Expect(idx).To(Equal(-1))
			Expect(failed).To(BeNil())

			price, err := result.EffectiveGasPrice()
			Expect(err).NotTo(HaveOccurred())
			Expect(price.String()).To(Equal("41000000000"))
		})

		It("returns a RelayError for an error envelope", func() {
			server.on("eth_callBundle", func(map[string]interface{}) (interface{}, *rpcErr) {
				return nil, &rpcErr{Code: -32000, Message: "nonce too low"}
			})

			_, err := client.Simulate(ctx, signed, 101)
			var re *relay.RelayError
			Expect(errors.As(err, &re)).To(BeTrue())
			Expect(re.Code).To(Equal(-32000))
			Expect(re.Message).To(Equal("nonce too low"))
			Expect(re.Method).To(Equal("eth_callBundle"))
		})

		It("returns a RelayError for an HTTP failure", func() {
			server.failWith(http.StatusServiceUnavailable)

			_, err := client.Simulate(ctx, signed, 101)
			var re *relay.RelayError
			Expect(errors.As(err, &re)).To(BeTrue())
			Expect(re.StatusCode).To(Equal(http.StatusServiceUnavailable))
			Expect(relay.IsRelayError(err)).To(BeTrue())
		})
	})

	Context("SendBundle", func() {
		BeforeEach(func() {
			server.on("eth_sendBundle", func(map[string]interface{}) (interface{}, *rpcErr) {
				return map[string]string{"bundleHash": "0xabcdef"}, nil
			})
		})

		It("targets the block and tags the run's replacement uuid", func() {
			sub, err := client.SendBundle(ctx, signed, 102)
			Expect(err).NotTo(HaveOccurred())
			Expect(sub.Target).To(Equal(uint64(102)))
			Expect(sub.Txs).To(HaveLen(2))
			Expect(sub.BundleHash).NotTo(Equal(common.Hash{}))

			params := server.recorded()[0].Params
			Expect(params["blockNumber"]).To(Equal("0x66"))
			Expect(params["replacementUuid"]).To(Equal(runID.String()))
			Expect(client.RunID()).To(Equal(runID))
		})

		It("cancels by replacement uuid", func() {
			server.on("eth_cancelBundle", func(map[string]interface{}) (interface{}, *rpcErr) {
				return nil, nil
			})

			Expect(client.CancelBundle(ctx)).To(Succeed())
			call := server.recorded()[0]
			Expect(call.Method).To(Equal("eth_cancelBundle"))
			Expect(call.Params["replacementUuid"]).To(Equal(runID.String()))
		})
	})
})
