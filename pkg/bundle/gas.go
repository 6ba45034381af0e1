// Package bundle turns a payload's unsigned transactions into a sponsored
// bundle: it prices gas off the latest base fee and prepends the funding
// transfer that pays for the executor's gas.
package bundle

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/lisanmuaddib/rescue-go/pkg/engine"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// GweiUnit is the number of wei in one gwei
	GweiUnit int64 = 1_000_000_000

	// DefaultPriorityFeeGwei is the tip paid on top of the base fee
	DefaultPriorityFeeGwei int64 = 31

	// FundingGasLimit is the intrinsic cost of a plain value transfer
	FundingGasLimit uint64 = 21000
)

// GweiToWei converts a whole number of gwei to wei.
func GweiToWei(gwei int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(gwei), big.NewInt(GweiUnit))
}

// Params are the fixed gas economics of a run.
type Params struct {
	// PriorityFee is added to the latest base fee to form the bundle gas price
	PriorityFee *big.Int

	// FundingGasLimit is the gas limit of the sponsor's funding transfer
	FundingGasLimit uint64
}

// DefaultParams returns a 31 gwei priority fee and a 21000 gas funding transfer.
func DefaultParams() Params {
	return Params{
		PriorityFee:     GweiToWei(DefaultPriorityFeeGwei),
		FundingGasLimit: FundingGasLimit,
	}
}

// Validate fills zero values with defaults and rejects negative fees.
func (p *Params) Validate() error {
	if p.PriorityFee == nil {
		p.PriorityFee = GweiToWei(DefaultPriorityFeeGwei)
	}
	if p.PriorityFee.Sign() < 0 {
		return fmt.Errorf("priority fee cannot be negative")
	}
	if p.FundingGasLimit == 0 {
		p.FundingGasLimit = FundingGasLimit
	}
	return nil
}

// GasPlan is the gas budget for one submission cycle.
type GasPlan struct {
	// GasLimits holds one estimate per payload transaction, in payload order
	GasLimits []uint64

	// TotalGas is the sum of GasLimits
	TotalGas *big.Int

	// GasPrice is PriorityFee + BaseFee, shared by every bundle transaction
	GasPrice *big.Int

	// BaseFee is the base fee of the block the price was derived from
	BaseFee *big.Int

	// BlockNumber is the block the price was derived from
	BlockNumber uint64

	// FundingGasLimit is the gas limit of the funding transfer. Zero means
	// the 21000 gas default.
	FundingGasLimit uint64
}

// GasChain is the chain access the estimator needs.
type GasChain interface {
	wallet.HeaderReader
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

// Estimator computes gas plans against live chain state.
type Estimator struct {
	chain  GasChain
	params Params
	logger *logrus.Logger
}

// NewEstimator creates an estimator with the given fixed parameters.
func NewEstimator(chain GasChain, params Params, logger *logrus.Logger) (*Estimator, error) {
	if chain == nil {
		return nil, fmt.Errorf("chain is required")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Estimator{chain: chain, params: params, logger: logger}, nil
}

// Params returns the estimator's fixed parameters.
func (e *Estimator) Params() Params {
	return e.params
}

// GasPrice returns PriorityFee plus the latest block's base fee, together
// with the base fee and block number it was derived from.
func (e *Estimator) GasPrice(ctx context.Context) (price, baseFee *big.Int, block uint64, err error) {
	baseFee, block, err = wallet.LatestBaseFee(ctx, e.chain)
	if err != nil {
		return nil, nil, 0, err
	}
	return new(big.Int).Add(e.params.PriorityFee, baseFee), baseFee, block, nil
}

// Estimate simulates every transaction against the current state, in
// parallel, and prices the bundle. Any failed estimate fails the plan.
func (e *Estimator) Estimate(ctx context.Context, txs []engine.UnsignedTransaction, executor common.Address) (*GasPlan, error) {
	if len(txs) == 0 {
		return nil, wallet.NewWalletError(wallet.ErrCodeGasEstimationFailed, "no transactions to estimate", nil, "")
	}

	limits := make([]uint64, len(txs))
	g, gctx := errgroup.WithContext(ctx)
	for i, tx := range txs {
		i, tx := i, tx
		g.Go(func() error {
			to := tx.To
			gas, err := e.chain.EstimateGas(gctx, ethereum.CallMsg{
				From:  tx.Sender(executor),
				To:    &to,
				Value: tx.ValueOrZero(),
				Data:  tx.Data,
			})
			if err != nil {
				return wallet.NewWalletError(
					wallet.ErrCodeGasEstimationFailed,
					fmt.Sprintf("failed to estimate transaction %d to %s", i, to.Hex()),
					err,
					"",
				)
			}
			limits[i] = gas
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := new(big.Int)
	for _, l := range limits {
		total.Add(total, new(big.Int).SetUint64(l))
	}

	price, baseFee, block, err := e.GasPrice(ctx)
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"block":          block,
		"base_fee_wei":   baseFee.String(),
		"gas_price_gwei": GasPriceToGwei(price),
		"total_gas":      total.String(),
	}).Debug("Gas plan computed")

	return &GasPlan{
		GasLimits:       limits,
		TotalGas:        total,
		GasPrice:        price,
		BaseFee:         baseFee,
		BlockNumber:     block,
		FundingGasLimit: e.params.FundingGasLimit,
	}, nil
}
