// Package rescue drives a sponsored bundle to inclusion: it prepares and
// simulates the bundle once, then resubmits it for a future block on every
// new block until it lands or can never land.
package rescue

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lisanmuaddib/rescue-go/pkg/bundle"
	"github.com/lisanmuaddib/rescue-go/pkg/engine"
	"github.com/lisanmuaddib/rescue-go/pkg/relay"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultFutureBlockOffset is how many blocks ahead of the current head
	// each bundle targets.
	DefaultFutureBlockOffset uint64 = 2
)

// Relay is the bundle relay the loop submits through. *relay.Client
// satisfies it.
type Relay interface {
	Simulator
	SignBundle(ctx context.Context, b *bundle.Bundle, signers relay.Signers) (*relay.SignedBundle, error)
	SendBundle(ctx context.Context, signed *relay.SignedBundle, target uint64) (*relay.Submission, error)
	Wait(ctx context.Context, sub *relay.Submission) (relay.Resolution, error)
	CancelBundle(ctx context.Context) error
}

var _ Relay = (*relay.Client)(nil)

// Estimator prices a set of payload transactions.
type Estimator interface {
	Estimate(ctx context.Context, txs []engine.UnsignedTransaction, executor common.Address) (*bundle.GasPlan, error)
}

var _ Estimator = (*bundle.Estimator)(nil)

// Config wires a Runner.
type Config struct {
	Payload   engine.Payload
	Estimator Estimator
	Relay     Relay
	Signers   relay.Signers

	// FutureBlockOffset is added to each new head to get the target block
	FutureBlockOffset uint64

	// MaxCycles bounds the number of submissions; 0 means unbounded
	MaxCycles int

	// StaticBundle reuses the bundle signed in Prepare for every cycle
	// instead of repricing it against each new block
	StaticBundle bool

	Logger  *logrus.Logger
	Metrics Recorder
}

// Preview is the bundle built and simulated before the loop starts.
type Preview struct {
	Description       string
	Bundle            *bundle.Bundle
	Signed            *relay.SignedBundle
	Simulation        *relay.SimulationResult
	SimulatedGasPrice *big.Int
}

// Result describes how a run ended.
type Result struct {
	Resolution relay.Resolution
	Cycles     int
	Target     uint64
	BundleHash common.Hash
}

// Runner owns one rescue run.
type Runner struct {
	cfg      Config
	log      *logrus.Logger
	metrics  Recorder
	gate     *SimulationGate
	sponsor  common.Address
	executor common.Address

	mu      sync.Mutex
	state   State
	txs     []engine.UnsignedTransaction
	preview *Preview
}

// NewRunner validates cfg and returns an idle runner.
func NewRunner(cfg Config) (*Runner, error) {
	switch {
	case cfg.Payload == nil:
		return nil, fmt.Errorf("payload is required")
	case cfg.Estimator == nil:
		return nil, fmt.Errorf("estimator is required")
	case cfg.Relay == nil:
		return nil, fmt.Errorf("relay is required")
	case cfg.Signers.Sponsor == nil || cfg.Signers.Executor == nil:
		return nil, fmt.Errorf("sponsor and executor keys are required")
	case cfg.MaxCycles < 0:
		return nil, fmt.Errorf("max cycles cannot be negative")
	}
	if cfg.FutureBlockOffset == 0 {
		cfg.FutureBlockOffset = DefaultFutureBlockOffset
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopRecorder{}
	}

	sponsor := cfg.Signers.Sponsor.GetAddress()
	executor := cfg.Signers.Executor.GetAddress()
	if sponsor == executor {
		return nil, fmt.Errorf("sponsor and executor must be different accounts")
	}

	return &Runner{
		cfg:      cfg,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
		gate:     NewSimulationGate(cfg.Relay),
		sponsor:  sponsor,
		executor: executor,
		state:    StateIdle,
	}, nil
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}

// Prepare fetches the payload transactions, builds and simulates the first
// bundle and logs a summary of the run. It runs once; later calls return
// the same preview.
func (r *Runner) Prepare(ctx context.Context) (*Preview, error) {
	r.mu.Lock()
	if r.preview != nil {
		p := r.preview
		r.mu.Unlock()
		return p, nil
	}
	r.mu.Unlock()

	txs, err := r.cfg.Payload.SponsoredTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build payload transactions: %w", err)
	}
	if len(txs) == 0 {
		return nil, fmt.Errorf("payload produced no transactions")
	}

	r.mu.Lock()
	r.txs = txs
	r.mu.Unlock()

	b, signed, err := r.build(ctx)
	if err != nil {
		return nil, err
	}
	bundle.LogTransactions(r.log, b)

	sim, price, err := r.gate.Check(ctx, signed, b.Plan.BlockNumber)
	if err != nil {
		r.metrics.SimulationFailed()
		return nil, err
	}

	desc, err := r.cfg.Payload.Description(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to describe payload: %w", err)
	}

	r.log.Info(desc)
	r.log.WithFields(logrus.Fields{
		"executor":            r.executor.Hex(),
		"sponsor":             r.sponsor.Hex(),
		"simulated_gas_price": bundle.GasPriceToGwei(price),
		"gas_price_gwei":      bundle.GasPriceToGwei(b.Plan.GasPrice),
		"gas_used":            b.Plan.TotalGas.String(),
	}).Info("Bundle prepared")

	p := &Preview{
		Description:       desc,
		Bundle:            b,
		Signed:            signed,
		Simulation:        sim,
		SimulatedGasPrice: price,
	}

	r.mu.Lock()
	r.preview = p
	r.mu.Unlock()
	return p, nil
}

// build reprices, assembles and signs the bundle against the current chain
// state. Nonces stay pinned to the values seen on the first build.
func (r *Runner) build(ctx context.Context) (*bundle.Bundle, *relay.SignedBundle, error) {
	r.mu.Lock()
	txs := r.txs
	r.mu.Unlock()

	plan, err := r.cfg.Estimator.Estimate(ctx, txs, r.executor)
	if err != nil {
		return nil, nil, err
	}
	r.metrics.BundlePriced(plan.GasPrice)

	b, err := bundle.Assemble(txs, plan, r.sponsor, r.executor)
	if err != nil {
		return nil, nil, err
	}

	signed, err := r.cfg.Relay.SignBundle(ctx, b, r.cfg.Signers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sign bundle: %w", err)
	}
	return b, signed, nil
}
