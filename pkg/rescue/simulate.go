package rescue

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/lisanmuaddib/rescue-go/pkg/relay"
)

// Simulator runs a signed bundle without submitting it.
type Simulator interface {
	Simulate(ctx context.Context, signed *relay.SignedBundle, blockNumber uint64) (*relay.SimulationResult, error)
}

// SimulationError is a bundle that failed simulation. Index is the first
// failing transaction, or -1 when the relay call itself failed.
type SimulationError struct {
	Block  uint64
	Index  int
	TxHash string
	Reason string
	Result *relay.SimulationResult
	Err    error
}

func (e *SimulationError) Error() string {
	msg := fmt.Sprintf("bundle simulation failed at block %d", e.Block)
	if e.Index >= 0 {
		msg += fmt.Sprintf(": transaction %d (%s): %s", e.Index, e.TxHash, e.Reason)
	} else if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *SimulationError) Unwrap() error {
	return e.Err
}

// IsSimulationError reports whether err wraps a *SimulationError.
func IsSimulationError(err error) bool {
	var se *SimulationError
	return errors.As(err, &se)
}

// SimulationGate refuses to let a bundle through unless it simulates
// cleanly.
type SimulationGate struct {
	sim Simulator
}

// NewSimulationGate wraps sim.
func NewSimulationGate(sim Simulator) *SimulationGate {
	return &SimulationGate{sim: sim}
}

// Check simulates signed at blockNumber and returns the result together
// with the effective gas price, coinbaseDiff / totalGasUsed.
func (g *SimulationGate) Check(ctx context.Context, signed *relay.SignedBundle, blockNumber uint64) (*relay.SimulationResult, *big.Int, error) {
	result, err := g.sim.Simulate(ctx, signed, blockNumber)
	if err != nil {
		return nil, nil, &SimulationError{Block: blockNumber, Index: -1, Err: err}
	}

	if idx, failed := result.FirstFailure(); failed != nil {
		reason := failed.Error
		if failed.Revert != "" {
			reason = failed.Revert
		}
		return result, nil, &SimulationError{
			Block:  blockNumber,
			Index:  idx,
			TxHash: failed.TxHash,
			Reason: reason,
			Result: result,
		}
	}

	price, err := result.EffectiveGasPrice()
	if err != nil {
		return result, nil, &SimulationError{Block: blockNumber, Index: -1, Reason: "unusable simulation result", Result: result, Err: err}
	}
	return result, price, nil
}
