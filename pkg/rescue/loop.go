package rescue

import (
	"context"
	"fmt"
	"time"

	"github.com/lisanmuaddib/rescue-go/pkg/bundle"
	"github.com/lisanmuaddib/rescue-go/pkg/relay"
	"github.com/sirupsen/logrus"
)

const cancelTimeout = 10 * time.Second

type cycleOutcome struct {
	target     uint64
	resolution relay.Resolution
	sub        *relay.Submission
	err        error
}

// Run consumes new block numbers and submits one cycle per block until the
// bundle is included or a terminal condition is reached. Only one cycle is
// ever in flight: blocks that arrive meanwhile collapse into the newest one,
// and a block whose target is not above the last submitted target is
// skipped.
//
// A nil error means the bundle was included. Every other outcome aborts
// the run, withdraws pending submissions from the relay and returns an
// error: ErrNonceTooHigh, ErrMaxCycles, ErrBlockStreamClosed, a
// *SimulationError, a *relay.RelayError or the context error.
func (r *Runner) Run(ctx context.Context, blocks <-chan uint64, errs <-chan error) (*Result, error) {
	if state := r.State(); state.Terminal() {
		return nil, fmt.Errorf("%w: runner is %s", ErrRunFinished, state)
	}

	preview, err := r.Prepare(ctx)
	if err != nil {
		r.abort(err, false)
		return nil, err
	}

	var (
		cycles     int
		lastTarget uint64
		pending    uint64
		hasPending bool
		busy       bool
		closed     bool
		done       = make(chan cycleOutcome, 1)
	)

	start := func(head uint64) {
		target := head + r.cfg.FutureBlockOffset
		if target <= lastTarget {
			r.log.WithFields(logrus.Fields{
				"current_block": head,
				"target_block":  target,
			}).Debug("Skipping block, target already submitted")
			return
		}
		lastTarget = target
		cycles++
		busy = true
		r.metrics.CycleStarted(target)

		go func() {
			done <- r.cycle(ctx, preview, head, target)
		}()
	}

	finish := func(res *Result, err error) (*Result, error) {
		if res != nil {
			res.Cycles = cycles
		}
		return res, err
	}

	streamFailed := func(cause error) (*Result, error) {
		if busy {
			<-done
		}
		err := fmt.Errorf("block stream failed: %w", cause)
		r.abort(err, cycles > 0)
		return finish(nil, err)
	}

	for {
		if !busy && hasPending {
			hasPending = false
			start(pending)
			continue
		}
		if !busy && closed {
			r.abort(ErrBlockStreamClosed, cycles > 0)
			return finish(nil, ErrBlockStreamClosed)
		}

		select {
		case <-ctx.Done():
			if busy {
				<-done
			}
			err := fmt.Errorf("rescue interrupted: %w", ctx.Err())
			r.abort(err, cycles > 0)
			return finish(nil, err)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			return streamFailed(err)

		case head, ok := <-blocks:
			if !ok {
				// A failing stream reports its error before closing.
				if errs != nil {
					select {
					case err, ok := <-errs:
						if ok && err != nil {
							return streamFailed(err)
						}
						errs = nil
					default:
					}
				}
				blocks = nil
				closed = true
				continue
			}
			if busy {
				pending, hasPending = head, true
				continue
			}
			start(head)

		case out := <-done:
			busy = false
			if out.err != nil {
				r.abort(out.err, cycles > 0)
				return finish(nil, out.err)
			}

			r.metrics.Resolved(out.resolution)
			log := r.log.WithFields(logrus.Fields{
				"target_block": out.target,
				"resolution":   out.resolution.String(),
			})
			if out.sub != nil {
				log = log.WithField("bundle_hash", out.sub.BundleHash.Hex())
			}

			switch out.resolution {
			case relay.BundleIncluded:
				r.setState(StateDone)
				log.Infof("Congrats, included in %d", out.target)
				res := &Result{Resolution: out.resolution, Target: out.target}
				if out.sub != nil {
					res.BundleHash = out.sub.BundleHash
				}
				return finish(res, nil)

			case relay.AccountNonceTooHigh:
				log.Error("Nonce too high, bailing")
				r.abort(ErrNonceTooHigh, true)
				return finish(&Result{Resolution: out.resolution, Target: out.target}, ErrNonceTooHigh)

			default:
				r.setState(StateIdle)
				log.Infof("Not included in %d", out.target)
				if r.cfg.MaxCycles > 0 && cycles >= r.cfg.MaxCycles {
					r.abort(ErrMaxCycles, true)
					return finish(&Result{Resolution: out.resolution, Target: out.target}, ErrMaxCycles)
				}
			}
		}
	}
}

// cycle runs one submission for target and waits for its resolution.
func (r *Runner) cycle(ctx context.Context, preview *Preview, head, target uint64) cycleOutcome {
	out := cycleOutcome{target: target}
	r.setState(StateSubmitting)

	b, signed := preview.Bundle, preview.Signed
	if !r.cfg.StaticBundle {
		var err error
		b, signed, err = r.build(ctx)
		if err != nil {
			out.err = err
			return out
		}
	}

	sim, price, err := r.gate.Check(ctx, signed, head)
	if err != nil {
		r.metrics.SimulationFailed()
		bundle.LogTransactions(r.log, b)
		out.err = err
		return out
	}

	fields := logrus.Fields{
		"current_block":  head,
		"target_block":   target,
		"gas_price_gwei": bundle.GasPriceToGwei(price),
	}
	if reported, err := sim.GasPrice(); err == nil {
		fields["relay_gas_price_gwei"] = bundle.GasPriceToGwei(reported)
	}
	r.log.WithFields(fields).Info("Submitting bundle")

	sub, err := r.cfg.Relay.SendBundle(ctx, signed, target)
	if err != nil {
		out.err = err
		return out
	}
	out.sub = sub

	r.setState(StateWaitingForResolution)
	res, err := r.cfg.Relay.Wait(ctx, sub)
	if err != nil {
		out.err = err
		return out
	}
	out.resolution = res
	return out
}

// abort marks the run aborted and, once anything was submitted, withdraws
// pending submissions. The relay call gets its own deadline so it still
// runs after ctx ends.
func (r *Runner) abort(cause error, submitted bool) {
	r.setState(StateAborted)
	r.log.WithError(cause).Error("Rescue aborted")
	if !submitted {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()
	if err := r.cfg.Relay.CancelBundle(ctx); err != nil {
		r.log.WithError(err).Warn("Failed to cancel pending bundle")
	}
}
