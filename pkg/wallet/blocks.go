package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"
)

const (
	// defaultBlockPollInterval is used when the endpoint cannot push new heads
	defaultBlockPollInterval = 2 * time.Second

	// defaultResubscribeBackoff caps the delay between resubscription attempts
	defaultResubscribeBackoff = 10 * time.Second
)

// BlockStreamOptions tunes BlockNumbers.
type BlockStreamOptions struct {
	// PollInterval is how often BlockNumber is polled on endpoints without
	// subscription support (plain HTTP).
	PollInterval time.Duration

	// ResubscribeBackoff caps the backoff between resubscribe attempts after
	// a dropped subscription.
	ResubscribeBackoff time.Duration
}

func (o BlockStreamOptions) withDefaults() BlockStreamOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = defaultBlockPollInterval
	}
	if o.ResubscribeBackoff <= 0 {
		o.ResubscribeBackoff = defaultResubscribeBackoff
	}
	return o
}

// BlockNumbers returns a lazy, unbounded stream of new block numbers. The
// stream prefers a newHeads subscription, resubscribing with backoff when
// it drops, and falls back to polling when the endpoint does not support
// notifications. Numbers are strictly increasing: duplicates and reorged
// heights are suppressed.
//
// The data channel is closed when ctx is cancelled or the stream fails;
// a failure is reported once on the error channel first.
func BlockNumbers(ctx context.Context, chain Chain, log *logrus.Logger, opts BlockStreamOptions) (<-chan uint64, <-chan error) {
	opts = opts.withDefaults()
	out := make(chan uint64)
	errChan := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errChan)

		headers := make(chan *types.Header)
		first, err := chain.SubscribeNewHead(ctx, headers)
		switch {
		case errors.Is(err, rpc.ErrNotificationsUnsupported):
			log.WithField("poll_interval", opts.PollInterval.String()).Debug("Endpoint has no subscriptions, polling for blocks")
			pollBlocks(ctx, chain, log, opts.PollInterval, out)
			return
		case err != nil:
			errChan <- NewWalletError(ErrCodeRPCError, "failed to subscribe to new heads", err, "")
			return
		}

		sub := event.ResubscribeErr(opts.ResubscribeBackoff, func(ctx context.Context, lastErr error) (event.Subscription, error) {
			if first != nil {
				s := first
				first = nil
				return s, nil
			}
			log.WithError(lastErr).Warn("Block subscription dropped, resubscribing")
			return chain.SubscribeNewHead(ctx, headers)
		})
		defer sub.Unsubscribe()

		var last uint64
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Err():
				return
			case head := <-headers:
				if head == nil || head.Number == nil {
					continue
				}
				number := head.Number.Uint64()
				if number <= last {
					continue
				}
				last = number
				select {
				case out <- number:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, errChan
}

// pollBlocks emits every block number above the one observed on the first
// poll. Poll failures are logged and retried on the next tick.
func pollBlocks(ctx context.Context, chain Chain, log *logrus.Logger, interval time.Duration, out chan<- uint64) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last uint64
	primed := false
	for {
		number, err := chain.BlockNumber(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Warn("Failed to poll block number")
		case !primed:
			last = number
			primed = true
		case number > last:
			last = number
			select {
			case out <- number:
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
