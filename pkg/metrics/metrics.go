// Package metrics exports rescue loop counters and gauges to Prometheus.
package metrics

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/lisanmuaddib/rescue-go/pkg/relay"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// Recorder implements rescue.Recorder on top of Prometheus collectors.
type Recorder struct {
	cycles             prometheus.Counter
	resolutions        *prometheus.CounterVec
	simulationFailures prometheus.Counter
	bundleGasPrice     prometheus.Gauge
	targetBlock        prometheus.Gauge
}

// New registers the rescue collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		cycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "rescue_cycles_total",
			Help: "The total number of bundle submission cycles started.",
		}),
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rescue_resolutions_total",
			Help: "The total number of resolved submissions by outcome.",
		}, []string{"resolution"}),
		simulationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "rescue_simulation_failures_total",
			Help: "The total number of bundle simulations that failed.",
		}),
		bundleGasPrice: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rescue_bundle_gas_price_wei",
			Help: "The gas price of the most recently built bundle, in wei.",
		}),
		targetBlock: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rescue_target_block",
			Help: "The block number targeted by the latest submission.",
		}),
	}
}

func (r *Recorder) CycleStarted(target uint64) {
	r.cycles.Inc()
	r.targetBlock.Set(float64(target))
}

func (r *Recorder) BundlePriced(gasPrice *big.Int) {
	if gasPrice == nil {
		return
	}
	f, _ := new(big.Float).SetInt(gasPrice).Float64()
	r.bundleGasPrice.Set(f)
}

func (r *Recorder) SimulationFailed() {
	r.simulationFailures.Inc()
}

func (r *Recorder) Resolved(res relay.Resolution) {
	r.resolutions.WithLabelValues(res.String()).Inc()
}

// Serve exposes gatherer on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, log *logrus.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Metrics server shutdown failed")
		}
	}()

	log.WithField("addr", addr).Info("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Cycles returns the cycle counter.
func (r *Recorder) Cycles() prometheus.Counter { return r.cycles }

// Resolutions returns the resolution counter vector.
func (r *Recorder) Resolutions() *prometheus.CounterVec { return r.resolutions }

// BundleGasPrice returns the bundle gas price gauge.
func (r *Recorder) BundleGasPrice() prometheus.Gauge { return r.bundleGasPrice }

// TargetBlock returns the target block gauge.
func (r *Recorder) TargetBlock() prometheus.Gauge { return r.targetBlock }
