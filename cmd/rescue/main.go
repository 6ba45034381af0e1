package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lisanmuaddib/rescue-go/internal/rescueconfig"
	"github.com/lisanmuaddib/rescue-go/pkg/bundle"
	"github.com/lisanmuaddib/rescue-go/pkg/logging"
	"github.com/lisanmuaddib/rescue-go/pkg/metrics"
	"github.com/lisanmuaddib/rescue-go/pkg/relay"
	"github.com/lisanmuaddib/rescue-go/pkg/rescue"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const version = "0.1.0"

func main() {
	app := cli.NewApp()
	app.Name = "rescue"
	app.Usage = "rescue assets from a compromised account with a sponsored bundle"
	app.UsageText = app.Name + " [flags]"
	app.Version = version
	app.Flags = appFlags
	app.Action = run

	err := app.Run(os.Args)
	switch {
	case err == nil:
	case rescueconfig.IsConfigError(err, ""):
		logrus.WithError(err).Error("Invalid configuration")
	default:
		logrus.WithError(err).Error("Rescue failed")
	}
	os.Exit(rescue.ExitCode(err))
}

func run(c *cli.Context) error {
	cfg, err := rescueconfig.NewRescueConfig()
	if err != nil {
		return err
	}
	applyFlags(c, cfg)

	log, err := logging.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	cfg.Logger = log

	if err := cfg.Validate(); err != nil {
		return err
	}
	keys, err := cfg.LoadKeys()
	if err != nil {
		return err
	}
	netCfg, err := cfg.NetworkConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigChan:
			log.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	var recorder rescue.Recorder
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.New(reg)
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, reg, log); err != nil {
				log.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	chain, err := wallet.NewChainClient(ctx, log, netCfg)
	if err != nil {
		return err
	}
	defer chain.Close()

	nonces := wallet.NewNonceManager()
	relayClient, err := relay.NewClient(chain, keys.Relay, netCfg.RelayURL,
		relay.WithLogger(log),
		relay.WithNonceManager(nonces),
	)
	if err != nil {
		return err
	}

	payload, err := rescueconfig.ConfigurePayload(rescueconfig.PayloadConfig{
		Config:   cfg,
		Chain:    chain,
		Executor: keys.Executor.GetAddress(),
		Logger:   log,
	})
	if err != nil {
		return err
	}

	estimator, err := bundle.NewEstimator(chain, cfg.GasParams(), log)
	if err != nil {
		return err
	}

	runner, err := rescue.NewRunner(rescue.Config{
		Payload:   payload,
		Estimator: estimator,
		Relay:     relayClient,
		Signers: relay.Signers{
			Sponsor:  keys.Sponsor,
			Executor: keys.Executor,
		},
		FutureBlockOffset: cfg.BlocksInFuture,
		MaxCycles:         cfg.MaxCycles,
		StaticBundle:      cfg.StaticBundle,
		Logger:            log,
		Metrics:           recorder,
	})
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"network":  netCfg.Type,
		"relay":    netCfg.RelayURL,
		"strategy": cfg.Strategy,
		"run_id":   relayClient.RunID().String(),
	}).Info("Starting rescue")

	if _, err := runner.Prepare(ctx); err != nil {
		return err
	}

	blocks, errs := wallet.BlockNumbers(ctx, chain, log, wallet.BlockStreamOptions{})
	result, err := runner.Run(ctx, blocks, errs)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"target_block": result.Target,
		"bundle_hash":  result.BundleHash.Hex(),
		"cycles":       result.Cycles,
	}).Info("Rescue complete")
	return nil
}
