package main

import (
	"github.com/lisanmuaddib/rescue-go/internal/rescueconfig"
	"github.com/urfave/cli/v2"
)

// Private keys are read from the environment only.
var (
	networkFlag = &cli.StringFlag{
		Name:    "network",
		Usage:   "network to rescue on (mainnet, goerli, sepolia)",
		EnvVars: []string{rescueconfig.EnvNetwork},
	}
	rpcURLFlag = &cli.StringFlag{
		Name:    "rpc-url",
		Usage:   "Ethereum JSON-RPC endpoint; ws:// enables head subscriptions",
		EnvVars: []string{rescueconfig.EnvRPCURL},
	}
	relayURLFlag = &cli.StringFlag{
		Name:    "relay-url",
		Usage:   "bundle relay endpoint, overriding the network default",
		EnvVars: []string{rescueconfig.EnvRelayURL},
	}
	strategyFlag = &cli.StringFlag{
		Name:    "strategy",
		Usage:   "payload strategy (approval721, erc20)",
		EnvVars: []string{rescueconfig.EnvStrategy},
	}
	contractsFlag = &cli.StringFlag{
		Name:    "nft-contracts",
		Usage:   "comma separated ERC-721 contracts to approve",
		EnvVars: []string{rescueconfig.EnvNFTContracts},
	}
	tokenFlag = &cli.StringFlag{
		Name:    "token",
		Usage:   "ERC-20 token to transfer",
		EnvVars: []string{rescueconfig.EnvTokenAddress},
	}
	priorityFeeFlag = &cli.Int64Flag{
		Name:    "priority-fee-gwei",
		Usage:   "priority fee added to the base fee, in gwei",
		EnvVars: []string{rescueconfig.EnvPriorityFeeGwei},
	}
	blocksInFutureFlag = &cli.Uint64Flag{
		Name:    "blocks-in-future",
		Usage:   "how many blocks ahead of the head each bundle targets",
		EnvVars: []string{rescueconfig.EnvBlocksInFuture},
	}
	maxCyclesFlag = &cli.IntFlag{
		Name:    "max-cycles",
		Usage:   "give up after this many submissions (0 = never)",
		EnvVars: []string{rescueconfig.EnvMaxCycles},
	}
	staticBundleFlag = &cli.BoolFlag{
		Name:    "static-bundle",
		Usage:   "resubmit the first signed bundle instead of repricing every block",
		EnvVars: []string{rescueconfig.EnvStaticBundle},
	}
	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "log level (trace, debug, info, warn, error)",
		EnvVars: []string{rescueconfig.EnvLogLevel},
	}
	logFormatFlag = &cli.StringFlag{
		Name:    "log-format",
		Usage:   "log format (text, json)",
		EnvVars: []string{rescueconfig.EnvLogFormat},
	}
	metricsAddrFlag = &cli.StringFlag{
		Name:    "metrics-addr",
		Usage:   "serve Prometheus metrics on this address",
		EnvVars: []string{rescueconfig.EnvMetricsAddr},
	}
)

var appFlags = []cli.Flag{
	networkFlag,
	rpcURLFlag,
	relayURLFlag,
	strategyFlag,
	contractsFlag,
	tokenFlag,
	priorityFeeFlag,
	blocksInFutureFlag,
	maxCyclesFlag,
	staticBundleFlag,
	logLevelFlag,
	logFormatFlag,
	metricsAddrFlag,
}

// applyFlags overrides environment derived values with explicitly set flags.
func applyFlags(c *cli.Context, cfg *rescueconfig.RescueConfig) {
	if c.IsSet(networkFlag.Name) {
		cfg.Network = c.String(networkFlag.Name)
	}
	if c.IsSet(rpcURLFlag.Name) {
		cfg.RPCURL = c.String(rpcURLFlag.Name)
	}
	if c.IsSet(relayURLFlag.Name) {
		cfg.RelayURL = c.String(relayURLFlag.Name)
	}
	if c.IsSet(strategyFlag.Name) {
		cfg.Strategy = c.String(strategyFlag.Name)
	}
	if c.IsSet(contractsFlag.Name) {
		cfg.NFTContracts = rescueconfig.SplitList(c.String(contractsFlag.Name))
	}
	if c.IsSet(tokenFlag.Name) {
		cfg.TokenAddress = c.String(tokenFlag.Name)
	}
	if c.IsSet(priorityFeeFlag.Name) {
		cfg.PriorityFeeGwei = c.Int64(priorityFeeFlag.Name)
	}
	if c.IsSet(blocksInFutureFlag.Name) {
		cfg.BlocksInFuture = c.Uint64(blocksInFutureFlag.Name)
	}
	if c.IsSet(maxCyclesFlag.Name) {
		cfg.MaxCycles = c.Int(maxCyclesFlag.Name)
	}
	if c.IsSet(staticBundleFlag.Name) {
		cfg.StaticBundle = c.Bool(staticBundleFlag.Name)
	}
	if c.IsSet(logLevelFlag.Name) {
		cfg.LogLevel = c.String(logLevelFlag.Name)
	}
	if c.IsSet(logFormatFlag.Name) {
		cfg.LogFormat = c.String(logFormatFlag.Name)
	}
	if c.IsSet(metricsAddrFlag.Name) {
		cfg.MetricsAddr = c.String(metricsAddrFlag.Name)
	}
}
