// Package rescueconfig loads the rescue run configuration from the
// environment and selects the payload strategy.
package rescueconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lisanmuaddib/rescue-go/pkg/bundle"
	"github.com/lisanmuaddib/rescue-go/pkg/rescue"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet"
	"github.com/sirupsen/logrus"
)

// Environment variable names.
const (
	EnvExecutorKey     = "PRIVATE_KEY_EXECUTOR"
	EnvSponsorKey      = "PRIVATE_KEY_SPONSOR"
	EnvRelaySigningKey = "FLASHBOTS_RELAY_SIGNING_KEY"
	EnvRecipient       = "RECIPIENT"
	EnvNetwork         = "NETWORK"
	EnvRPCURL          = "ETHEREUM_RPC_URL"
	EnvInfuraAPIKey    = "INFURA_API_KEY"
	EnvRelayURL        = "RELAY_URL"
	EnvStrategy        = "STRATEGY"
	EnvNFTContracts    = "NFT_CONTRACTS"
	EnvTokenAddress    = "TOKEN_ADDRESS"
	EnvPriorityFeeGwei = "PRIORITY_FEE_GWEI"
	EnvBlocksInFuture  = "BLOCKS_IN_FUTURE"
	EnvMaxCycles       = "MAX_CYCLES"
	EnvStaticBundle    = "STATIC_BUNDLE"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	EnvMetricsAddr     = "METRICS_ADDR"
)

// Payload strategies.
const (
	StrategyApproval721 = "approval721"
	StrategyERC20       = "erc20"
)

const (
	// HashmasksAddress is the ERC-721 contract approved when no contract
	// list is configured
	HashmasksAddress = "0xC2C747E0F7004F9E8817Db2ca4997657a7746928"

	// localRPCURL is used on mainnet when no endpoint is configured
	localRPCURL = "http://127.0.0.1:8545"
)

type RescueConfig struct {
	// Keys
	ExecutorKey     string
	SponsorKey      string
	RelaySigningKey string

	// Payload
	Recipient    string
	Strategy     string
	NFTContracts []string
	TokenAddress string

	// Endpoints
	Network      string
	RPCURL       string
	InfuraAPIKey string
	RelayURL     string

	// Submission
	PriorityFeeGwei int64
	BlocksInFuture  uint64
	MaxCycles       int
	StaticBundle    bool

	// Observability
	LogLevel    string
	LogFormat   string
	MetricsAddr string

	Logger *logrus.Logger
}

// NewRescueConfig reads the configuration from the environment, loading a
// .env file first when one exists.
func NewRescueConfig() (*RescueConfig, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	priorityFee, err := strconv.ParseInt(getEnvOrDefault(EnvPriorityFeeGwei, strconv.FormatInt(bundle.DefaultPriorityFeeGwei, 10)), 10, 64)
	if err != nil {
		return nil, &ConfigError{Variable: EnvPriorityFeeGwei, Message: "must be a whole number of gwei", Err: err}
	}
	blocksInFuture, err := strconv.ParseUint(getEnvOrDefault(EnvBlocksInFuture, strconv.FormatUint(rescue.DefaultFutureBlockOffset, 10)), 10, 64)
	if err != nil {
		return nil, &ConfigError{Variable: EnvBlocksInFuture, Message: "must be a positive integer", Err: err}
	}
	maxCycles, err := strconv.Atoi(getEnvOrDefault(EnvMaxCycles, "0"))
	if err != nil {
		return nil, &ConfigError{Variable: EnvMaxCycles, Message: "must be an integer", Err: err}
	}
	staticBundle, err := strconv.ParseBool(getEnvOrDefault(EnvStaticBundle, "false"))
	if err != nil {
		return nil, &ConfigError{Variable: EnvStaticBundle, Message: "must be true or false", Err: err}
	}

	config := &RescueConfig{
		ExecutorKey:     os.Getenv(EnvExecutorKey),
		SponsorKey:      os.Getenv(EnvSponsorKey),
		RelaySigningKey: os.Getenv(EnvRelaySigningKey),

		Recipient:    strings.TrimSpace(os.Getenv(EnvRecipient)),
		Strategy:     strings.ToLower(getEnvOrDefault(EnvStrategy, StrategyApproval721)),
		NFTContracts: SplitList(getEnvOrDefault(EnvNFTContracts, HashmasksAddress)),
		TokenAddress: strings.TrimSpace(os.Getenv(EnvTokenAddress)),

		Network:      getEnvOrDefault(EnvNetwork, string(wallet.Goerli)),
		RPCURL:       os.Getenv(EnvRPCURL),
		InfuraAPIKey: os.Getenv(EnvInfuraAPIKey),
		RelayURL:     os.Getenv(EnvRelayURL),

		PriorityFeeGwei: priorityFee,
		BlocksInFuture:  blocksInFuture,
		MaxCycles:       maxCycles,
		StaticBundle:    staticBundle,

		LogLevel:    getEnvOrDefault(EnvLogLevel, "info"),
		LogFormat:   getEnvOrDefault(EnvLogFormat, "text"),
		MetricsAddr: os.Getenv(EnvMetricsAddr),

		Logger: logrus.New(),
	}

	return config, nil
}

// Validate checks every required value without touching the network. The
// first problem is returned as a *ConfigError naming its variable.
func (c *RescueConfig) Validate() error {
	required := []struct {
		name  string
		value string
		hint  string
	}{
		{EnvExecutorKey, c.ExecutorKey, "the Ethereum EOA with assets to be transferred"},
		{EnvSponsorKey, c.SponsorKey, "an Ethereum EOA with ETH to pay the block builder"},
		{EnvRelaySigningKey, c.RelaySigningKey, "any key, used only to authenticate with the relay"},
		{EnvRecipient, c.Recipient, "the address which will receive assets"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ConfigError{Variable: r.name, Message: "must be provided: " + r.hint}
		}
	}

	if err := wallet.ValidateAddress(c.Recipient); err != nil {
		return &ConfigError{Variable: EnvRecipient, Message: "invalid address", Err: err}
	}
	if _, err := wallet.LookupNetwork(c.Network); err != nil {
		return &ConfigError{Variable: EnvNetwork, Message: "unsupported network", Err: err}
	}

	switch c.Strategy {
	case StrategyApproval721:
		if len(c.NFTContracts) == 0 {
			return &ConfigError{Variable: EnvNFTContracts, Message: "at least one contract is required"}
		}
		for _, contract := range c.NFTContracts {
			if _, err := wallet.ParseAddress(contract); err != nil {
				return &ConfigError{Variable: EnvNFTContracts, Message: "invalid contract address", Err: err}
			}
		}
	case StrategyERC20:
		if c.TokenAddress == "" {
			return &ConfigError{Variable: EnvTokenAddress, Message: "must be provided for the erc20 strategy"}
		}
		if _, err := wallet.ParseAddress(c.TokenAddress); err != nil {
			return &ConfigError{Variable: EnvTokenAddress, Message: "invalid token address", Err: err}
		}
	default:
		return &ConfigError{Variable: EnvStrategy, Message: fmt.Sprintf("unknown strategy %q", c.Strategy)}
	}

	if c.PriorityFeeGwei < 0 {
		return &ConfigError{Variable: EnvPriorityFeeGwei, Message: "cannot be negative"}
	}
	if c.BlocksInFuture == 0 {
		return &ConfigError{Variable: EnvBlocksInFuture, Message: "must be at least 1"}
	}
	if c.MaxCycles < 0 {
		return &ConfigError{Variable: EnvMaxCycles, Message: "cannot be negative"}
	}
	return nil
}

// Keys holds the three signing keys of a run.
type Keys struct {
	Executor *wallet.KeyManager
	Sponsor  *wallet.KeyManager
	Relay    *wallet.KeyManager
}

// LoadKeys parses the configured private keys.
func (c *RescueConfig) LoadKeys() (*Keys, error) {
	executor, err := wallet.NewKeyManager(c.ExecutorKey)
	if err != nil {
		return nil, &ConfigError{Variable: EnvExecutorKey, Message: "invalid private key", Err: err}
	}
	sponsor, err := wallet.NewKeyManager(c.SponsorKey)
	if err != nil {
		return nil, &ConfigError{Variable: EnvSponsorKey, Message: "invalid private key", Err: err}
	}
	relayKey, err := wallet.NewKeyManager(c.RelaySigningKey)
	if err != nil {
		return nil, &ConfigError{Variable: EnvRelaySigningKey, Message: "invalid private key", Err: err}
	}
	if executor.GetAddress() == sponsor.GetAddress() {
		return nil, &ConfigError{Variable: EnvSponsorKey, Message: "sponsor must differ from the executor"}
	}
	return &Keys{Executor: executor, Sponsor: sponsor, Relay: relayKey}, nil
}

// NetworkConfig resolves the network defaults plus the endpoint overrides.
// ETHEREUM_RPC_URL wins over INFURA_API_KEY; mainnet without either falls
// back to a local node.
func (c *RescueConfig) NetworkConfig() (wallet.NetworkConfig, error) {
	netCfg, err := wallet.LookupNetwork(c.Network)
	if err != nil {
		return wallet.NetworkConfig{}, &ConfigError{Variable: EnvNetwork, Message: "unsupported network", Err: err}
	}

	switch {
	case c.RPCURL != "":
		netCfg.RPCURL = c.RPCURL
	case c.InfuraAPIKey != "":
		netCfg.RPCURL = wallet.InfuraURL(netCfg.Type, c.InfuraAPIKey)
	case netCfg.Type == wallet.Mainnet:
		netCfg.RPCURL = localRPCURL
	default:
		return wallet.NetworkConfig{}, &ConfigError{Variable: EnvRPCURL, Message: fmt.Sprintf("an RPC endpoint or %s is required on %s", EnvInfuraAPIKey, netCfg.Type)}
	}

	if c.RelayURL != "" {
		netCfg.RelayURL = c.RelayURL
	}
	return netCfg, nil
}

// GasParams returns the fixed gas economics of the run.
func (c *RescueConfig) GasParams() bundle.Params {
	return bundle.Params{
		PriorityFee:     bundle.GweiToWei(c.PriorityFeeGwei),
		FundingGasLimit: bundle.FundingGasLimit,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// SplitList splits a comma separated list, dropping blank entries.
func SplitList(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
