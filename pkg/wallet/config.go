package wallet

import (
	"fmt"
	"strings"
	"time"
)

// NetworkType identifies a supported Ethereum network.
type NetworkType string

const (
	// Mainnet is Ethereum mainnet
	Mainnet NetworkType = "mainnet"
	// Goerli is the Goerli testnet
	Goerli NetworkType = "goerli"
	// Sepolia is the Sepolia testnet
	Sepolia NetworkType = "sepolia"
)

// NetworkConfig holds network-specific connection parameters: where to
// read chain state from and which private relay accepts bundles.
type NetworkConfig struct {
	// Type identifies which network this config is for
	Type NetworkType

	// RPCURL is the HTTP(S) or WS(S) endpoint for chain reads. Left empty
	// in the defaults; filled from ETHEREUM_RPC_URL or INFURA_API_KEY.
	RPCURL string

	// RelayURL is the bundle relay endpoint
	RelayURL string

	// ChainID is the unique identifier for the network
	ChainID int64

	// MaxRetries specifies how many times to retry the initial dial
	MaxRetries int

	// RetryDelay is the duration to wait between dial attempts
	RetryDelay time.Duration
}

// DefaultNetworkConfigs returns pre-configured settings for the networks a
// Flashbots-compatible relay is available on.
func DefaultNetworkConfigs() []NetworkConfig {
	return []NetworkConfig{
		{
			Type:       Mainnet,
			RelayURL:   "https://relay.flashbots.net",
			ChainID:    1,
			MaxRetries: 3,
			RetryDelay: time.Second,
		},
		{
			Type:       Goerli,
			RelayURL:   "https://relay-goerli.epheph.com/",
			ChainID:    5,
			MaxRetries: 3,
			RetryDelay: time.Second,
		},
		{
			Type:       Sepolia,
			RelayURL:   "https://relay-sepolia.flashbots.net",
			ChainID:    11155111,
			MaxRetries: 3,
			RetryDelay: time.Second,
		},
	}
}

// LookupNetwork returns the default configuration for the named network.
// Matching is case-insensitive.
func LookupNetwork(name string) (NetworkConfig, error) {
	want := NetworkType(strings.ToLower(strings.TrimSpace(name)))
	for _, cfg := range DefaultNetworkConfigs() {
		if cfg.Type == want {
			return cfg, nil
		}
	}
	return NetworkConfig{}, NewWalletError(
		ErrCodeInvalidNetwork,
		fmt.Sprintf("unsupported network: %q", name),
		nil,
		"",
	)
}

// InfuraURL builds the Infura HTTPS endpoint for a network.
func InfuraURL(network NetworkType, apiKey string) string {
	return fmt.Sprintf("https://%s.infura.io/v3/%s", network, apiKey)
}
