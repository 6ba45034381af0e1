package wallet

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

// Chain is the subset of an Ethereum JSON-RPC client the rescue reads
// chain state through. *ethclient.Client satisfies it.
type Chain interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
}

var _ Chain = (*ethclient.Client)(nil)

// HeaderReader reads block headers.
type HeaderReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// NewChainClient dials the configured RPC endpoint and verifies that it
// serves the expected chain.
//
// Example:
//
//	cfg, _ := LookupNetwork("goerli")
//	cfg.RPCURL = InfuraURL(cfg.Type, apiKey)
//	client, err := NewChainClient(ctx, logger, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
func NewChainClient(ctx context.Context, log *logrus.Logger, config NetworkConfig) (*ethclient.Client, error) {
	if config.RPCURL == "" {
		return nil, NewWalletError(ErrCodeRPCError, "rpc url is empty", nil, config.Type)
	}

	client, err := dialWithRetry(ctx, log, config)
	if err != nil {
		return nil, NewWalletError(ErrCodeRPCError, "failed to connect to network", err, config.Type)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, NewWalletError(ErrCodeRPCError, "failed to get chain ID", err, config.Type)
	}
	if config.ChainID != 0 && chainID.Int64() != config.ChainID {
		client.Close()
		return nil, NewWalletError(
			ErrCodeInvalidNetwork,
			fmt.Sprintf("endpoint serves chain %s, expected %d", chainID, config.ChainID),
			nil,
			config.Type,
		)
	}

	log.WithFields(logrus.Fields{
		"network":  config.Type,
		"chain_id": chainID.String(),
	}).Debug("Connected to network")

	return client, nil
}

// LatestBaseFee returns the base fee and number of the latest block. The
// base fee is zero on chains that predate EIP-1559.
func LatestBaseFee(ctx context.Context, chain HeaderReader) (*big.Int, uint64, error) {
	head, err := chain.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, 0, NewWalletError(ErrCodeRPCError, "failed to fetch latest block", err, "")
	}
	baseFee := new(big.Int)
	if head.BaseFee != nil {
		baseFee.Set(head.BaseFee)
	}
	return baseFee, head.Number.Uint64(), nil
}

// dialWithRetry attempts to connect to the network with retry mechanism.
// It will retry failed connection attempts based on the network configuration.
func dialWithRetry(ctx context.Context, log *logrus.Logger, config NetworkConfig) (*ethclient.Client, error) {
	var client *ethclient.Client
	var err error

	for i := 0; i <= config.MaxRetries; i++ {
		client, err = ethclient.DialContext(ctx, config.RPCURL)
		if err == nil {
			return client, nil
		}

		if i < config.MaxRetries {
			log.WithFields(logrus.Fields{
				"network": config.Type,
				"attempt": i + 1,
				"error":   err,
			}).Debug("Retrying network connection")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(config.RetryDelay):
			}
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", config.MaxRetries, err)
}
