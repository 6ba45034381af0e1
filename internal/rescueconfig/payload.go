package rescueconfig

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lisanmuaddib/rescue-go/pkg/engine"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet"
	"github.com/sirupsen/logrus"
)

type PayloadConfig struct {
	Config   *RescueConfig
	Chain    wallet.Chain
	Executor common.Address
	Logger   *logrus.Logger
}

// ConfigurePayload builds the payload strategy named by the configuration.
func ConfigurePayload(config PayloadConfig) (engine.Payload, error) {
	cfg := config.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	log := config.Logger
	if log == nil {
		log = logrus.New()
	}

	if err := wallet.ValidateAddress(cfg.Recipient); err != nil {
		return nil, &ConfigError{Variable: EnvRecipient, Message: "invalid address", Err: err}
	}

	switch cfg.Strategy {
	case StrategyApproval721:
		log.WithField("contracts", cfg.NFTContracts).Debug("Using ERC-721 approval payload")
		p, err := engine.NewApproval721(cfg.Recipient, cfg.NFTContracts)
		if err != nil {
			return nil, &ConfigError{Variable: EnvNFTContracts, Message: "invalid approval payload", Err: err}
		}
		return p, nil

	case StrategyERC20:
		if config.Chain == nil {
			return nil, fmt.Errorf("chain is required for the %s strategy", StrategyERC20)
		}
		log.WithField("token", cfg.TokenAddress).Debug("Using ERC-20 transfer payload")
		p, err := engine.NewTransferERC20(config.Chain, config.Executor.Hex(), cfg.Recipient, cfg.TokenAddress)
		if err != nil {
			return nil, &ConfigError{Variable: EnvTokenAddress, Message: "invalid transfer payload", Err: err}
		}
		return p, nil
	}

	return nil, &ConfigError{Variable: EnvStrategy, Message: fmt.Sprintf("unknown strategy %q", cfg.Strategy)}
}
