package config

import (
	"errors"
	"fmt"
)

// RewardTokenConfig describes the token claimed points are exchanged for.
// It is attached to claim events for the minter.
type RewardTokenConfig struct {
	Name     string `mapstructure:"name"`
	Symbol   string `mapstructure:"symbol"`
	URI      string `mapstructure:"uri"`
	Decimals uint8  `mapstructure:"decimals"`
}

func (cfg *RewardTokenConfig) Validate() error {
	if cfg.Name == "" {
		return errors.New("reward token name must be set")
	}

	if cfg.Symbol == "" {
		return errors.New("reward token symbol must be set")
	}

	if cfg.Decimals > 18 {
		return fmt.Errorf("reward token decimals must be at most 18, got %d", cfg.Decimals)
	}

	return nil
}
