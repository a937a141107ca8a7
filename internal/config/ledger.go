package config

import (
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
)

const (
	defaultUnitsPerToken   uint64 = 1_000_000_000
	defaultRewardRate             = "1"
	defaultAddressPrefix          = "stake"
	defaultStakeRecordSeed        = "stake-record"
	defaultVaultSeed              = "vault"
)

type LedgerConfig struct {
	// UnitsPerToken is the number of smallest custody units in one whole token.
	UnitsPerToken uint64 `mapstructure:"units-per-token"`
	// RewardRate is points earned per whole token per second, as a decimal string.
	RewardRate string `mapstructure:"reward-rate"`
	// MinUnstakeInterval is the time that must pass since a record's last
	// update before it can unstake. Zero disables the lock.
	MinUnstakeInterval time.Duration `mapstructure:"min-unstake-interval"`
	// Address derivation
	AddressPrefix   string `mapstructure:"address-prefix"`
	StakeRecordSeed string `mapstructure:"stake-record-seed"`
	VaultSeed       string `mapstructure:"vault-seed"`
}

func (cfg *LedgerConfig) Validate() error {
	if cfg.UnitsPerToken == 0 {
		cfg.UnitsPerToken = defaultUnitsPerToken
	}

	if cfg.RewardRate == "" {
		cfg.RewardRate = defaultRewardRate
	}

	if cfg.AddressPrefix == "" {
		cfg.AddressPrefix = defaultAddressPrefix
	}

	if cfg.StakeRecordSeed == "" {
		cfg.StakeRecordSeed = defaultStakeRecordSeed
	}

	if cfg.VaultSeed == "" {
		cfg.VaultSeed = defaultVaultSeed
	}

	rate, err := sdkmath.LegacyNewDecFromStr(cfg.RewardRate)
	if err != nil {
		return fmt.Errorf("invalid reward-rate %q: %w", cfg.RewardRate, err)
	}

	if rate.IsNegative() {
		return errors.New("reward-rate must not be negative")
	}

	if cfg.MinUnstakeInterval < 0 {
		return errors.New("min-unstake-interval must not be negative")
	}

	if cfg.StakeRecordSeed == cfg.VaultSeed {
		return errors.New("stake-record-seed and vault-seed must differ")
	}

	return nil
}
