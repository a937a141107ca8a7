package ledger

import (
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
)

const (
	// DefaultUnitsPerToken is the number of smallest custody units in one whole token.
	DefaultUnitsPerToken uint64 = 1_000_000_000
	// DefaultRewardRate is the number of points one whole staked token earns per second.
	DefaultRewardRate = "1"
)

// Params are the accrual parameters shared by every record.
type Params struct {
	UnitsPerToken uint64
	// RewardRate is points per whole token per second.
	RewardRate sdkmath.LegacyDec
	// MinUnstakeInterval is the number of seconds that must pass since the
	// last update before an unstake is accepted. Zero disables the check.
	MinUnstakeInterval int64
}

func DefaultParams() Params {
	return Params{
		UnitsPerToken: DefaultUnitsPerToken,
		RewardRate:    sdkmath.LegacyMustNewDecFromStr(DefaultRewardRate),
	}
}

// NewParams builds params from their configured representation.
func NewParams(unitsPerToken uint64, rewardRate string, minUnstakeInterval time.Duration) (Params, error) {
	rate, err := sdkmath.LegacyNewDecFromStr(rewardRate)
	if err != nil {
		return Params{}, fmt.Errorf("invalid reward rate %q: %w", rewardRate, err)
	}

	p := Params{
		UnitsPerToken:      unitsPerToken,
		RewardRate:         rate,
		MinUnstakeInterval: int64(minUnstakeInterval / time.Second),
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

func (p Params) Validate() error {
	if p.UnitsPerToken == 0 {
		return errors.New("units per token must be positive")
	}
	if p.RewardRate.IsNil() || p.RewardRate.IsNegative() {
		return errors.New("reward rate must not be negative")
	}
	if p.MinUnstakeInterval < 0 {
		return errors.New("min unstake interval must not be negative")
	}
	return nil
}
