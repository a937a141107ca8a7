package config

import (
	"errors"
	"time"
)

const (
	defaultConsistencyCheckInterval = 5 * time.Minute
	defaultConsistencyCheckWorkers  = 4
	defaultClaimDeliveryInterval    = 30 * time.Second
)

type PollerConfig struct {
	ConsistencyCheckInterval time.Duration `mapstructure:"consistency-check-interval"`
	ConsistencyCheckWorkers  int           `mapstructure:"consistency-check-workers"`
	// ClaimDeliveryInterval is how often unconfirmed claims are sent again.
	ClaimDeliveryInterval time.Duration `mapstructure:"claim-delivery-interval"`
}

func (cfg *PollerConfig) Validate() error {
	if cfg.ConsistencyCheckInterval <= 0 {
		cfg.ConsistencyCheckInterval = defaultConsistencyCheckInterval
	}

	if cfg.ClaimDeliveryInterval <= 0 {
		cfg.ClaimDeliveryInterval = defaultClaimDeliveryInterval
	}

	if cfg.ConsistencyCheckWorkers < 0 {
		return errors.New("consistency-check-workers must not be negative")
	}

	if cfg.ConsistencyCheckWorkers == 0 {
		cfg.ConsistencyCheckWorkers = defaultConsistencyCheckWorkers
	}

	return nil
}
