package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const (
	defaultCustodyTimeout       = 15 * time.Second
	defaultCustodyMaxRetryTimes = 3
	defaultCustodyRetryInterval = 500 * time.Millisecond
)

// CustodyConfig points at the service holding the vaults' assets.
type CustodyConfig struct {
	URL           string        `mapstructure:"url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetryTimes uint          `mapstructure:"max-retry-times"`
	RetryInterval time.Duration `mapstructure:"retry-interval"`
}

func (cfg *CustodyConfig) Validate() error {
	if cfg.URL == "" {
		return errors.New("custody url must be set")
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("invalid custody url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported custody url scheme %q", u.Scheme)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCustodyTimeout
	}

	if cfg.MaxRetryTimes == 0 {
		cfg.MaxRetryTimes = defaultCustodyMaxRetryTimes
	}

	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultCustodyRetryInterval
	}

	return nil
}
