package config

import (
	"fmt"
	"net/url"
)

const (
	DbTypeMongo  = "mongo"
	DbTypeMemory = "memory"
)

type DbConfig struct {
	// Type selects the storage backend, mongo (default) or memory.
	Type     string `mapstructure:"type"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DbName   string `mapstructure:"db-name"`
	Address  string `mapstructure:"address"`
	// DirectConnection connects to a single replica set member, as used
	// by local single node replica sets.
	DirectConnection bool `mapstructure:"direct-connection"`
}

func (cfg *DbConfig) Validate() error {
	if cfg.Type == "" {
		cfg.Type = DbTypeMongo
	}

	switch cfg.Type {
	case DbTypeMemory:
		return nil
	case DbTypeMongo:
	default:
		return fmt.Errorf("unsupported db type %q", cfg.Type)
	}

	if cfg.DbName == "" {
		return fmt.Errorf("missing db name")
	}

	if cfg.Address == "" {
		return fmt.Errorf("missing db address")
	}

	u, err := url.Parse(cfg.Address)
	if err != nil {
		return fmt.Errorf("invalid db address: %w", err)
	}

	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return fmt.Errorf("unsupported db scheme %q", u.Scheme)
	}

	return nil
}
