package config

import "fmt"

const (
	// AuthModeSchnorr requires a BIP-340 signature from the signer of every operation.
	AuthModeSchnorr = "schnorr"
	// AuthModeTrusted accepts operations as already authorized by the host.
	AuthModeTrusted = "trusted"
)

type AuthConfig struct {
	Mode string `mapstructure:"mode"`
}

func (cfg *AuthConfig) Validate() error {
	if cfg.Mode == "" {
		cfg.Mode = AuthModeSchnorr
	}

	if cfg.Mode != AuthModeSchnorr && cfg.Mode != AuthModeTrusted {
		return fmt.Errorf("unsupported auth mode %q, should be one of {%s, %s}", cfg.Mode, AuthModeSchnorr, AuthModeTrusted)
	}

	return nil
}
