package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/babylonlabs-io/staking-ledger/internal/config"
	"github.com/babylonlabs-io/staking-ledger/pkg"
)

const (
	kindStakeRecord = "stake-record"
	kindVault       = "vault"
)

func DeriveAddressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive-address [identity]",
		Short: "Prints the address of the stake record or vault owned by a hex x-only public key",
		Args:  cobra.ExactArgs(1),
		RunE:  deriveAddress,
	}

	cmd.Flags().String("kind", kindStakeRecord, fmt.Sprintf("record kind, %s or %s", kindStakeRecord, kindVault))

	return cmd
}

func deriveAddress(cmd *cobra.Command, args []string) error {
	kind, err := cmd.Flags().GetString("kind")
	if err != nil {
		return err
	}

	ledgerCfg := loadLedgerConfig()

	var seed string
	switch kind {
	case kindStakeRecord:
		seed = ledgerCfg.StakeRecordSeed
	case kindVault:
		seed = ledgerCfg.VaultSeed
	default:
		return fmt.Errorf("unknown kind %q", kind)
	}

	identity, err := pkg.NormalizeIdentity(args[0])
	if err != nil {
		return err
	}

	address, err := pkg.DeriveAddress(ledgerCfg.AddressPrefix, seed, identity)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), address)
	return nil
}

// loadLedgerConfig falls back to the default derivation settings when no
// config file can be read, so addresses can be derived offline.
func loadLedgerConfig() config.LedgerConfig {
	cfg, err := config.New(GetConfigPath())
	if err == nil {
		return cfg.Ledger
	}

	log.Debug().Err(err).Msg("using default address derivation settings")
	var ledgerCfg config.LedgerConfig
	// defaults always validate
	_ = ledgerCfg.Validate()
	return ledgerCfg
}
