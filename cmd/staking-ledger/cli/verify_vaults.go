package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/babylonlabs-io/staking-ledger/consumer"
	"github.com/babylonlabs-io/staking-ledger/internal/auth"
	"github.com/babylonlabs-io/staking-ledger/internal/config"
	"github.com/babylonlabs-io/staking-ledger/internal/observability/tracing"
	"github.com/babylonlabs-io/staking-ledger/internal/services"
)

func VerifyVaultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify-vaults",
		Short: "Checks every vault aggregate against its stake records and custody",
		Args:  cobra.ExactArgs(0),
		RunE:  verifyVaults,
	}

	cmd.Flags().Int("workers", 0, "Number of vaults checked at once (default from config)")

	return cmd
}

type vaultReport struct {
	Vault             string  `json:"vault"`
	TotalStakedAmount uint64  `json:"total_staked_amount,string"`
	StakedSum         uint64  `json:"staked_sum,string"`
	StakeRecords      uint64  `json:"stake_records"`
	CustodyBalance    *uint64 `json:"custody_balance,omitempty,string"`
	Consistent        bool    `json:"consistent"`
}

func verifyVaults(cmd *cobra.Command, args []string) error {
	ctx := tracing.InjectTraceID(cmd.Context())

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}

	workers, err := cmd.Flags().GetInt("workers")
	if err != nil {
		return err
	}
	if workers > 0 {
		cfg.Poller.ConsistencyCheckWorkers = workers
	}

	dbClient, closeDb, err := newDbClient(ctx, &cfg.Db)
	if err != nil {
		return err
	}
	defer closeDb()

	// the audit never mutates, so operations need no authorization here
	authorizer, err := auth.New(config.AuthConfig{Mode: config.AuthModeTrusted})
	if err != nil {
		return err
	}

	service, err := services.NewService(cfg, dbClient, newCustodyClient(cfg), authorizer, consumer.NoopPublisher{})
	if err != nil {
		return err
	}

	reports, err := service.CheckAllVaults(ctx)
	if err != nil {
		return err
	}

	inconsistent := 0
	encoder := json.NewEncoder(os.Stdout)
	for _, report := range reports {
		if !report.Consistent() {
			inconsistent++
		}
		if err := encoder.Encode(vaultReport{
			Vault:             report.Vault,
			TotalStakedAmount: report.TotalStakedAmount,
			StakedSum:         report.StakedSum,
			StakeRecords:      report.StakeRecords,
			CustodyBalance:    report.CustodyBalance,
			Consistent:        report.Consistent(),
		}); err != nil {
			return err
		}
	}

	log.Ctx(ctx).Info().
		Int("vaults", len(reports)).
		Int("inconsistent", inconsistent).
		Msg("vault verification completed")

	if inconsistent > 0 {
		return fmt.Errorf("%d of %d vaults are inconsistent", inconsistent, len(reports))
	}
	return nil
}
