package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/babylonlabs-io/staking-ledger/internal/observability/metrics"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
	"github.com/babylonlabs-io/staking-ledger/internal/utils/poller"
	"github.com/babylonlabs-io/staking-ledger/pkg"
)

// ConsistencyReport compares a vault aggregate with the records bound to it
// and, when custody is configured, with what custody holds.
type ConsistencyReport struct {
	Vault             string
	TotalStakedAmount uint64
	StakedSum         uint64
	StakeRecords      uint64
	// CustodyBalance is nil when custody is not configured.
	CustodyBalance *uint64
}

func (r *ConsistencyReport) AggregateMatches() bool {
	return r.TotalStakedAmount == r.StakedSum
}

func (r *ConsistencyReport) CustodyCovers() bool {
	return r.CustodyBalance == nil || *r.CustodyBalance >= r.TotalStakedAmount
}

func (r *ConsistencyReport) Consistent() bool {
	return r.AggregateMatches() && r.CustodyCovers()
}

// CheckVaultConsistency recomputes the staked sum of a vault from a snapshot
// taken together with the vault aggregate. It only reads.
func (s *Service) CheckVaultConsistency(ctx context.Context, authority string) (*ConsistencyReport, *types.Error) {
	authority, err := normalize(authority, "authority")
	if err != nil {
		return nil, err
	}
	return s.checkVault(ctx, authority)
}

func (s *Service) checkVault(ctx context.Context, authority string) (*ConsistencyReport, *types.Error) {
	snapshot, dbErr := s.db.GetVaultSnapshot(ctx, authority)
	if dbErr != nil {
		return nil, toLedgerError(dbErr, "failed to snapshot vault %s", authority)
	}

	report := &ConsistencyReport{
		Vault:             authority,
		TotalStakedAmount: snapshot.Vault.TotalStakedAmount,
		StakedSum:         snapshot.StakedSum,
		StakeRecords:      snapshot.StakeRecords,
	}

	if s.custody != nil {
		balance, err := s.custody.GetVaultBalance(ctx, authority)
		if err != nil {
			return nil, types.NewInternalServiceError(
				fmt.Errorf("failed to get custody balance of vault %s: %w", authority, err),
			)
		}
		report.CustodyBalance = pkg.Ptr(balance)
	}

	metrics.RecordVaultTotalStaked(authority, report.TotalStakedAmount)

	logger := log.Ctx(ctx).With().
		Str("vault", authority).
		Uint64("total_staked_amount", report.TotalStakedAmount).
		Uint64("staked_sum", report.StakedSum).
		Logger()
	if !report.AggregateMatches() {
		metrics.RecordConsistencyViolation(metrics.ViolationAggregateMismatch)
		logger.Error().Msg("vault aggregate does not match its stake records")
	}
	if !report.CustodyCovers() {
		metrics.RecordConsistencyViolation(metrics.ViolationCustodyShortfall)
		logger.Error().Uint64("custody_balance", *report.CustodyBalance).Msg("custody holds less than the vault aggregate")
	}

	return report, nil
}

// CheckAllVaults audits every vault, running up to the configured number of
// checks at once. Reports are ordered by vault.
func (s *Service) CheckAllVaults(ctx context.Context) ([]*ConsistencyReport, error) {
	vaults, err := s.db.ListVaults(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaults: %w", err)
	}

	p := pool.NewWithResults[*ConsistencyReport]().
		WithContext(ctx).
		WithMaxGoroutines(s.cfg.Poller.ConsistencyCheckWorkers)
	for _, vault := range vaults {
		authority := vault.Authority
		p.Go(func(ctx context.Context) (*ConsistencyReport, error) {
			report, err := s.checkVault(ctx, authority)
			if err != nil {
				return nil, err
			}
			return report, nil
		})
	}

	reports, err := p.Wait()
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Vault < reports[j].Vault
	})
	if err != nil {
		return reports, fmt.Errorf("failed to check vaults: %w", err)
	}
	return reports, nil
}

// auditVaults is the poller body. Inconsistent vaults fail the run so the
// poller metrics show them.
func (s *Service) auditVaults(ctx context.Context) error {
	reports, err := s.CheckAllVaults(ctx)
	if err != nil {
		return err
	}

	inconsistent := 0
	for _, report := range reports {
		if !report.Consistent() {
			inconsistent++
		}
	}

	log.Ctx(ctx).Debug().
		Int("vaults", len(reports)).
		Int("inconsistent", inconsistent).
		Msg("vault audit completed")

	if inconsistent > 0 {
		return fmt.Errorf("%d of %d vaults are inconsistent", inconsistent, len(reports))
	}
	return nil
}

// StartConsistencyPoller periodically audits every vault until ctx is done
// or the returned poller is stopped.
func (s *Service) StartConsistencyPoller(ctx context.Context) *poller.Poller {
	auditPoller := poller.NewPoller(
		"vault-consistency",
		s.cfg.Poller.ConsistencyCheckInterval,
		metrics.RecordPollerDuration("vault_consistency", s.auditVaults),
	)
	go auditPoller.Start(ctx)
	return auditPoller
}
