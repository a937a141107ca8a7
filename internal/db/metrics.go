package db

import (
	"context"
	"time"

	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
	"github.com/babylonlabs-io/staking-ledger/internal/observability/metrics"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) SaveNewVault(ctx context.Context, vault *model.VaultRecord) error {
	return d.run("SaveNewVault", func() error {
		return d.db.SaveNewVault(ctx, vault)
	})
}

func (d *DbWithMetrics) GetVault(ctx context.Context, authority string) (result *model.VaultRecord, err error) {
	//nolint:errcheck
	d.run("GetVault", func() error {
		result, err = d.db.GetVault(ctx, authority)
		return err
	})
	return
}

func (d *DbWithMetrics) ListVaults(ctx context.Context) (result []*model.VaultRecord, err error) {
	//nolint:errcheck
	d.run("ListVaults", func() error {
		result, err = d.db.ListVaults(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveNewStakeRecord(ctx context.Context, record *model.StakeRecord) error {
	return d.run("SaveNewStakeRecord", func() error {
		return d.db.SaveNewStakeRecord(ctx, record)
	})
}

func (d *DbWithMetrics) GetStakeRecord(ctx context.Context, participant string) (result *model.StakeRecord, err error) {
	//nolint:errcheck
	d.run("GetStakeRecord", func() error {
		result, err = d.db.GetStakeRecord(ctx, participant)
		return err
	})
	return
}

func (d *DbWithMetrics) UpdateStakeRecord(ctx context.Context, participant string, fn StakeUpdateFunc) error {
	return d.run("UpdateStakeRecord", func() error {
		return d.db.UpdateStakeRecord(ctx, participant, fn)
	})
}

func (d *DbWithMetrics) ListPendingClaims(ctx context.Context) (result []*model.StakeRecord, err error) {
	//nolint:errcheck
	d.run("ListPendingClaims", func() error {
		result, err = d.db.ListPendingClaims(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) GetVaultSnapshot(ctx context.Context, authority string) (result *VaultSnapshot, err error) {
	//nolint:errcheck
	d.run("GetVaultSnapshot", func() error {
		result, err = d.db.GetVaultSnapshot(ctx, authority)
		return err
	})
	return
}

// run is private method that executes passed lambda function and send metrics data with spent time, method name
// and an error if any. It returns the error from the lambda function for convenience
func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	// a missing document or a rejected ledger operation is not a db failure
	failure := err != nil && !IsNotFoundError(err) && !IsDuplicateKeyError(err) && !isLedgerRejection(err)
	metrics.RecordDbLatency(duration, method, failure)
	return err
}
