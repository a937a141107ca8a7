package db_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/staking-ledger/internal/db"
	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
	"github.com/babylonlabs-io/staking-ledger/internal/ledger"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

// runStoreTests exercises a DbInterface implementation. setup returns an
// empty store for every subtest.
func runStoreTests(t *testing.T, setup func(t *testing.T) db.DbInterface) {
	ctx := context.Background()
	params := ledger.DefaultParams()

	t.Run("vault save and get", func(t *testing.T) {
		store := setup(t)
		vault := model.NewVaultRecord(randomIdentity())
		require.NoError(t, store.SaveNewVault(ctx, vault))

		got, err := store.GetVault(ctx, vault.Authority)
		require.NoError(t, err)
		assert.Equal(t, vault, got)

		err = store.SaveNewVault(ctx, model.NewVaultRecord(vault.Authority))
		assert.True(t, db.IsDuplicateKeyError(err))

		_, err = store.GetVault(ctx, randomIdentity())
		assert.True(t, db.IsNotFoundError(err))
	})

	t.Run("list vaults is ordered", func(t *testing.T) {
		store := setup(t)
		authorities := []string{"cc", "aa", "bb"}
		for _, a := range authorities {
			require.NoError(t, store.SaveNewVault(ctx, model.NewVaultRecord(a)))
		}

		vaults, err := store.ListVaults(ctx)
		require.NoError(t, err)
		require.Len(t, vaults, 3)
		assert.Equal(t, "aa", vaults[0].Authority)
		assert.Equal(t, "bb", vaults[1].Authority)
		assert.Equal(t, "cc", vaults[2].Authority)
	})

	t.Run("stake record save and get", func(t *testing.T) {
		store := setup(t)
		vault := model.NewVaultRecord(randomIdentity())
		require.NoError(t, store.SaveNewVault(ctx, vault))

		record := model.NewStakeRecord(randomIdentity(), vault.Authority, 42)
		require.NoError(t, store.SaveNewStakeRecord(ctx, record))

		got, err := store.GetStakeRecord(ctx, record.Participant)
		require.NoError(t, err)
		assert.Equal(t, record.Participant, got.Participant)
		assert.Equal(t, vault.Authority, got.Vault)
		assert.Equal(t, int64(42), got.LastUpdateTime)
		assert.True(t, got.TotalPoints.Dec().IsZero())

		err = store.SaveNewStakeRecord(ctx, model.NewStakeRecord(record.Participant, vault.Authority, 43))
		assert.True(t, db.IsDuplicateKeyError(err))

		_, err = store.GetStakeRecord(ctx, randomIdentity())
		assert.True(t, db.IsNotFoundError(err))
	})

	t.Run("stake record requires vault", func(t *testing.T) {
		store := setup(t)
		record := model.NewStakeRecord(randomIdentity(), randomIdentity(), 0)
		err := store.SaveNewStakeRecord(ctx, record)
		assert.True(t, db.IsNotFoundError(err))

		_, err = store.GetStakeRecord(ctx, record.Participant)
		assert.True(t, db.IsNotFoundError(err))
	})

	t.Run("update commits record and vault", func(t *testing.T) {
		store := setup(t)
		vault, record := saveRecord(t, store)

		err := store.UpdateStakeRecord(ctx, record.Participant, func(r *model.StakeRecord, v *model.VaultRecord) error {
			if err := params.Stake(r, v, 2_000_000_000, 10); err != nil {
				return err
			}
			return nil
		})
		require.NoError(t, err)

		err = store.UpdateStakeRecord(ctx, record.Participant, func(r *model.StakeRecord, v *model.VaultRecord) error {
			if err := params.Unstake(r, v, 500_000_000, 110); err != nil {
				return err
			}
			return nil
		})
		require.NoError(t, err)

		got, err := store.GetStakeRecord(ctx, record.Participant)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_500_000_000), got.StakedAmount)
		assert.Equal(t, int64(110), got.LastUpdateTime)
		assert.True(t, got.TotalPoints.Dec().Equal(sdkmath.LegacyNewDec(200)), got.TotalPoints.String())

		gotVault, err := store.GetVault(ctx, vault.Authority)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_500_000_000), gotVault.TotalStakedAmount)
	})

	t.Run("rejected update leaves state unchanged", func(t *testing.T) {
		store := setup(t)
		vault, record := saveRecord(t, store)
		require.NoError(t, store.UpdateStakeRecord(ctx, record.Participant, func(r *model.StakeRecord, v *model.VaultRecord) error {
			if err := params.Stake(r, v, 100, 10); err != nil {
				return err
			}
			return nil
		}))

		err := store.UpdateStakeRecord(ctx, record.Participant, func(r *model.StakeRecord, v *model.VaultRecord) error {
			// mutate both before rejecting
			if err := params.Stake(r, v, 100, 20); err != nil {
				return err
			}
			return types.NewLedgerError(types.InsufficientVaultBalance, "custody short")
		})
		require.Error(t, err)
		assert.True(t, types.IsErrorCode(err, types.InsufficientVaultBalance))

		got, err := store.GetStakeRecord(ctx, record.Participant)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), got.StakedAmount)
		assert.Equal(t, int64(10), got.LastUpdateTime)

		gotVault, err := store.GetVault(ctx, vault.Authority)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), gotVault.TotalStakedAmount)
	})

	t.Run("update of missing record", func(t *testing.T) {
		store := setup(t)
		called := false
		err := store.UpdateStakeRecord(ctx, randomIdentity(), func(*model.StakeRecord, *model.VaultRecord) error {
			called = true
			return nil
		})
		assert.True(t, db.IsNotFoundError(err))
		assert.False(t, called)
	})

	t.Run("pending claims are stored with the record", func(t *testing.T) {
		store := setup(t)
		_, record := saveRecord(t, store)
		_, idle := saveRecord(t, store)

		claims, err := store.ListPendingClaims(ctx)
		require.NoError(t, err)
		assert.Empty(t, claims)

		err = store.UpdateStakeRecord(ctx, record.Participant, func(r *model.StakeRecord, v *model.VaultRecord) error {
			if err := params.Stake(r, v, 1_000_000_000, 5); err != nil {
				return err
			}
			points, err := params.ClaimPoints(r, 35)
			if err != nil {
				return err
			}
			r.PendingClaims = append(r.PendingClaims, model.PendingClaim{
				ClaimID:   "claim-1",
				Points:    model.NewPoints(points),
				ClaimedAt: 35,
			})
			return nil
		})
		require.NoError(t, err)

		claims, err = store.ListPendingClaims(ctx)
		require.NoError(t, err)
		require.Len(t, claims, 1)
		got := claims[0]
		assert.Equal(t, record.Participant, got.Participant)
		assert.Equal(t, int64(5), got.LockStart)
		require.Len(t, got.PendingClaims, 1)
		assert.Equal(t, "claim-1", got.PendingClaims[0].ClaimID)
		assert.Equal(t, int64(35), got.PendingClaims[0].ClaimedAt)
		assert.True(t, got.PendingClaims[0].Points.Dec().Equal(sdkmath.LegacyNewDec(30)), got.PendingClaims[0].Points.String())
		assert.True(t, got.TotalPoints.Dec().IsZero())

		err = store.UpdateStakeRecord(ctx, record.Participant, func(r *model.StakeRecord, _ *model.VaultRecord) error {
			assert.True(t, r.RemovePendingClaim("claim-1"))
			return nil
		})
		require.NoError(t, err)

		claims, err = store.ListPendingClaims(ctx)
		require.NoError(t, err)
		assert.Empty(t, claims)

		untouched, err := store.GetStakeRecord(ctx, idle.Participant)
		require.NoError(t, err)
		assert.Empty(t, untouched.PendingClaims)
	})

	t.Run("snapshot sums bound records", func(t *testing.T) {
		store := setup(t)
		vault := model.NewVaultRecord(randomIdentity())
		require.NoError(t, store.SaveNewVault(ctx, vault))
		other := model.NewVaultRecord(randomIdentity())
		require.NoError(t, store.SaveNewVault(ctx, other))

		snapshot, err := store.GetVaultSnapshot(ctx, vault.Authority)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), snapshot.StakedSum)
		assert.Equal(t, uint64(0), snapshot.StakeRecords)

		for i, amount := range []uint64{10, 20, 30} {
			bound := vault.Authority
			if i == 2 {
				bound = other.Authority
			}
			record := model.NewStakeRecord(randomIdentity(), bound, 0)
			require.NoError(t, store.SaveNewStakeRecord(ctx, record))
			require.NoError(t, store.UpdateStakeRecord(ctx, record.Participant, func(r *model.StakeRecord, v *model.VaultRecord) error {
				if err := params.Stake(r, v, amount, 1); err != nil {
					return err
				}
				return nil
			}))
		}

		snapshot, err = store.GetVaultSnapshot(ctx, vault.Authority)
		require.NoError(t, err)
		assert.Equal(t, uint64(30), snapshot.Vault.TotalStakedAmount)
		assert.Equal(t, uint64(30), snapshot.StakedSum)
		assert.Equal(t, uint64(2), snapshot.StakeRecords)

		_, err = store.GetVaultSnapshot(ctx, randomIdentity())
		assert.True(t, db.IsNotFoundError(err))
	})

	t.Run("concurrent updates on one vault", func(t *testing.T) {
		store := setup(t)
		vault := model.NewVaultRecord(randomIdentity())
		require.NoError(t, store.SaveNewVault(ctx, vault))

		const participants = 8
		const rounds = 5
		ids := make([]string, participants)
		for i := range ids {
			ids[i] = randomIdentity()
			require.NoError(t, store.SaveNewStakeRecord(ctx, model.NewStakeRecord(ids[i], vault.Authority, 0)))
		}

		var wg sync.WaitGroup
		errs := make(chan error, participants*rounds)
		for _, id := range ids {
			wg.Add(1)
			go func(participant string) {
				defer wg.Done()
				for round := 0; round < rounds; round++ {
					err := store.UpdateStakeRecord(ctx, participant, func(r *model.StakeRecord, v *model.VaultRecord) error {
						if err := params.Stake(r, v, 10, int64(round)); err != nil {
							return err
						}
						return nil
					})
					if err != nil {
						errs <- fmt.Errorf("%s: %w", participant, err)
					}
				}
			}(id)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		snapshot, err := store.GetVaultSnapshot(ctx, vault.Authority)
		require.NoError(t, err)
		assert.Equal(t, uint64(participants*rounds*10), snapshot.Vault.TotalStakedAmount)
		assert.Equal(t, snapshot.Vault.TotalStakedAmount, snapshot.StakedSum)
	})
}

func saveRecord(t *testing.T, store db.DbInterface) (*model.VaultRecord, *model.StakeRecord) {
	t.Helper()
	ctx := context.Background()

	vault := model.NewVaultRecord(randomIdentity())
	require.NoError(t, store.SaveNewVault(ctx, vault))
	record := model.NewStakeRecord(randomIdentity(), vault.Authority, 0)
	require.NoError(t, store.SaveNewStakeRecord(ctx, record))
	return vault, record
}

func randomIdentity() string {
	return gofakeit.HexUint(256)[2:]
}
