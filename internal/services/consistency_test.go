package services

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
	"github.com/babylonlabs-io/staking-ledger/testutil"
	"github.com/babylonlabs-io/staking-ledger/tests/mocks"
)

func TestConcurrentOperationsKeepVaultConsistent(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, testConfig(t), nil, nil)

	_, vault := testutil.RandomIdentity(t)
	_, err := l.CreateVault(ctx, vault, "")
	require.Nil(t, err)

	const participants = 16
	const rounds = 50

	keys := make([]string, participants)
	for i := range keys {
		_, keys[i] = testutil.RandomIdentity(t)
		_, err := l.CreateStakeRecord(ctx, keys[i], vault, "", 0)
		require.Nil(t, err)
	}

	var wg conc.WaitGroup
	for i, participant := range keys {
		faker := gofakeit.New(uint64(i + 1))
		wg.Go(func() {
			for round := int64(1); round <= rounds; round++ {
				amount := uint64(faker.IntRange(1, 1000))
				if faker.Bool() {
					_, _ = l.Unstake(ctx, participant, amount, "", round)
				} else {
					_, _ = l.Stake(ctx, participant, amount, "", round)
				}
				if round%10 == 0 {
					_, _ = l.ClaimPoints(ctx, participant, "", round)
				}
			}
		})
	}
	wg.Wait()

	report, err := l.CheckVaultConsistency(ctx, vault)
	require.Nil(t, err)
	assert.True(t, report.Consistent())
	assert.Equal(t, uint64(participants), report.StakeRecords)

	var sum uint64
	for _, participant := range keys {
		details, err := l.GetStakeRecord(ctx, participant, rounds)
		require.Nil(t, err)
		sum += details.Record.StakedAmount
	}
	assert.Equal(t, sum, report.TotalStakedAmount)
}

func TestCheckAllVaults(t *testing.T) {
	ctx := context.Background()

	t.Run("consistent vaults", func(t *testing.T) {
		l := newTestLedger(t, testConfig(t), nil, nil)
		for i := 0; i < 5; i++ {
			_, participant := l.setupVault(t, 0)
			_, err := l.Stake(ctx, participant, uint64(i+1)*token, "", 0)
			require.Nil(t, err)
		}

		reports, err := l.CheckAllVaults(ctx)
		require.NoError(t, err)
		require.Len(t, reports, 5)
		for i, report := range reports {
			assert.True(t, report.Consistent())
			assert.Nil(t, report.CustodyBalance)
			if i > 0 {
				assert.Less(t, reports[i-1].Vault, report.Vault)
			}
		}
		assert.NoError(t, l.auditVaults(ctx))
	})

	t.Run("drifted aggregate is reported", func(t *testing.T) {
		l := newTestLedger(t, testConfig(t), nil, nil)
		vault, participant := l.setupVault(t, 0)
		_, err := l.Stake(ctx, participant, token, "", 0)
		require.Nil(t, err)

		// corrupt the aggregate behind the ledger's back
		require.NoError(t, l.db.UpdateStakeRecord(ctx, participant, func(_ *model.StakeRecord, v *model.VaultRecord) error {
			v.TotalStakedAmount += 7
			return nil
		}))

		report, err := l.CheckVaultConsistency(ctx, vault)
		require.Nil(t, err)
		assert.False(t, report.AggregateMatches())
		assert.Equal(t, uint64(token+7), report.TotalStakedAmount)
		assert.Equal(t, uint64(token), report.StakedSum)

		assert.ErrorContains(t, l.auditVaults(ctx), "1 of 1 vaults are inconsistent")
	})

	t.Run("custody shortfall is reported", func(t *testing.T) {
		custody := mocks.NewCustodyInterface(t)
		l := newTestLedger(t, testConfig(t), custody, nil)
		vault, participant := l.setupVault(t, 0)
		_, err := l.Stake(ctx, participant, token, "", 0)
		require.Nil(t, err)

		custody.On("GetVaultBalance", mock.Anything, vault).Return(uint64(token/2), nil).Once()

		report, err := l.CheckVaultConsistency(ctx, vault)
		require.Nil(t, err)
		assert.True(t, report.AggregateMatches())
		assert.False(t, report.CustodyCovers())
		assert.Equal(t, uint64(token/2), *report.CustodyBalance)
	})

	t.Run("unknown vault", func(t *testing.T) {
		l := newTestLedger(t, testConfig(t), nil, nil)
		_, vault := testutil.RandomIdentity(t)
		_, err := l.CheckVaultConsistency(ctx, vault)
		requireCode(t, err, types.NotFound)
	})
}
