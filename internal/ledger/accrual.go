package ledger

import (
	"math/big"

	sdkmath "cosmossdk.io/math"

	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

// PendingPoints returns the points rec has earned since its last update
// without modifying it:
//
//	staked_amount * elapsed * reward_rate / units_per_token
//
// The product is formed on raw integers before the single truncating
// division, so integral rates lose nothing at the default token scale.
func (p Params) PendingPoints(rec *model.StakeRecord, now int64) (sdkmath.LegacyDec, *types.Error) {
	elapsed, err := Elapsed(rec.LastUpdateTime, now)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if elapsed == 0 || rec.StakedAmount == 0 || p.RewardRate.IsZero() {
		return sdkmath.LegacyZeroDec(), nil
	}

	// RewardRate.BigInt() carries the 18 decimal scale, so raw is already scaled
	raw := new(big.Int).SetUint64(rec.StakedAmount)
	raw.Mul(raw, new(big.Int).SetUint64(elapsed))
	raw.Mul(raw, p.RewardRate.BigInt())
	raw.Quo(raw, new(big.Int).SetUint64(p.UnitsPerToken))

	accrued := sdkmath.LegacyNewDecFromBigIntWithPrec(raw, sdkmath.LegacyPrecision)
	if !accrued.IsInValidRange() {
		return sdkmath.LegacyDec{}, types.NewLedgerError(
			types.ArithmeticOverflow, "accrued points for %s overflow", rec.Participant,
		)
	}
	return accrued, nil
}

// settled returns the record's point total brought up to now.
func (p Params) settled(rec *model.StakeRecord, now int64) (sdkmath.LegacyDec, *types.Error) {
	accrued, err := p.PendingPoints(rec, now)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return AddPoints(rec.TotalPoints.Dec(), accrued)
}

// Settle folds the points earned since the last update into the record and
// moves its clock to now. Settling twice at the same now accrues nothing the
// second time.
func (p Params) Settle(rec *model.StakeRecord, now int64) *types.Error {
	total, err := p.settled(rec, now)
	if err != nil {
		return err
	}
	rec.TotalPoints = model.NewPoints(total)
	rec.LastUpdateTime = now
	return nil
}

// Claim settles the record, resets its points to zero and returns the
// points held before the reset.
func (p Params) Claim(rec *model.StakeRecord, now int64) (sdkmath.LegacyDec, *types.Error) {
	total, err := p.settled(rec, now)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	rec.TotalPoints = model.ZeroPoints()
	rec.LastUpdateTime = now
	return total, nil
}
