package ledger

import (
	sdkmath "cosmossdk.io/math"

	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

// Every transition below settles before touching balances and performs all
// fallible checks before the first write, so a returned error leaves both
// records exactly as they were.

// Stake settles rec at now and moves amount into it and its vault.
func (p Params) Stake(rec *model.StakeRecord, vault *model.VaultRecord, amount uint64, now int64) *types.Error {
	if amount == 0 {
		return types.NewLedgerError(types.InvalidAmount, "stake amount must be positive")
	}
	if err := checkBinding(rec, vault); err != nil {
		return err
	}

	points, err := p.settled(rec, now)
	if err != nil {
		return err
	}
	staked, err := CheckedAdd(rec.StakedAmount, amount)
	if err != nil {
		return err
	}
	if err := credit(vault, amount); err != nil {
		return err
	}

	if rec.StakedAmount == 0 {
		rec.LockStart = now
	}
	rec.TotalPoints = model.NewPoints(points)
	rec.LastUpdateTime = now
	rec.StakedAmount = staked
	return nil
}

// Unstake settles rec at now and moves amount out of it and its vault.
func (p Params) Unstake(rec *model.StakeRecord, vault *model.VaultRecord, amount uint64, now int64) *types.Error {
	if amount == 0 {
		return types.NewLedgerError(types.InvalidAmount, "unstake amount must be positive")
	}
	if amount > rec.StakedAmount {
		return types.NewLedgerError(
			types.InsufficientBalance, "%s has %d staked, cannot unstake %d", rec.Participant, rec.StakedAmount, amount,
		)
	}
	if err := checkBinding(rec, vault); err != nil {
		return err
	}

	points, err := p.settled(rec, now)
	if err != nil {
		return err
	}
	if err := p.checkLockPeriod(rec, now); err != nil {
		return err
	}
	staked, err := CheckedSub(rec.StakedAmount, amount)
	if err != nil {
		return err
	}
	if err := debit(vault, amount); err != nil {
		return err
	}

	rec.TotalPoints = model.NewPoints(points)
	rec.LastUpdateTime = now
	rec.StakedAmount = staked
	return nil
}

// ClaimPoints settles rec at now, resets its points and returns the claimed amount.
func (p Params) ClaimPoints(rec *model.StakeRecord, now int64) (sdkmath.LegacyDec, *types.Error) {
	return p.Claim(rec, now)
}

func (p Params) checkLockPeriod(rec *model.StakeRecord, now int64) *types.Error {
	if p.MinUnstakeInterval == 0 {
		return nil
	}
	// top-ups and claims do not restart the lock
	if now-rec.LockStart < p.MinUnstakeInterval {
		return types.NewLedgerError(
			types.LockPeriodActive,
			"unstake allowed %d seconds after staking started, only %d passed",
			p.MinUnstakeInterval, now-rec.LockStart,
		)
	}
	return nil
}

func checkBinding(rec *model.StakeRecord, vault *model.VaultRecord) *types.Error {
	if rec.Vault != vault.Authority {
		return types.NewLedgerError(
			types.InternalServiceError, "stake record %s is bound to vault %s, not %s",
			rec.Participant, rec.Vault, vault.Authority,
		)
	}
	return nil
}
