package services

import (
	"context"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-ledger/internal/clients/custodyclient"
	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
	"github.com/babylonlabs-io/staking-ledger/internal/observability/metrics"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

// StakeResult is the state committed by a stake or unstake.
type StakeResult struct {
	Record     *model.StakeRecord
	VaultTotal uint64
}

func (s *Service) Stake(
	ctx context.Context, participant string, amount uint64, signature string, now int64,
) (*StakeResult, *types.Error) {
	start := time.Now()
	result, err := s.stake(ctx, participant, amount, signature, now)
	observe(ctx, types.ActionStake, start, err)
	return result, err
}

func (s *Service) stake(
	ctx context.Context, participant string, amount uint64, signature string, now int64,
) (*StakeResult, *types.Error) {
	participant, err := s.authorizeRecordOp(ctx, types.ActionStake, participant, amount, signature, now)
	if err != nil {
		return nil, err
	}

	var result *StakeResult
	dbErr := s.db.UpdateStakeRecord(ctx, participant, func(rec *model.StakeRecord, vault *model.VaultRecord) error {
		if err := s.params.Stake(rec, vault, amount, now); err != nil {
			return err
		}
		result = &StakeResult{Record: rec.Clone(), VaultTotal: vault.TotalStakedAmount}
		return nil
	})
	if dbErr != nil {
		return nil, toLedgerError(dbErr, "failed to stake for %s", participant)
	}

	metrics.RecordVaultTotalStaked(result.Record.Vault, result.VaultTotal)
	log.Ctx(ctx).Info().
		Str("participant", participant).
		Str("vault", result.Record.Vault).
		Uint64("amount", amount).
		Uint64("staked_amount", result.Record.StakedAmount).
		Uint64("vault_total", result.VaultTotal).
		Msg("stake committed")

	s.emitStakingEvent(ctx, types.EventStaked, amount, result)
	return result, nil
}

// Unstake moves amount out of the participant's record. When custody is
// configured the vault's custody balance must cover amount before the ledger
// commits, and the release is requested once the ledger has committed.
func (s *Service) Unstake(
	ctx context.Context, participant string, amount uint64, signature string, now int64,
) (*StakeResult, *types.Error) {
	start := time.Now()
	result, err := s.unstake(ctx, participant, amount, signature, now)
	observe(ctx, types.ActionUnstake, start, err)
	return result, err
}

func (s *Service) unstake(
	ctx context.Context, participant string, amount uint64, signature string, now int64,
) (*StakeResult, *types.Error) {
	participant, err := s.authorizeRecordOp(ctx, types.ActionUnstake, participant, amount, signature, now)
	if err != nil {
		return nil, err
	}

	var result *StakeResult
	dbErr := s.db.UpdateStakeRecord(ctx, participant, func(rec *model.StakeRecord, vault *model.VaultRecord) error {
		if err := s.params.Unstake(rec, vault, amount, now); err != nil {
			return err
		}
		if err := s.checkCustodyBalance(ctx, vault.Authority, amount); err != nil {
			return err
		}
		result = &StakeResult{Record: rec.Clone(), VaultTotal: vault.TotalStakedAmount}
		return nil
	})
	if dbErr != nil {
		return nil, toLedgerError(dbErr, "failed to unstake for %s", participant)
	}

	metrics.RecordVaultTotalStaked(result.Record.Vault, result.VaultTotal)
	log.Ctx(ctx).Info().
		Str("participant", participant).
		Str("vault", result.Record.Vault).
		Uint64("amount", amount).
		Uint64("staked_amount", result.Record.StakedAmount).
		Uint64("vault_total", result.VaultTotal).
		Msg("unstake committed")

	if err := s.release(ctx, result.Record, amount); err != nil {
		return nil, err
	}

	s.emitStakingEvent(ctx, types.EventUnstaked, amount, result)
	return result, nil
}

// ClaimResult is a committed claim.
type ClaimResult struct {
	Participant string
	Points      sdkmath.LegacyDec
	ClaimedAt   int64
	// ClaimID is empty when nothing was claimed.
	ClaimID string
}

// ClaimPoints settles the participant's record, resets its points and
// returns what it held. A positive claim is stored for the reward token
// minter in the same update and published once the update has committed.
func (s *Service) ClaimPoints(
	ctx context.Context, participant, signature string, now int64,
) (*ClaimResult, *types.Error) {
	start := time.Now()
	result, err := s.claimPoints(ctx, participant, signature, now)
	observe(ctx, types.ActionClaimPoints, start, err)
	return result, err
}

func (s *Service) claimPoints(
	ctx context.Context, participant, signature string, now int64,
) (*ClaimResult, *types.Error) {
	participant, err := s.authorizeRecordOp(ctx, types.ActionClaimPoints, participant, 0, signature, now)
	if err != nil {
		return nil, err
	}

	var (
		result  *ClaimResult
		claimed *model.StakeRecord
	)
	dbErr := s.db.UpdateStakeRecord(ctx, participant, func(rec *model.StakeRecord, _ *model.VaultRecord) error {
		points, err := s.params.ClaimPoints(rec, now)
		if err != nil {
			return err
		}

		result = &ClaimResult{Participant: participant, Points: points, ClaimedAt: now}
		claimed = nil
		if points.IsPositive() {
			result.ClaimID = claimID(participant, now)
			rec.PendingClaims = append(rec.PendingClaims, model.PendingClaim{
				ClaimID:   result.ClaimID,
				Points:    model.NewPoints(points),
				ClaimedAt: now,
			})
			claimed = rec.Clone()
		}
		return nil
	})
	if dbErr != nil {
		return nil, toLedgerError(dbErr, "failed to claim points for %s", participant)
	}

	log.Ctx(ctx).Info().
		Str("participant", participant).
		Str("points", result.Points.String()).
		Str("claim_id", result.ClaimID).
		Int64("now", now).
		Msg("points claimed")

	if claimed != nil {
		claim := claimed.PendingClaims[len(claimed.PendingClaims)-1]
		if err := s.deliverClaim(ctx, claimed, claim); err != nil {
			// the claim stays in the outbox and is sent by the delivery poller
			log.Ctx(ctx).Warn().Err(err).
				Str("participant", participant).
				Str("claim_id", claim.ClaimID).
				Msg("claim committed, delivery deferred")
		}
	}
	return result, nil
}

// authorizeRecordOp normalizes the participant, checks its record accepts
// action and authorizes the operation against the record's vault.
func (s *Service) authorizeRecordOp(
	ctx context.Context, action types.Action, participant string, amount uint64, signature string, now int64,
) (string, *types.Error) {
	participant, err := normalize(participant, "participant")
	if err != nil {
		return "", err
	}

	record, err := s.loadRecord(ctx, participant, action)
	if err != nil {
		return "", err
	}

	op := types.Operation{
		Action: action,
		Signer: participant,
		Vault:  record.Vault,
		Amount: amount,
		Now:    now,
	}
	if err := s.authorizer.Authorize(ctx, op, signature); err != nil {
		return "", err
	}
	return participant, nil
}

// checkCustodyBalance fails when custody holds less for the vault than is
// about to leave it. The ledger's aggregate covering an amount custody does
// not hold is a consistency violation.
func (s *Service) checkCustodyBalance(ctx context.Context, vault string, amount uint64) *types.Error {
	if s.custody == nil {
		return nil
	}

	balance, err := s.custody.GetVaultBalance(ctx, vault)
	if err != nil {
		return types.NewInternalServiceError(fmt.Errorf("failed to get custody balance of vault %s: %w", vault, err))
	}

	if balance < amount {
		metrics.RecordConsistencyViolation(metrics.ViolationCustodyShortfall)
		log.Ctx(ctx).Error().
			Str("vault", vault).
			Uint64("custody_balance", balance).
			Uint64("amount", amount).
			Msg("custody holds less than the ledger releases")
		return types.NewLedgerError(
			types.InsufficientVaultBalance, "custody holds %d for vault %s, cannot release %d", balance, vault, amount,
		)
	}
	return nil
}

// release asks custody to pay out a committed unstake. The request id is
// reused across retries so custody applies it at most once.
func (s *Service) release(ctx context.Context, record *model.StakeRecord, amount uint64) *types.Error {
	if s.custody == nil {
		return nil
	}

	req := &custodyclient.ReleaseRequest{
		ID:          uuid.NewString(),
		Vault:       record.Vault,
		Participant: record.Participant,
		Amount:      amount,
	}
	if err := s.custody.Release(ctx, req); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("release_id", req.ID).
			Str("participant", record.Participant).
			Str("vault", record.Vault).
			Uint64("amount", amount).
			Msg("unstake committed but custody release failed")
		return types.NewInternalServiceError(
			fmt.Errorf("unstake of %d committed, custody release %s failed: %w", amount, req.ID, err),
		)
	}
	return nil
}
