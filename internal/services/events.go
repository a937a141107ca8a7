package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
	"github.com/babylonlabs-io/staking-ledger/internal/observability/metrics"
	"github.com/babylonlabs-io/staking-ledger/internal/queue"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
	"github.com/babylonlabs-io/staking-ledger/internal/utils/poller"
)

// emitStakingEvent publishes a committed stake movement. The ledger is
// already committed, so a failed publish is only logged.
func (s *Service) emitStakingEvent(ctx context.Context, eventType types.EventType, amount uint64, result *StakeResult) {
	ev := queue.NewStakingEvent(
		eventType,
		result.Record.Participant,
		result.Record.Vault,
		amount,
		result.Record.StakedAmount,
		result.VaultTotal,
		result.Record.TotalPoints.String(),
		result.Record.LastUpdateTime,
	)
	if err := s.publisher.PushStakingEvent(ctx, ev); err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str("event_type", eventType.String()).
			Str("participant", result.Record.Participant).
			Msg("failed to push the staking event to the queue")
	}
}

// Claims reach the minter through an outbox: the claim is stored on the
// record in the same update that resets its points, and is only removed
// once the queue has confirmed the event. Delivery is at least once; the
// minter drops repeats by claim id.

// claimID identifies a claim. Points reset to zero at a given time at most
// once, so the participant and time are unique among positive claims.
func claimID(participant string, now int64) string {
	return fmt.Sprintf("%s:%d", participant, now)
}

func (s *Service) claimEvent(record *model.StakeRecord, claim model.PendingClaim) *queue.ClaimEvent {
	return &queue.ClaimEvent{
		EventType:   types.EventPointsClaimed,
		ClaimID:     claim.ClaimID,
		Participant: record.Participant,
		Vault:       record.Vault,
		Points:      claim.Points.String(),
		ClaimedAt:   claim.ClaimedAt,
		RewardToken: s.rewardToken(),
	}
}

// deliverClaim publishes a pending claim and removes it from the outbox.
func (s *Service) deliverClaim(ctx context.Context, record *model.StakeRecord, claim model.PendingClaim) error {
	if err := s.publisher.PushClaimEvent(ctx, s.claimEvent(record, claim)); err != nil {
		return fmt.Errorf("failed to push claim %s to the queue: %w", claim.ClaimID, err)
	}

	err := s.db.UpdateStakeRecord(ctx, record.Participant, func(rec *model.StakeRecord, _ *model.VaultRecord) error {
		rec.RemovePendingClaim(claim.ClaimID)
		return nil
	})
	if err != nil {
		// the claim is sent again later and dropped by the minter
		return fmt.Errorf("claim %s published but not marked delivered: %w", claim.ClaimID, err)
	}
	return nil
}

// deliverPendingClaims sends every claim still in the outbox.
func (s *Service) deliverPendingClaims(ctx context.Context) error {
	records, err := s.db.ListPendingClaims(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending claims: %w", err)
	}

	var errs []error
	delivered := 0
	for _, record := range records {
		for _, claim := range record.PendingClaims {
			if err := s.deliverClaim(ctx, record, claim); err != nil {
				errs = append(errs, err)
				continue
			}
			delivered++
		}
	}

	if delivered > 0 || len(errs) > 0 {
		log.Ctx(ctx).Info().
			Int("delivered", delivered).
			Int("failed", len(errs)).
			Msg("pending claims redelivered")
	}
	return errors.Join(errs...)
}

// StartClaimDeliveryPoller periodically redelivers claims the queue has not
// confirmed.
func (s *Service) StartClaimDeliveryPoller(ctx context.Context) *poller.Poller {
	deliveryPoller := poller.NewPoller(
		"claim-delivery",
		s.cfg.Poller.ClaimDeliveryInterval,
		metrics.RecordPollerDuration("claim_delivery", s.deliverPendingClaims),
	)
	go deliveryPoller.Start(ctx)
	return deliveryPoller
}

func (s *Service) rewardToken() *queue.RewardToken {
	cfg := s.cfg.RewardToken
	if cfg == nil {
		return nil
	}
	return &queue.RewardToken{
		Name:     cfg.Name,
		Symbol:   cfg.Symbol,
		URI:      cfg.URI,
		Decimals: cfg.Decimals,
	}
}
