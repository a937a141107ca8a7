package services

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-ledger/internal/db"
	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
	"github.com/babylonlabs-io/staking-ledger/internal/ledger"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
	"github.com/babylonlabs-io/staking-ledger/pkg"
)

// StakeRecordDetails is a stake record together with what it would hold if
// it were settled at the time of the read.
type StakeRecordDetails struct {
	Record        *model.StakeRecord
	State         types.RecordState
	Address       string
	PendingPoints sdkmath.LegacyDec
	// PointsAt is TotalPoints plus PendingPoints.
	PointsAt sdkmath.LegacyDec
	At       int64
}

type VaultDetails struct {
	Vault   *model.VaultRecord
	Address string
}

func (s *Service) CreateVault(ctx context.Context, authority, signature string) (*model.VaultRecord, *types.Error) {
	start := time.Now()
	vault, err := s.createVault(ctx, authority, signature)
	observe(ctx, types.ActionCreateVault, start, err)
	return vault, err
}

func (s *Service) createVault(ctx context.Context, authority, signature string) (*model.VaultRecord, *types.Error) {
	authority, err := normalize(authority, "authority")
	if err != nil {
		return nil, err
	}

	op := types.Operation{
		Action: types.ActionCreateVault,
		Signer: authority,
		Vault:  authority,
	}
	if err := s.authorizer.Authorize(ctx, op, signature); err != nil {
		return nil, err
	}

	vault := model.NewVaultRecord(authority)
	if dbErr := s.db.SaveNewVault(ctx, vault); dbErr != nil {
		return nil, toLedgerError(dbErr, "failed to create vault %s", authority)
	}

	log.Ctx(ctx).Info().Str("vault", authority).Msg("vault created")
	return vault, nil
}

func (s *Service) CreateStakeRecord(
	ctx context.Context, participant, vault, signature string, now int64,
) (*model.StakeRecord, *types.Error) {
	start := time.Now()
	record, err := s.createStakeRecord(ctx, participant, vault, signature, now)
	observe(ctx, types.ActionCreateStakeRecord, start, err)
	return record, err
}

func (s *Service) createStakeRecord(
	ctx context.Context, participant, vault, signature string, now int64,
) (*model.StakeRecord, *types.Error) {
	participant, err := normalize(participant, "participant")
	if err != nil {
		return nil, err
	}
	vault, err = normalize(vault, "vault")
	if err != nil {
		return nil, err
	}

	op := types.Operation{
		Action: types.ActionCreateStakeRecord,
		Signer: participant,
		Vault:  vault,
		Now:    now,
	}
	if err := s.authorizer.Authorize(ctx, op, signature); err != nil {
		return nil, err
	}

	record := model.NewStakeRecord(participant, vault, now)
	if dbErr := s.db.SaveNewStakeRecord(ctx, record); dbErr != nil {
		return nil, toLedgerError(dbErr, "failed to create stake record for %s", participant)
	}

	log.Ctx(ctx).Info().
		Str("participant", participant).
		Str("vault", vault).
		Int64("now", now).
		Msg("stake record created")
	return record, nil
}

// GetStakeRecord returns the participant's record and previews its points at now.
func (s *Service) GetStakeRecord(ctx context.Context, participant string, now int64) (*StakeRecordDetails, *types.Error) {
	participant, err := normalize(participant, "participant")
	if err != nil {
		return nil, err
	}

	record, dbErr := s.db.GetStakeRecord(ctx, participant)
	if dbErr != nil {
		return nil, toLedgerError(dbErr, "failed to get stake record of %s", participant)
	}

	pending, err := s.params.PendingPoints(record, now)
	if err != nil {
		return nil, err
	}
	total, err := ledger.AddPoints(record.TotalPoints.Dec(), pending)
	if err != nil {
		return nil, err
	}

	address, addrErr := pkg.DeriveAddress(s.cfg.Ledger.AddressPrefix, s.cfg.Ledger.StakeRecordSeed, participant)
	if addrErr != nil {
		return nil, types.NewInternalServiceError(addrErr)
	}

	return &StakeRecordDetails{
		Record:        record,
		State:         types.StateActive,
		Address:       address,
		PendingPoints: pending,
		PointsAt:      total,
		At:            now,
	}, nil
}

func (s *Service) GetVault(ctx context.Context, authority string) (*VaultDetails, *types.Error) {
	authority, err := normalize(authority, "authority")
	if err != nil {
		return nil, err
	}

	vault, dbErr := s.db.GetVault(ctx, authority)
	if dbErr != nil {
		return nil, toLedgerError(dbErr, "failed to get vault %s", authority)
	}

	address, addrErr := pkg.DeriveAddress(s.cfg.Ledger.AddressPrefix, s.cfg.Ledger.VaultSeed, authority)
	if addrErr != nil {
		return nil, types.NewInternalServiceError(addrErr)
	}

	return &VaultDetails{Vault: vault, Address: address}, nil
}

// loadRecord reads the participant's record for an operation that needs
// one. A missing record is uninitialized and only accepts creation.
func (s *Service) loadRecord(ctx context.Context, participant string, action types.Action) (*model.StakeRecord, *types.Error) {
	record, err := s.db.GetStakeRecord(ctx, participant)

	state := types.StateActive
	if err != nil {
		if !db.IsNotFoundError(err) {
			return nil, toLedgerError(err, "failed to get stake record of %s", participant)
		}
		state = types.StateUninitialized
	}

	if !state.Accepts(action) {
		return nil, types.NewLedgerError(
			types.NotFound, "stake record of %s is %s, %s is not accepted", participant, state, action,
		)
	}
	return record, nil
}

func normalize(identity, name string) (string, *types.Error) {
	normalized, err := pkg.NormalizeIdentity(identity)
	if err != nil {
		return "", types.NewLedgerError(types.BadRequest, "invalid %s: %v", name, err)
	}
	return normalized, nil
}
