package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-ledger/consumer"
	"github.com/babylonlabs-io/staking-ledger/internal/auth"
	"github.com/babylonlabs-io/staking-ledger/internal/clients/custodyclient"
	"github.com/babylonlabs-io/staking-ledger/internal/config"
	"github.com/babylonlabs-io/staking-ledger/internal/db"
	"github.com/babylonlabs-io/staking-ledger/internal/ledger"
	"github.com/babylonlabs-io/staking-ledger/internal/observability/metrics"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

type Service struct {
	cfg        *config.Config
	params     ledger.Params
	db         db.DbInterface
	custody    custodyclient.CustodyInterface
	authorizer auth.Authorizer
	publisher  consumer.EventPublisher
}

// NewService wires the ledger. custody and publisher are optional: without
// custody the ledger trusts its own aggregates, without a publisher events
// are dropped.
func NewService(
	cfg *config.Config,
	db db.DbInterface,
	custody custodyclient.CustodyInterface,
	authorizer auth.Authorizer,
	publisher consumer.EventPublisher,
) (*Service, error) {
	params, err := ledger.NewParams(
		cfg.Ledger.UnitsPerToken, cfg.Ledger.RewardRate, cfg.Ledger.MinUnstakeInterval,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid ledger params: %w", err)
	}

	if publisher == nil {
		publisher = consumer.NoopPublisher{}
	}

	return &Service{
		cfg:        cfg,
		params:     params,
		db:         db,
		custody:    custody,
		authorizer: authorizer,
		publisher:  publisher,
	}, nil
}

func (s *Service) Params() ledger.Params {
	return s.params
}

// Ping checks the storage and the queue.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("db is not reachable: %w", err)
	}
	if err := s.publisher.Ping(); err != nil {
		return fmt.Errorf("queue is not reachable: %w", err)
	}
	return nil
}

// toLedgerError keeps rejections raised by the ledger and translates storage
// errors into their ledger codes.
func toLedgerError(err error, format string, args ...any) *types.Error {
	if err == nil {
		return nil
	}

	var ledgerErr *types.Error
	if errors.As(err, &ledgerErr) {
		return ledgerErr
	}

	msg := fmt.Sprintf(format, args...)
	switch {
	case db.IsNotFoundError(err):
		return types.NewLedgerError(types.NotFound, "%s: %v", msg, err)
	case db.IsDuplicateKeyError(err):
		return types.NewLedgerError(types.AlreadyExists, "%s: %v", msg, err)
	default:
		return types.NewInternalServiceError(fmt.Errorf("%s: %w", msg, err))
	}
}

// observe records the outcome of a ledger operation and logs rejections.
func observe(ctx context.Context, action types.Action, start time.Time, err *types.Error) {
	code := ""
	if err != nil {
		code = err.ErrorCode.String()

		event := log.Ctx(ctx).Warn()
		if err.StatusCode >= 500 {
			event = log.Ctx(ctx).Error()
		}
		event.Err(err).
			Str("action", action.String()).
			Str("error_code", code).
			Msg("ledger operation rejected")
	}
	metrics.RecordLedgerOperation(time.Since(start), action.String(), code)
}
