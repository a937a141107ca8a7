package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-ledger/internal/clients/custodyclient"
	"github.com/babylonlabs-io/staking-ledger/internal/config"
	"github.com/babylonlabs-io/staking-ledger/internal/db"
	dbmodel "github.com/babylonlabs-io/staking-ledger/internal/db/model"
)

// newDbClient connects the configured backend. The returned close function
// must be called once the client is no longer used.
func newDbClient(ctx context.Context, cfg *config.DbConfig) (db.DbInterface, func(), error) {
	if cfg.Type == config.DbTypeMemory {
		log.Ctx(ctx).Warn().Msg("using in-memory storage, the ledger is lost on exit")
		return db.NewDbWithMetrics(db.NewMemoryDatabase()), func() {}, nil
	}

	if err := dbmodel.Setup(ctx, cfg); err != nil {
		return nil, nil, fmt.Errorf("error while setting up staking db model: %w", err)
	}

	dbClient, err := db.New(ctx, *cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("error while creating db client: %w", err)
	}

	closeFn := func() {
		if err := dbClient.Close(context.Background()); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("error while closing db client")
		}
	}
	return db.NewDbWithMetrics(dbClient), closeFn, nil
}

// newCustodyClient returns nil when custody is not configured.
func newCustodyClient(cfg *config.Config) custodyclient.CustodyInterface {
	if cfg.Custody == nil {
		return nil
	}
	return custodyclient.NewCustodyClientWithMetrics(custodyclient.NewClient(cfg.Custody))
}
