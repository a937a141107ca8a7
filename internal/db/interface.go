package db

import (
	"context"

	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
)

// StakeUpdateFunc mutates a stake record and the vault it is bound to.
// Returning an error discards both mutations. The function may be called
// more than once when the backend retries a conflicting transaction.
type StakeUpdateFunc func(record *model.StakeRecord, vault *model.VaultRecord) error

// VaultSnapshot is a vault read together with the sum of its stake records
// at a single point in time.
type VaultSnapshot struct {
	Vault        model.VaultRecord
	StakedSum    uint64
	StakeRecords uint64
}

type DbInterface interface {
	Ping(ctx context.Context) error
	// SaveNewVault inserts a vault, returning DuplicateKeyError if its authority is taken.
	SaveNewVault(ctx context.Context, vault *model.VaultRecord) error
	GetVault(ctx context.Context, authority string) (*model.VaultRecord, error)
	ListVaults(ctx context.Context) ([]*model.VaultRecord, error)
	// SaveNewStakeRecord inserts a record, returning DuplicateKeyError if
	// the participant already has one and NotFoundError if its vault is missing.
	SaveNewStakeRecord(ctx context.Context, record *model.StakeRecord) error
	GetStakeRecord(ctx context.Context, participant string) (*model.StakeRecord, error)
	// UpdateStakeRecord runs fn on copies of the participant's record and its
	// vault and stores both if fn succeeds. Updates of the same record are
	// serialized, as are updates touching the same vault.
	UpdateStakeRecord(ctx context.Context, participant string, fn StakeUpdateFunc) error
	// ListPendingClaims returns the records holding claims not yet handed to
	// the queue, ordered by participant.
	ListPendingClaims(ctx context.Context) ([]*model.StakeRecord, error)
	GetVaultSnapshot(ctx context.Context, authority string) (*VaultSnapshot, error)
}
