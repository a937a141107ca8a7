package db

import (
	"context"
	"sort"
	"sync"

	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
)

// MemoryDatabase keeps the ledger in process memory.
//
// Locking: mu guards the maps only. Each record and each vault carries its
// own mutex. A writer locks its record and then the record's vault; a
// snapshot locks the vault's records in key order and then the vault. No
// path locks a vault before a record.
type MemoryDatabase struct {
	mu      sync.RWMutex
	records map[string]*recordEntry
	vaults  map[string]*vaultEntry
}

type recordEntry struct {
	vault  string // fixed at creation
	mu     sync.Mutex
	record *model.StakeRecord
}

type vaultEntry struct {
	mu    sync.Mutex
	vault *model.VaultRecord
}

func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		records: make(map[string]*recordEntry),
		vaults:  make(map[string]*vaultEntry),
	}
}

func (db *MemoryDatabase) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (db *MemoryDatabase) SaveNewVault(ctx context.Context, vault *model.VaultRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.vaults[vault.Authority]; ok {
		return &DuplicateKeyError{
			Key:     vault.Authority,
			Message: "vault already exists",
		}
	}
	db.vaults[vault.Authority] = &vaultEntry{vault: vault.Clone()}
	return nil
}

func (db *MemoryDatabase) GetVault(ctx context.Context, authority string) (*model.VaultRecord, error) {
	entry, err := db.vaultEntry(authority)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.vault.Clone(), nil
}

func (db *MemoryDatabase) ListVaults(ctx context.Context) ([]*model.VaultRecord, error) {
	db.mu.RLock()
	entries := make([]*vaultEntry, 0, len(db.vaults))
	for _, entry := range db.vaults {
		entries = append(entries, entry)
	}
	db.mu.RUnlock()

	vaults := make([]*model.VaultRecord, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		vaults = append(vaults, entry.vault.Clone())
		entry.mu.Unlock()
	}

	sort.Slice(vaults, func(i, j int) bool {
		return vaults[i].Authority < vaults[j].Authority
	})
	return vaults, nil
}

func (db *MemoryDatabase) SaveNewStakeRecord(ctx context.Context, record *model.StakeRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.vaults[record.Vault]; !ok {
		return &NotFoundError{
			Key:     record.Vault,
			Message: "vault not found",
		}
	}
	if _, ok := db.records[record.Participant]; ok {
		return &DuplicateKeyError{
			Key:     record.Participant,
			Message: "stake record already exists",
		}
	}
	db.records[record.Participant] = &recordEntry{
		vault:  record.Vault,
		record: record.Clone(),
	}
	return nil
}

func (db *MemoryDatabase) GetStakeRecord(ctx context.Context, participant string) (*model.StakeRecord, error) {
	entry, err := db.recordEntry(participant)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.record.Clone(), nil
}

func (db *MemoryDatabase) UpdateStakeRecord(ctx context.Context, participant string, fn StakeUpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rEntry, err := db.recordEntry(participant)
	if err != nil {
		return err
	}
	rEntry.mu.Lock()
	defer rEntry.mu.Unlock()

	vEntry, err := db.vaultEntry(rEntry.vault)
	if err != nil {
		return err
	}
	vEntry.mu.Lock()
	defer vEntry.mu.Unlock()

	record := rEntry.record.Clone()
	vault := vEntry.vault.Clone()
	if err := fn(record, vault); err != nil {
		return err
	}

	rEntry.record = record
	vEntry.vault = vault
	return nil
}

func (db *MemoryDatabase) ListPendingClaims(ctx context.Context) ([]*model.StakeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db.mu.RLock()
	entries := make([]*recordEntry, 0, len(db.records))
	for _, entry := range db.records {
		entries = append(entries, entry)
	}
	db.mu.RUnlock()

	var records []*model.StakeRecord
	for _, entry := range entries {
		entry.mu.Lock()
		if len(entry.record.PendingClaims) > 0 {
			records = append(records, entry.record.Clone())
		}
		entry.mu.Unlock()
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Participant < records[j].Participant
	})
	return records, nil
}

func (db *MemoryDatabase) GetVaultSnapshot(ctx context.Context, authority string) (*VaultSnapshot, error) {
	vEntry, err := db.vaultEntry(authority)
	if err != nil {
		return nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if snapshot, ok := db.trySnapshot(authority, vEntry); ok {
			return snapshot, nil
		}
	}
}

// trySnapshot sums the vault's records while holding all of their locks and
// the vault lock. It fails if a record was bound to the vault in between.
func (db *MemoryDatabase) trySnapshot(authority string, vEntry *vaultEntry) (*VaultSnapshot, bool) {
	entries := db.recordsOfVault(authority)
	for _, entry := range entries {
		entry.mu.Lock()
		defer entry.mu.Unlock()
	}
	vEntry.mu.Lock()
	defer vEntry.mu.Unlock()

	if len(db.recordsOfVault(authority)) != len(entries) {
		return nil, false
	}

	snapshot := &VaultSnapshot{Vault: *vEntry.vault.Clone()}
	for _, entry := range entries {
		snapshot.StakedSum += entry.record.StakedAmount
		snapshot.StakeRecords++
	}
	return snapshot, true
}

// recordsOfVault returns the entries bound to authority in key order.
// Records are never removed, so an unchanged count means an unchanged set.
func (db *MemoryDatabase) recordsOfVault(authority string) []*recordEntry {
	db.mu.RLock()
	defer db.mu.RUnlock()

	keys := make([]string, 0)
	for key, entry := range db.records {
		if entry.vault == authority {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	entries := make([]*recordEntry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, db.records[key])
	}
	return entries
}

func (db *MemoryDatabase) recordEntry(participant string) (*recordEntry, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	entry, ok := db.records[participant]
	if !ok {
		return nil, &NotFoundError{
			Key:     participant,
			Message: "stake record not found",
		}
	}
	return entry, nil
}

func (db *MemoryDatabase) vaultEntry(authority string) (*vaultEntry, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	entry, ok := db.vaults[authority]
	if !ok {
		return nil, &NotFoundError{
			Key:     authority,
			Message: "vault not found",
		}
	}
	return entry, nil
}
