package db_test

import (
	"testing"

	"github.com/babylonlabs-io/staking-ledger/internal/db"
)

func TestMemoryDatabase(t *testing.T) {
	runStoreTests(t, func(t *testing.T) db.DbInterface {
		return db.NewMemoryDatabase()
	})
}
