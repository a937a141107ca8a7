package ledger

import (
	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

// credit adds amount to the vault aggregate. The vault is unchanged on error.
func credit(vault *model.VaultRecord, amount uint64) *types.Error {
	total, err := CheckedAdd(vault.TotalStakedAmount, amount)
	if err != nil {
		return err
	}
	vault.TotalStakedAmount = total
	return nil
}

// debit removes amount from the vault aggregate. A debit larger than the
// aggregate means the aggregate no longer matches its records.
func debit(vault *model.VaultRecord, amount uint64) *types.Error {
	if amount > vault.TotalStakedAmount {
		return types.NewLedgerError(
			types.InsufficientVaultBalance,
			"vault %s holds %d, cannot release %d", vault.Authority, vault.TotalStakedAmount, amount,
		)
	}
	vault.TotalStakedAmount -= amount
	return nil
}
