package db

import (
	"errors"

	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

// DuplicateKeyError is an error type for duplicate key errors
type DuplicateKeyError struct {
	Key     string
	Message string
}

func (e *DuplicateKeyError) Error() string {
	return e.Message
}

func IsDuplicateKeyError(err error) bool {
	var target *DuplicateKeyError
	return errors.As(err, &target)
}

// Not found Error
type NotFoundError struct {
	Key     string
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// isLedgerRejection reports whether err was returned by an update function
// rejecting the operation rather than by the storage itself.
func isLedgerRejection(err error) bool {
	var target *types.Error
	return errors.As(err, &target)
}
