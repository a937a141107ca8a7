package custodyclient

import "context"

// ReleaseRequest asks custody to move Amount units from the vault back to
// the participant. ID is stable for a given ledger operation, so a retried
// release is applied at most once.
type ReleaseRequest struct {
	ID          string `json:"release_id"`
	Vault       string `json:"-"`
	Participant string `json:"participant"`
	Amount      uint64 `json:"amount,string"`
}

//go:generate mockery --name=CustodyInterface --output=../../../tests/mocks --outpkg=mocks --filename=mock_custody_client.go
type CustodyInterface interface {
	// GetVaultBalance returns the amount custody holds for the vault.
	GetVaultBalance(ctx context.Context, authority string) (uint64, error)
	Release(ctx context.Context, req *ReleaseRequest) error
}
