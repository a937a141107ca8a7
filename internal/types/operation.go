package types

import (
	"strconv"
	"strings"
)

// Action names an operation that mutates the ledger.
type Action string

const (
	ActionCreateVault       Action = "CREATE_VAULT"
	ActionCreateStakeRecord Action = "CREATE_STAKE_RECORD"
	ActionStake             Action = "STAKE"
	ActionUnstake           Action = "UNSTAKE"
	ActionClaimPoints       Action = "CLAIM_POINTS"
)

func (a Action) String() string {
	return string(a)
}

// Operation is a request to mutate the ledger on behalf of Signer.
// Now is supplied by the host clock and is not part of the signed message.
type Operation struct {
	Action Action
	// Signer is the identity that must authorize the operation: the
	// participant for stake record operations, the authority for vault creation.
	Signer string
	Vault  string
	Amount uint64
	Now    int64
}

// Message returns the canonical bytes that authorize the operation.
func (op Operation) Message() []byte {
	return []byte(strings.Join([]string{
		op.Action.String(),
		strings.ToLower(op.Signer),
		strings.ToLower(op.Vault),
		strconv.FormatUint(op.Amount, 10),
	}, "|"))
}
