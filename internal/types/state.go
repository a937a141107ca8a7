package types

// RecordState is the lifecycle state of a stake record. There is no terminal
// state: records are never closed.
type RecordState string

const (
	StateUninitialized RecordState = "UNINITIALIZED"
	StateActive        RecordState = "ACTIVE"
)

func (s RecordState) String() string {
	return string(s)
}

// QualifiedActionsFor returns the actions accepted for a record in state s.
func QualifiedActionsFor(s RecordState) []Action {
	switch s {
	case StateUninitialized:
		return []Action{ActionCreateStakeRecord}
	case StateActive:
		return []Action{ActionStake, ActionUnstake, ActionClaimPoints}
	default:
		return nil
	}
}

// Accepts reports whether action is valid for a record in state s.
func (s RecordState) Accepts(action Action) bool {
	for _, a := range QualifiedActionsFor(s) {
		if a == action {
			return true
		}
	}
	return false
}
