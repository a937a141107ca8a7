package model

const StakeRecordCollection = "stake_records"

// StakeRecord is the per-participant staking position.
type StakeRecord struct {
	Participant    string `bson:"_id" json:"participant"`             // x-only public key hex (lowercase)
	Vault          string `bson:"vault" json:"vault"`                 // authority of the bound vault
	StakedAmount   uint64 `bson:"staked_amount" json:"staked_amount"` // smallest custody unit
	TotalPoints    Points `bson:"total_points" json:"total_points"`
	LastUpdateTime int64  `bson:"last_update_time" json:"last_update_time"` // unix seconds
	// LockStart is when the current stake started. It is set at creation and
	// when a stake goes into an empty record; settlement never moves it.
	LockStart int64 `bson:"lock_start" json:"lock_start"`
	// PendingClaims are committed claims the queue has not acknowledged yet.
	PendingClaims []PendingClaim `bson:"pending_claims,omitempty" json:"pending_claims,omitempty"`
}

// PendingClaim is a claim waiting to be handed to the reward token minter.
type PendingClaim struct {
	ClaimID   string `bson:"claim_id" json:"claim_id"`
	Points    Points `bson:"points" json:"points"`
	ClaimedAt int64  `bson:"claimed_at" json:"claimed_at"`
}

func NewStakeRecord(participant, vault string, now int64) *StakeRecord {
	return &StakeRecord{
		Participant:    participant,
		Vault:          vault,
		StakedAmount:   0,
		TotalPoints:    ZeroPoints(),
		LastUpdateTime: now,
		LockStart:      now,
	}
}

// Clone returns a deep copy of the record.
func (r *StakeRecord) Clone() *StakeRecord {
	c := *r
	c.TotalPoints = NewPoints(r.TotalPoints.Dec().Clone())
	if r.PendingClaims != nil {
		c.PendingClaims = make([]PendingClaim, len(r.PendingClaims))
		for i, claim := range r.PendingClaims {
			claim.Points = NewPoints(claim.Points.Dec().Clone())
			c.PendingClaims[i] = claim
		}
	}
	return &c
}

// RemovePendingClaim drops the claim with claimID and reports whether it was pending.
func (r *StakeRecord) RemovePendingClaim(claimID string) bool {
	for i, claim := range r.PendingClaims {
		if claim.ClaimID == claimID {
			r.PendingClaims = append(r.PendingClaims[:i], r.PendingClaims[i+1:]...)
			if len(r.PendingClaims) == 0 {
				r.PendingClaims = nil
			}
			return true
		}
	}
	return false
}
