package queue

import (
	"github.com/google/uuid"

	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

// StakingEvent reports a committed stake or unstake.
type StakingEvent struct {
	EventID        string          `json:"event_id"`
	EventType      types.EventType `json:"event_type"`
	Participant    string          `json:"participant"`
	Vault          string          `json:"vault"`
	Amount         uint64          `json:"amount,string"`
	StakedAmount   uint64          `json:"staked_amount,string"`
	VaultTotal     uint64          `json:"vault_total,string"`
	TotalPoints    string          `json:"total_points"`
	LastUpdateTime int64           `json:"last_update_time"`
}

// RewardToken identifies the token claimed points are minted as.
type RewardToken struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	URI      string `json:"uri"`
	Decimals uint8  `json:"decimals"`
}

// ClaimEvent asks the minter to issue Points reward tokens to Participant.
// ClaimID is stable for the claim so the minter can drop duplicates.
type ClaimEvent struct {
	EventType   types.EventType `json:"event_type"`
	ClaimID     string          `json:"claim_id"`
	Participant string          `json:"participant"`
	Vault       string          `json:"vault"`
	Points      string          `json:"points"`
	ClaimedAt   int64           `json:"claimed_at"`
	RewardToken *RewardToken    `json:"reward_token,omitempty"`
}

func NewStakingEvent(eventType types.EventType, participant, vault string, amount, staked, vaultTotal uint64, points string, lastUpdate int64) *StakingEvent {
	return &StakingEvent{
		EventID:        uuid.NewString(),
		EventType:      eventType,
		Participant:    participant,
		Vault:          vault,
		Amount:         amount,
		StakedAmount:   staked,
		VaultTotal:     vaultTotal,
		TotalPoints:    points,
		LastUpdateTime: lastUpdate,
	}
}
