package types

type EventType string

func (e EventType) String() string {
	return string(e)
}

const (
	EventStaked        EventType = "STAKED"
	EventUnstaked      EventType = "UNSTAKED"
	EventPointsClaimed EventType = "POINTS_CLAIMED"
)

// QueueName is the queue each event type is routed to.
func (e EventType) QueueName() string {
	switch e {
	case EventPointsClaimed:
		return ClaimEventQueueName
	default:
		return StakingEventQueueName
	}
}

const (
	StakingEventQueueName = "staking_ledger_stake_queue"
	ClaimEventQueueName   = "staking_ledger_claim_queue"
)
