package consumer

import (
	"context"

	"github.com/babylonlabs-io/staking-ledger/internal/queue"
)

// EventPublisher hands ledger events to downstream consumers: the reward
// token minter for claims and indexers for stake movements.
//
//go:generate mockery --name=EventPublisher --output=../tests/mocks --outpkg=mocks --filename=mock_event_publisher.go
type EventPublisher interface {
	PushStakingEvent(ctx context.Context, ev *queue.StakingEvent) error
	PushClaimEvent(ctx context.Context, ev *queue.ClaimEvent) error
	Ping() error
	Shutdown()
}

// NoopPublisher drops every event. It is used when no queue is configured.
type NoopPublisher struct{}

func (NoopPublisher) PushStakingEvent(context.Context, *queue.StakingEvent) error { return nil }
func (NoopPublisher) PushClaimEvent(context.Context, *queue.ClaimEvent) error     { return nil }
func (NoopPublisher) Ping() error                                                  { return nil }
func (NoopPublisher) Shutdown()                                                    {}
