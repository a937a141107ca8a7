package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"go.uber.org/zap"

	"github.com/babylonlabs-io/staking-ledger/internal/config"
	"github.com/babylonlabs-io/staking-ledger/internal/observability/metrics"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

// QueueManager publishes ledger events to RabbitMQ.
type QueueManager struct {
	cfg    *config.QueueConfig
	logger *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewQueueManager(cfg *config.QueueConfig, logger *zap.Logger) (*QueueManager, error) {
	amqpURL := fmt.Sprintf("amqp://%s:%s@%s/", url.QueryEscape(cfg.User), url.QueryEscape(cfg.Password), cfg.Url)

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to queue: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open queue channel: %w", err)
	}

	// a publish only succeeds once the broker has taken the message
	if err := channel.Confirm(false); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	for _, name := range []string{types.StakingEventQueueName, types.ClaimEventQueueName} {
		// durable, not auto-deleted, not exclusive
		if _, err := channel.QueueDeclare(name, true, false, false, false, nil); err != nil {
			_ = channel.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("failed to declare queue %s: %w", name, err)
		}
	}

	return &QueueManager{
		cfg:     cfg,
		logger:  logger.Named("queue"),
		conn:    conn,
		channel: channel,
	}, nil
}

func (qm *QueueManager) PushStakingEvent(ctx context.Context, ev *StakingEvent) error {
	return qm.publish(ctx, ev.EventType, ev.EventID, ev)
}

func (qm *QueueManager) PushClaimEvent(ctx context.Context, ev *ClaimEvent) error {
	return qm.publish(ctx, ev.EventType, ev.ClaimID, ev)
}

func (qm *QueueManager) publish(ctx context.Context, eventType types.EventType, messageID string, ev any) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	ctx, cancel := context.WithTimeout(ctx, qm.cfg.PublishTimeout)
	defer cancel()

	qm.mu.Lock()
	defer qm.mu.Unlock()

	confirmation, err := qm.channel.PublishWithDeferredConfirmWithContext(ctx, "", eventType.QueueName(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err == nil {
		err = waitConfirmation(ctx, confirmation)
	}
	if err != nil {
		metrics.RecordQueueSendError()
		qm.logger.Error("failed to publish event",
			zap.String("event_type", eventType.String()),
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	qm.logger.Debug("event published",
		zap.String("event_type", eventType.String()),
		zap.String("message_id", messageID),
	)
	return nil
}

func waitConfirmation(ctx context.Context, confirmation *amqp.DeferredConfirmation) error {
	if confirmation == nil {
		return fmt.Errorf("channel is not in confirm mode")
	}
	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("no broker confirmation: %w", err)
	}
	if !acked {
		return fmt.Errorf("broker rejected the message")
	}
	return nil
}

func (qm *QueueManager) Ping() error {
	if qm.conn.IsClosed() {
		return fmt.Errorf("queue connection is closed")
	}
	return nil
}

// Shutdown gracefully stops the interaction with the queue, ensuring all resources are properly released.
func (qm *QueueManager) Shutdown() {
	log.Info().Msg("Shutting down queue manager")

	qm.mu.Lock()
	defer qm.mu.Unlock()

	if err := qm.channel.Close(); err != nil {
		qm.logger.Warn("failed to close queue channel", zap.Error(err))
	}
	if err := qm.conn.Close(); err != nil {
		qm.logger.Warn("failed to close queue connection", zap.Error(err))
	}
}
