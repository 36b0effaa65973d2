package distributed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"interviewsignal/internal/core/domain"
	"interviewsignal/internal/core/ports"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultPresenceChannel = "interviewsignal:presence"

// presenceEvent is what travels between instances.
type presenceEvent struct {
	InstanceID string                `json:"instance_id"`
	Timestamp  time.Time             `json:"timestamp"`
	Update     domain.PresenceUpdate `json:"update"`
}

// PresenceBus carries presence changes between instances over Redis
// pub/sub. Each instance re-broadcasts remote changes to its own clients.
type PresenceBus struct {
	client     *redis.Client
	channel    string
	instanceID string
	logger     *zap.SugaredLogger
}

var _ ports.PresencePublisher = (*PresenceBus)(nil)

func NewPresenceBus(client *redis.Client, instanceID string, logger *zap.SugaredLogger) *PresenceBus {
	return &PresenceBus{
		client:     client,
		channel:    defaultPresenceChannel,
		instanceID: instanceID,
		logger:     logger,
	}
}

func (b *PresenceBus) PublishPresence(ctx context.Context, update domain.PresenceUpdate) error {
	data, err := json.Marshal(presenceEvent{
		InstanceID: b.instanceID,
		Timestamp:  time.Now(),
		Update:     update,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal presence event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish presence: %w", err)
	}
	return nil
}

// Subscribe delivers remote presence changes to deliver until ctx is done.
func (b *PresenceBus) Subscribe(ctx context.Context, deliver func(domain.PresenceUpdate)) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to presence: %w", err)
	}
	b.logger.Infow("subscribed to presence channel", "channel", b.channel, "instance_id", b.instanceID)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(msg.Payload, deliver)
		}
	}
}

func (b *PresenceBus) handle(payload string, deliver func(domain.PresenceUpdate)) {
	var event presenceEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		b.logger.Warnw("failed to unmarshal presence event", "error", err)
		return
	}
	if event.InstanceID == b.instanceID || event.Update.UserID == "" {
		return
	}
	deliver(event.Update)
}
