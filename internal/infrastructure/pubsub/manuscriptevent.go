package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	"github.com/openpublisher/openpublisher/internal/shared/biztime"
	"github.com/openpublisher/openpublisher/internal/shared/constants"
	"github.com/openpublisher/openpublisher/internal/shared/goroutine"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

// ManuscriptEventMessage is the wire form of a committed provenance event.
type ManuscriptEventMessage struct {
	EventID      uint           `json:"event_id"`
	ManuscriptID uint           `json:"manuscript_id"`
	EventType    string         `json:"event_type"`
	ActorID      string         `json:"actor_id,omitempty"`
	TxHash       string         `json:"tx_hash,omitempty"`
	AnchorID     string         `json:"anchor_id,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Timestamp    int64          `json:"timestamp"`
	InstanceID   string         `json:"instance_id,omitempty"` // publishing instance
}

// NewManuscriptEventMessage flattens a domain event for publishing.
func NewManuscriptEventMessage(e *manuscript.Event, instanceID string) ManuscriptEventMessage {
	msg := ManuscriptEventMessage{
		EventID:      e.ID(),
		ManuscriptID: e.ManuscriptID(),
		EventType:    e.EventType().String(),
		TxHash:       e.TxHash(),
		Metadata:     e.Metadata(),
		Timestamp:    biztime.ToMillis(e.Timestamp()),
		InstanceID:   instanceID,
	}
	if e.ActorID() != nil {
		msg.ActorID = *e.ActorID()
	}
	if e.AnchorID() != nil {
		msg.AnchorID = *e.AnchorID()
	}
	return msg
}

// ManuscriptEventHandler is called once per received message.
type ManuscriptEventHandler func(ctx context.Context, msg ManuscriptEventMessage)

// RedisManuscriptEventBus fans provenance events out over Redis Pub/Sub.
// Delivery is at most once; consumers needing the full history read the
// provenance endpoint.
type RedisManuscriptEventBus struct {
	client     *redis.Client
	channel    string
	logger     logger.Interface
	instanceID string
}

func NewRedisManuscriptEventBus(client *redis.Client, logger logger.Interface) *RedisManuscriptEventBus {
	return &RedisManuscriptEventBus{
		client:     client,
		channel:    constants.RedisChannelEvents,
		logger:     logger,
		instanceID: uuid.NewString(),
	}
}

// InstanceID identifies messages this process published.
func (b *RedisManuscriptEventBus) InstanceID() string {
	return b.instanceID
}

func (b *RedisManuscriptEventBus) PublishEvent(ctx context.Context, event *manuscript.Event) error {
	msg := NewManuscriptEventMessage(event, b.instanceID)
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal manuscript event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Errorw("failed to publish manuscript event",
			"manuscript_id", msg.ManuscriptID,
			"event_type", msg.EventType,
			"error", err,
		)
		return fmt.Errorf("failed to publish manuscript event: %w", err)
	}

	b.logger.Debugw("manuscript event published",
		"manuscript_id", msg.ManuscriptID,
		"event_id", msg.EventID,
		"event_type", msg.EventType,
	)
	return nil
}

// Subscribe blocks until ctx is done, handing each message to handler on
// its own goroutine.
func (b *RedisManuscriptEventBus) Subscribe(ctx context.Context, handler ManuscriptEventHandler) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Infow("subscribed to manuscript events", "channel", b.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			b.logger.Infow("manuscript event subscriber stopped", "reason", ctx.Err())
			return ctx.Err()

		case m, ok := <-ch:
			if !ok {
				b.logger.Warnw("manuscript event channel closed")
				return nil
			}

			msg, err := DecodeManuscriptEvent([]byte(m.Payload))
			if err != nil {
				b.logger.Warnw("failed to decode manuscript event",
					"payload", m.Payload,
					"error", err,
				)
				continue
			}

			goroutine.SafeGo(b.logger, "manuscript-event-handler", func() {
				handler(context.Background(), msg)
			})
		}
	}
}

func DecodeManuscriptEvent(data []byte) (ManuscriptEventMessage, error) {
	var msg ManuscriptEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("failed to unmarshal manuscript event: %w", err)
	}
	if msg.ManuscriptID == 0 || msg.EventType == "" {
		return msg, fmt.Errorf("manuscript event is missing manuscript_id or event_type")
	}
	return msg, nil
}
