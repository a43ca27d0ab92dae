package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/greenbasket/storefront/pkg/logger"
	"github.com/greenbasket/storefront/pkg/redis"
)

// RedisBridge mirrors a local bus over Redis pub/sub so every gateway
// instance sees the same notifications. Messages carry the origin
// instance ID; the bridge drops its own echoes.
type RedisBridge struct {
	local      Bus
	client     *redis.Client
	logg       *logger.Logger
	instanceID string
	topics     []string
}

type bridgeMessage struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// NewRedisBridge wires a local bus to Redis for the given topics.
func NewRedisBridge(local Bus, client *redis.Client, logg *logger.Logger, topics ...string) (*RedisBridge, error) {
	if local == nil {
		return nil, fmt.Errorf("local bus required")
	}
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if len(topics) == 0 {
		topics = []string{
			TopicCartRefreshed,
			TopicVouchersChanged,
			TopicBalanceRefreshed,
			TopicSelectionEmpty,
			TopicCheckoutCompleted,
			TopicQueueGrowth,
		}
	}
	return &RedisBridge{
		local:      local,
		client:     client,
		logg:       logg,
		instanceID: uuid.NewString(),
		topics:     topics,
	}, nil
}

// Publish sends to the local bus and forwards to the shared channel.
func (b *RedisBridge) Publish(ctx context.Context, event Event) error {
	if err := b.local.Publish(ctx, event); err != nil {
		return err
	}

	msg := bridgeMessage{Origin: b.instanceID, Event: event}
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding bridge message: %w", err)
	}
	if err := b.client.Publish(ctx, b.client.ChannelName(event.Topic), raw); err != nil {
		// Local delivery already happened; remote fan-out failure is
		// logged rather than surfaced to the publishing flow.
		if b.logg != nil {
			b.logg.Error(ctx, "eventbus remote publish failed", err)
		}
	}
	return nil
}

// Subscribe registers on the local bus; remote events arrive through Run.
func (b *RedisBridge) Subscribe(topic string, handler Handler) func() {
	return b.local.Subscribe(topic, handler)
}

// Run consumes the shared channels until the context is canceled.
func (b *RedisBridge) Run(ctx context.Context) error {
	channels := make([]string, len(b.topics))
	for i, topic := range b.topics {
		channels[i] = b.client.ChannelName(topic)
	}

	sub, err := b.client.Subscribe(ctx, channels...)
	if err != nil {
		return err
	}
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var decoded bridgeMessage
			if err := json.Unmarshal([]byte(msg.Payload), &decoded); err != nil {
				if b.logg != nil {
					b.logg.Error(ctx, "eventbus message decode failed", err)
				}
				continue
			}
			if decoded.Origin == b.instanceID {
				continue
			}
			if err := b.local.Publish(ctx, decoded.Event); err != nil && b.logg != nil {
				b.logg.Error(ctx, "eventbus local dispatch failed", err)
			}
		}
	}
}
