package eventbus

import (
	"context"
	"encoding/json"
	"time"
)

// Topics fanned out across storefront views. Any view holding stale
// copies of the named state refreshes when its topic fires.
const (
	TopicCartRefreshed     = "cart.refreshed"
	TopicVouchersChanged   = "vouchers.changed"
	TopicBalanceRefreshed  = "balance.refreshed"
	TopicSelectionEmpty    = "selection.empty"
	TopicCheckoutCompleted = "checkout.completed"
	TopicQueueGrowth       = "queue.growth"
)

// Event is one notification published on the bus.
type Event struct {
	Topic      string          `json:"topic"`
	UserID     string          `json:"user_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Handler consumes events for a subscribed topic.
type Handler func(ctx context.Context, event Event)

// Bus is the publish/subscribe surface shared by storefront components.
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(topic string, handler Handler) (cancel func())
}

// NewEvent builds an event with the payload JSON-encoded.
func NewEvent(topic, userID string, payload any) (Event, error) {
	event := Event{
		Topic:      topic,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		event.Payload = raw
	}
	return event, nil
}
