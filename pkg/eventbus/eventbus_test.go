package eventbus

import (
	"context"
	"testing"
)

func TestMemoryBusFanOut(t *testing.T) {
	t.Parallel()

	bus := NewMemoryBus()
	var first, second []string

	bus.Subscribe(TopicVouchersChanged, func(_ context.Context, e Event) {
		first = append(first, e.UserID)
	})
	bus.Subscribe(TopicVouchersChanged, func(_ context.Context, e Event) {
		second = append(second, e.UserID)
	})
	bus.Subscribe(TopicCartRefreshed, func(_ context.Context, e Event) {
		t.Errorf("cart handler must not see voucher events, got %v", e)
	})

	event, err := NewEvent(TopicVouchersChanged, "u1", map[string]string{"vendor": "v9"})
	if err != nil {
		t.Fatalf("NewEvent failed: %v", err)
	}
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected both subscribers notified, got %d/%d", len(first), len(second))
	}
	if first[0] != "u1" {
		t.Fatalf("unexpected user id %q", first[0])
	}
}

func TestMemoryBusUnsubscribe(t *testing.T) {
	t.Parallel()

	bus := NewMemoryBus()
	calls := 0
	cancel := bus.Subscribe(TopicSelectionEmpty, func(context.Context, Event) {
		calls++
	})

	event, _ := NewEvent(TopicSelectionEmpty, "u1", nil)
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	cancel()
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected exactly one delivery, got %d", calls)
	}
}
