package selection

import (
	"context"
	"testing"
	"time"

	"github.com/greenbasket/storefront/pkg/clients/cartapi"
	"github.com/greenbasket/storefront/pkg/eventbus"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
	"github.com/greenbasket/storefront/pkg/statestore"
)

type stubCart struct {
	items []cartapi.Item
	err   error
}

func (s *stubCart) ListItems(context.Context, string) ([]cartapi.Item, error) {
	return s.items, s.err
}

func testItems() []cartapi.Item {
	return []cartapi.Item{
		{ID: "ci-1", ProductID: "p1", VendorID: "v1", UnitPrice: 10000, Quantity: 2},
		{ID: "ci-2", ProductID: "p2", VendorID: "v2", UnitPrice: 5000, Quantity: 1},
	}
}

func newTestService(t *testing.T, cart CartLister, delay time.Duration) (Service, statestore.Store) {
	t.Helper()
	store := statestore.NewMemoryStore()
	svc, err := NewService(cart, store, eventbus.NewMemoryBus(), nil, delay)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc, store
}

func TestSyncFirstRunSelectsAll(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, &stubCart{items: testItems()}, time.Minute)
	snapshot, err := svc.Sync(context.Background(), "u1")
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if len(snapshot.SelectedIDs) != 2 {
		t.Fatalf("expected select-all on first run, got %v", snapshot.SelectedIDs)
	}

	var rec record
	if err := statestore.GetJSON(context.Background(), store, "u1", statestore.FieldSelection, &rec); err != nil {
		t.Fatalf("read persisted record: %v", err)
	}
	if !rec.Initialized || len(rec.ItemIDs) != 2 {
		t.Fatalf("expected initialized persisted record, got %+v", rec)
	}
}

func TestSyncAdoptsPersistedIntersectionAndPrunesOrphans(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, &stubCart{items: testItems()}, time.Minute)
	seed := record{ItemIDs: []string{"ci-2", "ci-gone"}, Initialized: true}
	if err := statestore.SetJSON(context.Background(), store, "u1", statestore.FieldSelection, seed); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	snapshot, err := svc.Sync(context.Background(), "u1")
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if len(snapshot.SelectedIDs) != 1 || snapshot.SelectedIDs[0] != "ci-2" {
		t.Fatalf("expected pruned intersection [ci-2], got %v", snapshot.SelectedIDs)
	}
}

func TestSyncStaleRecordFallsBackToSelectAll(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, &stubCart{items: testItems()}, time.Minute)
	seed := record{ItemIDs: []string{"old-1", "old-2"}}
	if err := statestore.SetJSON(context.Background(), store, "u1", statestore.FieldSelection, seed); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	snapshot, err := svc.Sync(context.Background(), "u1")
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if len(snapshot.SelectedIDs) != 2 {
		t.Fatalf("expected select-all recovery from stale data, got %v", snapshot.SelectedIDs)
	}
}

func TestSyncNeverReselectsAfterClear(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, &stubCart{items: testItems()}, time.Minute)
	ctx := context.Background()
	if _, err := svc.Sync(ctx, "u1"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if _, err := svc.Clear(ctx, "u1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	snapshot, err := svc.Sync(ctx, "u1")
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if len(snapshot.SelectedIDs) != 0 {
		t.Fatalf("default select-all fired again after init, got %v", snapshot.SelectedIDs)
	}
}

func TestToggleFlipsMembershipAndPersists(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, &stubCart{items: testItems()}, time.Minute)
	ctx := context.Background()
	if _, err := svc.Sync(ctx, "u1"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	snapshot, err := svc.Toggle(ctx, "u1", "ci-1")
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if snapshot.IsSelected("ci-1") {
		t.Fatal("expected ci-1 deselected")
	}

	reloaded, err := svc.Sync(ctx, "u1")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.IsSelected("ci-1") || !reloaded.IsSelected("ci-2") {
		t.Fatalf("persisted selection wrong: %v", reloaded.SelectedIDs)
	}
}

func TestToggleUnknownItemFails(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, &stubCart{items: testItems()}, time.Minute)
	_, err := svc.Toggle(context.Background(), "u1", "ghost")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestEmptyGuardPublishesEvent(t *testing.T) {
	t.Parallel()

	store := statestore.NewMemoryStore()
	bus := eventbus.NewMemoryBus()
	svc, err := NewService(&stubCart{items: testItems()}, store, bus, nil, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(svc.Close)

	fired := make(chan eventbus.Event, 1)
	bus.Subscribe(eventbus.TopicSelectionEmpty, func(_ context.Context, e eventbus.Event) {
		select {
		case fired <- e:
		default:
		}
	})

	ctx := context.Background()
	if _, err := svc.Sync(ctx, "u1"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if _, err := svc.Clear(ctx, "u1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	select {
	case event := <-fired:
		if event.UserID != "u1" {
			t.Fatalf("unexpected event user %q", event.UserID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("empty-selection guard never fired")
	}
}

func TestEmptyGuardSkipsWhenSelectionRecovers(t *testing.T) {
	t.Parallel()

	store := statestore.NewMemoryStore()
	bus := eventbus.NewMemoryBus()
	svc, err := NewService(&stubCart{items: testItems()}, store, bus, nil, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(svc.Close)

	fired := make(chan struct{}, 1)
	bus.Subscribe(eventbus.TopicSelectionEmpty, func(context.Context, eventbus.Event) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	ctx := context.Background()
	if _, err := svc.Sync(ctx, "u1"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if _, err := svc.Clear(ctx, "u1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, err := svc.SelectAll(ctx, "u1"); err != nil {
		t.Fatalf("select all failed: %v", err)
	}

	select {
	case <-fired:
		t.Fatal("guard fired despite recovered selection")
	case <-time.After(150 * time.Millisecond):
	}
}
