// Package selection keeps the per-user checkout selection aligned with
// the live cart and the durable state store.
package selection

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/greenbasket/storefront/pkg/clients/cartapi"
	"github.com/greenbasket/storefront/pkg/eventbus"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
	"github.com/greenbasket/storefront/pkg/logger"
	"github.com/greenbasket/storefront/pkg/statestore"
)

// Phase is where a user's selection sits in its lifecycle.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseSyncing       Phase = "syncing"
	PhaseReady         Phase = "ready"
)

// Snapshot is the reconciled view returned to callers.
type Snapshot struct {
	Phase       Phase          `json:"phase"`
	Items       []cartapi.Item `json:"items"`
	SelectedIDs []string       `json:"selected_ids"`
}

// IsSelected reports membership of one cart item in the selection.
func (s *Snapshot) IsSelected(itemID string) bool {
	for _, id := range s.SelectedIDs {
		if id == itemID {
			return true
		}
	}
	return false
}

// SelectedItems returns the cart lines currently marked for checkout.
func (s *Snapshot) SelectedItems() []cartapi.Item {
	selected := make([]cartapi.Item, 0, len(s.SelectedIDs))
	for _, item := range s.Items {
		if s.IsSelected(item.ID) {
			selected = append(selected, item)
		}
	}
	return selected
}

// record is the persisted selection state. Initialized flips once the
// first reconciliation against a non-empty cart has run; after that the
// default-select-all policy never fires again.
type record struct {
	ItemIDs     []string `json:"item_ids"`
	Initialized bool     `json:"initialized"`
}

// CartLister is the slice of the cart service the reconciler needs.
type CartLister interface {
	ListItems(ctx context.Context, userID string) ([]cartapi.Item, error)
}

type Service interface {
	Sync(ctx context.Context, userID string) (*Snapshot, error)
	Toggle(ctx context.Context, userID, itemID string) (*Snapshot, error)
	SelectAll(ctx context.Context, userID string) (*Snapshot, error)
	Clear(ctx context.Context, userID string) (*Snapshot, error)
	SelectedItems(ctx context.Context, userID string) ([]cartapi.Item, error)
	Close()
}

type service struct {
	cart       CartLister
	store      statestore.Store
	bus        eventbus.Bus
	logg       *logger.Logger
	guardDelay time.Duration

	mu     sync.Mutex
	guards map[string]*time.Timer
	closed bool
}

func NewService(cart CartLister, store statestore.Store, bus eventbus.Bus, logg *logger.Logger, guardDelay time.Duration) (Service, error) {
	if cart == nil {
		return nil, errors.New("cart client is required")
	}
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if bus == nil {
		return nil, errors.New("event bus is required")
	}
	if guardDelay <= 0 {
		guardDelay = 3 * time.Second
	}
	return &service{
		cart:       cart,
		store:      store,
		bus:        bus,
		logg:       logg,
		guardDelay: guardDelay,
		guards:     make(map[string]*time.Timer),
	}, nil
}

// Sync reloads the cart, reconciles the persisted selection against it,
// and persists the outcome.
func (s *service) Sync(ctx context.Context, userID string) (*Snapshot, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user ID is required")
	}

	rec, err := s.loadRecord(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.cart.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	live := make(map[string]bool, len(items))
	for _, item := range items {
		live[item.ID] = true
	}

	selected := intersect(rec.ItemIDs, live)
	changed := len(selected) != len(rec.ItemIDs)

	if !rec.Initialized {
		// First reconciliation: a useful persisted intersection wins;
		// anything else falls back to select-all. Stale persisted IDs
		// with an empty intersection take the same recovery path as an
		// absent record.
		if len(selected) == 0 && len(items) > 0 {
			selected = allIDs(items)
			changed = true
		}
		if len(items) > 0 {
			rec.Initialized = true
			changed = true
		}
	}

	rec.ItemIDs = selected
	if changed {
		if err := s.saveRecord(ctx, userID, rec); err != nil {
			return nil, err
		}
	}

	s.publish(ctx, eventbus.TopicCartRefreshed, userID, map[string]int{"item_count": len(items)})
	s.armEmptyGuard(userID, rec, len(items))

	return &Snapshot{Phase: PhaseReady, Items: items, SelectedIDs: selected}, nil
}

// Toggle flips one cart item in or out of the selection.
func (s *service) Toggle(ctx context.Context, userID, itemID string) (*Snapshot, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item ID is required")
	}
	return s.mutate(ctx, userID, func(selected []string, items []cartapi.Item) ([]string, error) {
		found := false
		for _, item := range items {
			if item.ID == itemID {
				found = true
				break
			}
		}
		if !found {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item is not in the cart")
		}

		next := make([]string, 0, len(selected)+1)
		removed := false
		for _, id := range selected {
			if id == itemID {
				removed = true
				continue
			}
			next = append(next, id)
		}
		if !removed {
			next = append(next, itemID)
		}
		return next, nil
	})
}

// SelectAll marks every cart line for checkout.
func (s *service) SelectAll(ctx context.Context, userID string) (*Snapshot, error) {
	return s.mutate(ctx, userID, func(_ []string, items []cartapi.Item) ([]string, error) {
		return allIDs(items), nil
	})
}

// Clear empties the selection without touching the cart.
func (s *service) Clear(ctx context.Context, userID string) (*Snapshot, error) {
	return s.mutate(ctx, userID, func([]string, []cartapi.Item) ([]string, error) {
		return nil, nil
	})
}

// SelectedItems returns the reconciled selected cart lines.
func (s *service) SelectedItems(ctx context.Context, userID string) ([]cartapi.Item, error) {
	snapshot, err := s.Sync(ctx, userID)
	if err != nil {
		return nil, err
	}
	return snapshot.SelectedItems(), nil
}

// Close stops every pending empty-selection guard.
func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for userID, timer := range s.guards {
		timer.Stop()
		delete(s.guards, userID)
	}
}

func (s *service) mutate(ctx context.Context, userID string, apply func([]string, []cartapi.Item) ([]string, error)) (*Snapshot, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user ID is required")
	}

	rec, err := s.loadRecord(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.cart.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	live := make(map[string]bool, len(items))
	for _, item := range items {
		live[item.ID] = true
	}

	selected, err := apply(intersect(rec.ItemIDs, live), items)
	if err != nil {
		return nil, err
	}

	rec.ItemIDs = selected
	if len(items) > 0 {
		rec.Initialized = true
	}
	if err := s.saveRecord(ctx, userID, rec); err != nil {
		return nil, err
	}

	s.armEmptyGuard(userID, rec, len(items))

	return &Snapshot{Phase: PhaseReady, Items: items, SelectedIDs: selected}, nil
}

func (s *service) loadRecord(ctx context.Context, userID string) (record, error) {
	var rec record
	err := statestore.GetJSON(ctx, s.store, userID, statestore.FieldSelection, &rec)
	if err != nil && !errors.Is(err, statestore.ErrNotFound) {
		return record{}, err
	}
	return rec, nil
}

func (s *service) saveRecord(ctx context.Context, userID string, rec record) error {
	return statestore.SetJSON(ctx, s.store, userID, statestore.FieldSelection, rec)
}

// armEmptyGuard schedules the delayed check that catches a ready cart
// with nothing selected. Re-arming replaces the pending timer.
func (s *service) armEmptyGuard(userID string, rec record, cartSize int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if timer, ok := s.guards[userID]; ok {
		timer.Stop()
		delete(s.guards, userID)
	}
	if !rec.Initialized || cartSize == 0 || len(rec.ItemIDs) > 0 {
		return
	}
	s.guards[userID] = time.AfterFunc(s.guardDelay, func() {
		s.fireEmptyGuard(userID)
	})
}

func (s *service) fireEmptyGuard(userID string) {
	s.mu.Lock()
	delete(s.guards, userID)
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	ctx := context.Background()
	rec, err := s.loadRecord(ctx, userID)
	if err != nil || len(rec.ItemIDs) > 0 {
		return
	}

	items, err := s.cart.ListItems(ctx, userID)
	if err != nil || len(items) == 0 {
		return
	}

	s.publish(ctx, eventbus.TopicSelectionEmpty, userID, map[string]string{"redirect": "cart"})
}

func (s *service) publish(ctx context.Context, topic, userID string, payload any) {
	event, err := eventbus.NewEvent(topic, userID, payload)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "selection event build failed", err)
		}
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil && s.logg != nil {
		s.logg.Error(ctx, "selection event publish failed", err)
	}
}

func intersect(ids []string, live map[string]bool) []string {
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if live[id] {
			kept = append(kept, id)
		}
	}
	return kept
}

func allIDs(items []cartapi.Item) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}
