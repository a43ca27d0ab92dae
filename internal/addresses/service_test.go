package addresses

import (
	"context"
	"testing"

	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
	"github.com/greenbasket/storefront/pkg/statestore"
	"github.com/greenbasket/storefront/pkg/types"
)

func validAddress(name string) types.Address {
	return types.Address{
		Name:       name,
		Phone:      "555-0101",
		Street:     "1 Main St",
		City:       "Metro",
		PostalCode: "12345",
	}
}

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(statestore.NewMemoryStore(), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestAddAssignsPositiveIDAndSelects(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	book, err := svc.Add(ctx, "u1", validAddress("Home"))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if len(book.Addresses) != 1 || book.Addresses[0].ID != 1 {
		t.Fatalf("expected first user address with ID 1, got %+v", book.Addresses)
	}
	if book.SelectedID != 1 {
		t.Fatalf("expected new address selected, got %d", book.SelectedID)
	}

	second, err := svc.Add(ctx, "u1", validAddress("Office"))
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if second.Addresses[1].ID != 2 {
		t.Fatalf("expected monotonic IDs, got %+v", second.Addresses)
	}
}

func TestAddRejectsIncompleteAddress(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	addr := validAddress("Home")
	addr.PostalCode = ""

	_, err := svc.Add(context.Background(), "u1", addr)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestSyncProfileDefaultKeepsIDZero(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	book, err := svc.SyncProfileDefault(ctx, "u1", validAddress("Profile"))
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if !book.Addresses[0].IsProfileDefault() {
		t.Fatalf("expected profile default at ID 0, got %+v", book.Addresses[0])
	}

	updated, err := svc.SyncProfileDefault(ctx, "u1", validAddress("Profile Moved"))
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if len(updated.Addresses) != 1 || updated.Addresses[0].Name != "Profile Moved" {
		t.Fatalf("expected upsert, got %+v", updated.Addresses)
	}
}

func TestRemoveSelectedFallsBackToDefault(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SyncProfileDefault(ctx, "u1", validAddress("Profile")); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	book, err := svc.Add(ctx, "u1", validAddress("Home"))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if book.SelectedID == 0 {
		t.Fatal("precondition: added address should be selected")
	}

	after, err := svc.Remove(ctx, "u1", book.SelectedID)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if after.SelectedID != 0 {
		t.Fatalf("expected fallback to profile default, got %d", after.SelectedID)
	}
	if selected, ok := after.Selected(); !ok || !selected.IsProfileDefault() {
		t.Fatalf("expected profile default selected, got %+v", selected)
	}
}

func TestRemoveProfileDefaultRejected(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	_, err := svc.Remove(context.Background(), "u1", 0)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestSelectUnknownAddressFails(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	_, err := svc.Select(context.Background(), "u1", 42)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
