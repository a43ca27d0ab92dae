package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Canonical field names for per-user storefront state. Consumers must
// use these rather than ad hoc keys so every backend stays compatible.
const (
	FieldSelection       = "selected_cart_items"
	FieldPromoCode       = "promo_code"
	FieldVoucherMode     = "use_seller_vouchers"
	FieldAppliedVouchers = "applied_vouchers"
	FieldAddresses       = "addresses"
	FieldWishlist        = "wishlist"
	FieldSidebar         = "sidebar_collapsed"
	FieldConfirmation    = "order_confirmation"
)

// ErrNotFound signals the field has never been written for the user.
var ErrNotFound = errors.New("statestore: field not set")

// Store is the narrow persistence port for per-user storefront state.
// It replaces direct browser-storage access with an injected backend.
type Store interface {
	Get(ctx context.Context, userID, field string) (string, error)
	Set(ctx context.Context, userID, field, value string) error
	Delete(ctx context.Context, userID, field string) error
}

// GetJSON loads and unmarshals a stored JSON document into dest.
func GetJSON(ctx context.Context, store Store, userID, field string, dest any) error {
	raw, err := store.Get(ctx, userID, field)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("decoding %s state: %w", field, err)
	}
	return nil
}

// SetJSON marshals value and stores it under the given field.
func SetJSON(ctx context.Context, store Store, userID, field string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s state: %w", field, err)
	}
	return store.Set(ctx, userID, field, string(raw))
}
