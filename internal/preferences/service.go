// Package preferences stores small per-user UI preferences.
package preferences

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
	"github.com/greenbasket/storefront/pkg/statestore"
)

type Service interface {
	SetSidebarCollapsed(ctx context.Context, userID string, collapsed bool) error
	SidebarCollapsed(ctx context.Context, userID string) (bool, error)
}

type service struct {
	store statestore.Store
}

func NewService(store statestore.Store) (Service, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	return &service{store: store}, nil
}

func (s *service) SetSidebarCollapsed(ctx context.Context, userID string, collapsed bool) error {
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user ID is required")
	}
	return statestore.SetJSON(ctx, s.store, userID, statestore.FieldSidebar, collapsed)
}

func (s *service) SidebarCollapsed(ctx context.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "user ID is required")
	}

	var collapsed bool
	err := statestore.GetJSON(ctx, s.store, userID, statestore.FieldSidebar, &collapsed)
	if errors.Is(err, statestore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return collapsed, nil
}
