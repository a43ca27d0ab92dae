// Package wishlist keeps the per-user wished product IDs, validated
// against the catalog.
package wishlist

import (
	"context"
	"errors"
	"strings"

	"github.com/greenbasket/storefront/pkg/clients/catalogapi"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
	"github.com/greenbasket/storefront/pkg/logger"
	"github.com/greenbasket/storefront/pkg/statestore"
)

// Catalog is the slice of the catalog service the wishlist needs.
type Catalog interface {
	GetProduct(ctx context.Context, productID string) (*catalogapi.Product, error)
}

type Service interface {
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
	List(ctx context.Context, userID string) ([]catalogapi.Product, error)
}

type service struct {
	catalog Catalog
	store   statestore.Store
	logg    *logger.Logger
}

func NewService(catalog Catalog, store statestore.Store, logg *logger.Logger) (Service, error) {
	if catalog == nil {
		return nil, errors.New("catalog client is required")
	}
	if store == nil {
		return nil, errors.New("state store is required")
	}
	return &service{catalog: catalog, store: store, logg: logg}, nil
}

// Add wishes a product after checking it exists in the catalog.
func (s *service) Add(ctx context.Context, userID, productID string) error {
	if strings.TrimSpace(productID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product ID is required")
	}

	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return err
	}

	ids, err := s.loadIDs(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == productID {
			return nil
		}
	}
	ids = append(ids, productID)
	return statestore.SetJSON(ctx, s.store, userID, statestore.FieldWishlist, ids)
}

// Remove drops a product from the wishlist.
func (s *service) Remove(ctx context.Context, userID, productID string) error {
	ids, err := s.loadIDs(ctx, userID)
	if err != nil {
		return err
	}

	kept := ids[:0]
	found := false
	for _, id := range ids {
		if id == productID {
			found = true
			continue
		}
		kept = append(kept, id)
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product is not on the wishlist")
	}
	return statestore.SetJSON(ctx, s.store, userID, statestore.FieldWishlist, kept)
}

// List hydrates the wished products from the catalog. Products the
// catalog no longer knows are pruned from the stored list.
func (s *service) List(ctx context.Context, userID string) ([]catalogapi.Product, error) {
	ids, err := s.loadIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	products := make([]catalogapi.Product, 0, len(ids))
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		product, err := s.catalog.GetProduct(ctx, id)
		if err != nil {
			if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
				continue
			}
			return nil, err
		}
		products = append(products, *product)
		kept = append(kept, id)
	}

	if len(kept) != len(ids) {
		if err := statestore.SetJSON(ctx, s.store, userID, statestore.FieldWishlist, kept); err != nil && s.logg != nil {
			s.logg.Error(ctx, "wishlist prune persist failed", err)
		}
	}
	return products, nil
}

func (s *service) loadIDs(ctx context.Context, userID string) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user ID is required")
	}

	var ids []string
	err := statestore.GetJSON(ctx, s.store, userID, statestore.FieldWishlist, &ids)
	if err != nil && !errors.Is(err, statestore.ErrNotFound) {
		return nil, err
	}
	return ids, nil
}
