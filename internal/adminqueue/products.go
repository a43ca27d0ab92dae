package adminqueue

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/greenbasket/storefront/pkg/clients/catalogapi"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
)

// ProductAPI is the slice of the catalog service the queue needs.
type ProductAPI interface {
	ListProducts(ctx context.Context) ([]catalogapi.Product, error)
	Approve(ctx context.Context, productID string) error
	Reject(ctx context.Context, productID string) error
}

type ProductService interface {
	List(ctx context.Context, query Query) ([]catalogapi.Product, error)
	Approve(ctx context.Context, productID string, query Query) ([]catalogapi.Product, error)
	Reject(ctx context.Context, productID string, query Query) ([]catalogapi.Product, error)
}

type productService struct {
	api ProductAPI
}

func NewProductService(api ProductAPI) (ProductService, error) {
	if api == nil {
		return nil, errors.New("catalog client is required")
	}
	return &productService{api: api}, nil
}

// List fetches the full product queue and applies filter and sort. The
// "user" column maps to the vendor name, "amount" to the price.
func (s *productService) List(ctx context.Context, query Query) ([]catalogapi.Product, error) {
	if err := query.validate(); err != nil {
		return nil, err
	}

	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]catalogapi.Product, 0, len(products))
	for _, product := range products {
		if query.Status != "" && product.Status != query.Status {
			continue
		}
		if !matchesSearch(query.Search, product.Name, product.VendorName, product.ID) {
			continue
		}
		filtered = append(filtered, product)
	}

	sortProducts(filtered, query)
	return filtered, nil
}

func (s *productService) Approve(ctx context.Context, productID string, query Query) ([]catalogapi.Product, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product ID is required")
	}
	if err := s.api.Approve(ctx, productID); err != nil {
		return nil, err
	}
	return s.List(ctx, query)
}

func (s *productService) Reject(ctx context.Context, productID string, query Query) ([]catalogapi.Product, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product ID is required")
	}
	if err := s.api.Reject(ctx, productID); err != nil {
		return nil, err
	}
	return s.List(ctx, query)
}

func sortProducts(products []catalogapi.Product, query Query) {
	column := query.SortBy
	if column == "" {
		column = SortByDate
	}
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		var less bool
		switch column {
		case SortByID:
			less = a.ID < b.ID
		case SortByUser:
			less = strings.ToLower(a.VendorName) < strings.ToLower(b.VendorName)
		case SortByAmount:
			less = a.Price < b.Price
		case SortByStatus:
			less = a.Status < b.Status
		default:
			less = a.CreatedAt.Before(b.CreatedAt)
		}
		if query.Desc {
			return !less
		}
		return less
	})
}
