package adminqueue

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/greenbasket/storefront/pkg/clients/topupapi"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
)

// TopUpAPI is the slice of the top-up service the queue needs.
type TopUpAPI interface {
	List(ctx context.Context) ([]topupapi.Request, error)
	Approve(ctx context.Context, requestID string) error
	Reject(ctx context.Context, requestID string) error
}

type TopUpService interface {
	List(ctx context.Context, query Query) ([]topupapi.Request, error)
	Approve(ctx context.Context, requestID string, query Query) ([]topupapi.Request, error)
	Reject(ctx context.Context, requestID string, query Query) ([]topupapi.Request, error)
}

type topUpService struct {
	api TopUpAPI
}

func NewTopUpService(api TopUpAPI) (TopUpService, error) {
	if api == nil {
		return nil, errors.New("top-up client is required")
	}
	return &topUpService{api: api}, nil
}

// List fetches the full queue and applies filter and sort.
func (s *topUpService) List(ctx context.Context, query Query) ([]topupapi.Request, error) {
	if err := query.validate(); err != nil {
		return nil, err
	}

	requests, err := s.api.List(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]topupapi.Request, 0, len(requests))
	for _, req := range requests {
		if query.Status != "" && req.Status != query.Status {
			continue
		}
		if !matchesSearch(query.Search, req.UserName, req.UserID, req.ID) {
			continue
		}
		filtered = append(filtered, req)
	}

	sortTopUps(filtered, query)
	return filtered, nil
}

// Approve acts on one request and returns the refreshed queue.
func (s *topUpService) Approve(ctx context.Context, requestID string, query Query) ([]topupapi.Request, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request ID is required")
	}
	if err := s.api.Approve(ctx, requestID); err != nil {
		return nil, err
	}
	return s.List(ctx, query)
}

// Reject acts on one request and returns the refreshed queue.
func (s *topUpService) Reject(ctx context.Context, requestID string, query Query) ([]topupapi.Request, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request ID is required")
	}
	if err := s.api.Reject(ctx, requestID); err != nil {
		return nil, err
	}
	return s.List(ctx, query)
}

func sortTopUps(requests []topupapi.Request, query Query) {
	column := query.SortBy
	if column == "" {
		column = SortByDate
	}
	sort.SliceStable(requests, func(i, j int) bool {
		a, b := requests[i], requests[j]
		var less bool
		switch column {
		case SortByID:
			less = a.ID < b.ID
		case SortByUser:
			less = strings.ToLower(a.UserName) < strings.ToLower(b.UserName)
		case SortByAmount:
			less = a.Amount < b.Amount
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
