package adminqueue

import (
	"context"
	"testing"
	"time"

	"github.com/greenbasket/storefront/pkg/clients/catalogapi"
	"github.com/greenbasket/storefront/pkg/clients/topupapi"
	"github.com/greenbasket/storefront/pkg/enums"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
)

type stubTopUpAPI struct {
	requests []topupapi.Request
	approved []string
	rejected []string
}

func (s *stubTopUpAPI) List(context.Context) ([]topupapi.Request, error) {
	out := make([]topupapi.Request, len(s.requests))
	copy(out, s.requests)
	return out, nil
}

func (s *stubTopUpAPI) Approve(_ context.Context, id string) error {
	s.approved = append(s.approved, id)
	for i := range s.requests {
		if s.requests[i].ID == id {
			s.requests[i].Status = enums.ReviewStatusApproved
		}
	}
	return nil
}

func (s *stubTopUpAPI) Reject(_ context.Context, id string) error {
	s.rejected = append(s.rejected, id)
	return nil
}

type stubProductAPI struct {
	products []catalogapi.Product
}

func (s *stubProductAPI) ListProducts(context.Context) ([]catalogapi.Product, error) {
	out := make([]catalogapi.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *stubProductAPI) Approve(context.Context, string) error { return nil }
func (s *stubProductAPI) Reject(context.Context, string) error  { return nil }

func day(n int) time.Time {
	return time.Date(2026, 5, n, 0, 0, 0, 0, time.UTC)
}

func seedRequests() []topupapi.Request {
	return []topupapi.Request{
		{ID: "t1", UserID: "u1", UserName: "Carol", Amount: 50000, Status: enums.ReviewStatusPending, CreatedAt: day(3)},
		{ID: "t2", UserID: "u2", UserName: "alice", Amount: 20000, Status: enums.ReviewStatusApproved, CreatedAt: day(1)},
		{ID: "t3", UserID: "u3", UserName: "Bob", Amount: 80000, Status: enums.ReviewStatusPending, CreatedAt: day(2)},
	}
}

func TestTopUpListFiltersByStatusAndSearch(t *testing.T) {
	t.Parallel()

	svc, err := NewTopUpService(&stubTopUpAPI{requests: seedRequests()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	pending, err := svc.List(context.Background(), Query{Status: enums.ReviewStatusPending})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}

	byName, err := svc.List(context.Background(), Query{Search: "bob"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(byName) != 1 || byName[0].ID != "t3" {
		t.Fatalf("expected case-insensitive match on t3, got %v", byName)
	}
}

func TestTopUpListSortsByColumn(t *testing.T) {
	t.Parallel()

	svc, err := NewTopUpService(&stubTopUpAPI{requests: seedRequests()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	byAmountDesc, err := svc.List(ctx, Query{SortBy: SortByAmount, Desc: true})
	if err != nil {
		t.Fatalf("sort failed: %v", err)
	}
	if byAmountDesc[0].ID != "t3" || byAmountDesc[2].ID != "t2" {
		t.Fatalf("amount desc order wrong: %v", byAmountDesc)
	}

	byUser, err := svc.List(ctx, Query{SortBy: SortByUser})
	if err != nil {
		t.Fatalf("sort failed: %v", err)
	}
	if byUser[0].UserName != "alice" || byUser[2].UserName != "Carol" {
		t.Fatalf("user sort must ignore case: %v", byUser)
	}

	byDate, err := svc.List(ctx, Query{SortBy: SortByDate})
	if err != nil {
		t.Fatalf("sort failed: %v", err)
	}
	if byDate[0].ID != "t2" || byDate[2].ID != "t1" {
		t.Fatalf("date asc order wrong: %v", byDate)
	}
}

func TestTopUpListRejectsUnknownSortColumn(t *testing.T) {
	t.Parallel()

	svc, err := NewTopUpService(&stubTopUpAPI{requests: seedRequests()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.List(context.Background(), Query{SortBy: "color"})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestTopUpApproveActsThenRefetches(t *testing.T) {
	t.Parallel()

	api := &stubTopUpAPI{requests: seedRequests()}
	svc, err := NewTopUpService(api)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	refreshed, err := svc.Approve(context.Background(), "t1", Query{Status: enums.ReviewStatusPending})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if len(api.approved) != 1 || api.approved[0] != "t1" {
		t.Fatalf("approve not forwarded: %v", api.approved)
	}
	for _, req := range refreshed {
		if req.ID == "t1" {
			t.Fatal("approved request still listed as pending after refetch")
		}
	}
}

func TestProductListSortsByVendorAndPrice(t *testing.T) {
	t.Parallel()

	svc, err := NewProductService(&stubProductAPI{products: []catalogapi.Product{
		{ID: "p1", VendorName: "Beta Farm", Name: "Kale", Price: 4000, Status: enums.ReviewStatusPending, CreatedAt: day(1)},
		{ID: "p2", VendorName: "acme", Name: "Apples", Price: 9000, Status: enums.ReviewStatusPending, CreatedAt: day(2)},
	}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	byVendor, err := svc.List(ctx, Query{SortBy: SortByUser})
	if err != nil {
		t.Fatalf("sort failed: %v", err)
	}
	if byVendor[0].ID != "p2" {
		t.Fatalf("vendor sort wrong: %v", byVendor)
	}

	byPrice, err := svc.List(ctx, Query{SortBy: SortByAmount, Desc: true})
	if err != nil {
		t.Fatalf("sort failed: %v", err)
	}
	if byPrice[0].Price != 9000 {
		t.Fatalf("price sort wrong: %v", byPrice)
	}
}
