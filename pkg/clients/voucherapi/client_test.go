package voucherapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
)

func TestVoucherValidAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	base := Voucher{
		StartsAt:  now.Add(-24 * time.Hour),
		ExpiresAt: now.Add(24 * time.Hour),
		Quota:     10,
		Used:      3,
	}

	if !base.ValidAt(now) {
		t.Fatal("expected voucher inside window with quota to be valid")
	}

	expired := base
	expired.ExpiresAt = now.Add(-time.Hour)
	if expired.ValidAt(now) {
		t.Fatal("expected expired voucher to be invalid")
	}

	notStarted := base
	notStarted.StartsAt = now.Add(time.Hour)
	if notStarted.ValidAt(now) {
		t.Fatal("expected not-yet-started voucher to be invalid")
	}

	exhausted := base
	exhausted.Used = exhausted.Quota
	if exhausted.ValidAt(now) {
		t.Fatal("expected exhausted voucher to be invalid")
	}
}

func TestVoucherCovers(t *testing.T) {
	t.Parallel()

	vendorWide := Voucher{}
	if !vendorWide.Covers("any-product") {
		t.Fatal("empty allowlist must cover every product")
	}

	scoped := Voucher{ProductIDs: []string{"p1", "p2"}}
	if !scoped.Covers("p2") {
		t.Fatal("allowlisted product must be covered")
	}
	if scoped.Covers("p3") {
		t.Fatal("product outside allowlist must not be covered")
	}
}

func TestLookupByCodeUnknownMapsToNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such voucher", http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.LookupByCode(context.Background(), "GHOST")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestLookupByCodeDecodesVoucher(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("code") != "SPRING10" {
			t.Errorf("unexpected code query %q", r.URL.Query().Get("code"))
		}
		_, _ = w.Write([]byte(`{"voucher":{"id":"vo-1","vendor_id":"v1","code":"SPRING10","discount_percent":10}}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	voucher, err := client.LookupByCode(context.Background(), "SPRING10")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if voucher.VendorID != "v1" || !voucher.DiscountPercent.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected voucher %+v", voucher)
	}
}
