// Package voucherapi talks to the voucher/promotion store.
package voucherapi

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/greenbasket/storefront/pkg/clients/rest"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
)

// Voucher is a vendor-scoped percentage discount.
type Voucher struct {
	ID              string          `json:"id"`
	VendorID        string          `json:"vendor_id"`
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`

	// ProductIDs is the eligibility allowlist; empty means vendor-wide.
	ProductIDs []string `json:"product_ids,omitempty"`

	MinPurchase int64 `json:"min_purchase,omitempty"`
	MaxDiscount int64 `json:"max_discount,omitempty"`

	StartsAt  time.Time `json:"starts_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Quota     int       `json:"quota"`
	Used      int       `json:"used"`
}

// ValidAt reports whether the voucher window is open and quota remains.
func (v Voucher) ValidAt(now time.Time) bool {
	if !v.StartsAt.IsZero() && now.Before(v.StartsAt) {
		return false
	}
	if !v.ExpiresAt.IsZero() && now.After(v.ExpiresAt) {
		return false
	}
	if v.Quota > 0 && v.Used >= v.Quota {
		return false
	}
	return true
}

// Covers reports whether the voucher applies to the given product.
func (v Voucher) Covers(productID string) bool {
	return CoversProduct(v.ProductIDs, productID)
}

// CoversProduct applies the product allowlist rule shared by vouchers
// and their persisted snapshots: an empty allowlist covers everything.
func CoversProduct(productIDs []string, productID string) bool {
	if len(productIDs) == 0 {
		return true
	}
	for _, id := range productIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// Promo is the single global discount code.
type Promo struct {
	Code     string `json:"code"`
	Discount int64  `json:"discount"`
}

// Client wraps the voucher store endpoints the gateway consumes.
type Client struct {
	rest *rest.Client
}

// NewClient builds the voucher store client.
func NewClient(baseURL string, opts ...rest.Option) (*Client, error) {
	restClient, err := rest.New(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{rest: restClient}, nil
}

// LookupByCode resolves a voucher code. Unknown codes map to NOT_FOUND.
func (c *Client) LookupByCode(ctx context.Context, code string) (*Voucher, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher code is required")
	}

	var resp struct {
		Voucher Voucher `json:"voucher"`
	}
	query := url.Values{"code": []string{trimmed}}
	if err := c.rest.Get(ctx, "/vouchers/lookup", query, &resp); err != nil {
		return nil, err
	}
	return &resp.Voucher, nil
}

// ListByVendor returns the vouchers scoped to one vendor.
func (c *Client) ListByVendor(ctx context.Context, vendorID string) ([]Voucher, error) {
	if strings.TrimSpace(vendorID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor ID is required")
	}

	var resp struct {
		Vouchers []Voucher `json:"vouchers"`
	}
	query := url.Values{"vendor_id": []string{vendorID}}
	if err := c.rest.Get(ctx, "/vouchers", query, &resp); err != nil {
		return nil, err
	}
	return resp.Vouchers, nil
}

// ListAll returns every voucher the store knows about.
func (c *Client) ListAll(ctx context.Context) ([]Voucher, error) {
	var resp struct {
		Vouchers []Voucher `json:"vouchers"`
	}
	if err := c.rest.Get(ctx, "/vouchers", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Vouchers, nil
}

// LookupPromo resolves the global promo code to its discount amount.
func (c *Client) LookupPromo(ctx context.Context, code string) (*Promo, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code is required")
	}

	var resp struct {
		Promo Promo `json:"promo"`
	}
	query := url.Values{"code": []string{trimmed}}
	if err := c.rest.Get(ctx, "/promos/lookup", query, &resp); err != nil {
		return nil, err
	}
	return &resp.Promo, nil
}
