// Package vouchers owns the per-vendor applied-voucher mapping, the
// global promo code, and the discount math over a selection.
package vouchers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/greenbasket/storefront/pkg/clients/cartapi"
	"github.com/greenbasket/storefront/pkg/clients/voucherapi"
	"github.com/greenbasket/storefront/pkg/eventbus"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
	"github.com/greenbasket/storefront/pkg/logger"
	"github.com/greenbasket/storefront/pkg/statestore"
)

// Applied is the persisted snapshot of one vendor's applied voucher.
type Applied struct {
	VoucherID       string          `json:"voucher_id"`
	VendorID        string          `json:"vendor_id"`
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	ProductIDs      []string        `json:"product_ids,omitempty"`
	MinPurchase     int64           `json:"min_purchase,omitempty"`
	MaxDiscount     int64           `json:"max_discount,omitempty"`
}

func (a Applied) covers(productID string) bool {
	return voucherapi.CoversProduct(a.ProductIDs, productID)
}

// Promo is the persisted global promo code state.
type Promo struct {
	Code     string `json:"code"`
	Discount int64  `json:"discount"`
}

// VoucherStore is the slice of the voucher service this engine needs.
type VoucherStore interface {
	LookupByCode(ctx context.Context, code string) (*voucherapi.Voucher, error)
	ListByVendor(ctx context.Context, vendorID string) ([]voucherapi.Voucher, error)
	ListAll(ctx context.Context) ([]voucherapi.Voucher, error)
	LookupPromo(ctx context.Context, code string) (*voucherapi.Promo, error)
}

type Service interface {
	ApplyVoucherForVendor(ctx context.Context, userID, vendorID, code string) (*Applied, error)
	RemoveVoucherForVendor(ctx context.Context, userID, vendorID string) error
	AppliedVouchers(ctx context.Context, userID string) (map[string]Applied, error)
	TotalVoucherDiscount(ctx context.Context, userID string, items []cartapi.Item) (int64, error)

	ApplyPromo(ctx context.Context, userID, code string) (*Promo, error)
	ClearPromo(ctx context.Context, userID string) error
	PromoDiscount(ctx context.Context, userID string) (int64, error)

	SetUseSellerVouchers(ctx context.Context, userID string, enabled bool) error
	UseSellerVouchers(ctx context.Context, userID string) (bool, error)

	ListVendorVouchers(ctx context.Context, vendorID string) ([]voucherapi.Voucher, error)
	ListAllVouchers(ctx context.Context) ([]voucherapi.Voucher, error)
}

type service struct {
	vouchers VoucherStore
	store    statestore.Store
	bus      eventbus.Bus
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(vouchers VoucherStore, store statestore.Store, bus eventbus.Bus, logg *logger.Logger) (Service, error) {
	if vouchers == nil {
		return nil, errors.New("voucher store client is required")
	}
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if bus == nil {
		return nil, errors.New("event bus is required")
	}
	return &service{
		vouchers: vouchers,
		store:    store,
		bus:      bus,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// ApplyVoucherForVendor resolves the code and records it against the
// vendor. One voucher per vendor at a time; the caller must remove the
// current one before applying another.
func (s *service) ApplyVoucherForVendor(ctx context.Context, userID, vendorID, code string) (*Applied, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user ID is required")
	}
	if strings.TrimSpace(vendorID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor ID is required")
	}
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher code is required")
	}

	applied, err := s.loadApplied(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, exists := applied[vendorID]; exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "remove the existing voucher for this vendor first")
	}

	voucher, err := s.vouchers.LookupByCode(ctx, code)
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid voucher code")
		}
		return nil, err
	}
	if !voucher.ValidAt(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid voucher code")
	}
	if voucher.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher belongs to a different vendor")
	}

	entry := Applied{
		VoucherID:       voucher.ID,
		VendorID:        voucher.VendorID,
		Code:            voucher.Code,
		DiscountPercent: voucher.DiscountPercent,
		ProductIDs:      voucher.ProductIDs,
		MinPurchase:     voucher.MinPurchase,
		MaxDiscount:     voucher.MaxDiscount,
	}
	applied[vendorID] = entry
	if err := s.saveApplied(ctx, userID, applied); err != nil {
		return nil, err
	}

	s.publishChanged(ctx, userID, vendorID, "applied")
	return &entry, nil
}

// RemoveVoucherForVendor clears one vendor's applied voucher.
func (s *service) RemoveVoucherForVendor(ctx context.Context, userID, vendorID string) error {
	if strings.TrimSpace(vendorID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor ID is required")
	}

	applied, err := s.loadApplied(ctx, userID)
	if err != nil {
		return err
	}
	if _, exists := applied[vendorID]; !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no voucher applied for this vendor")
	}

	delete(applied, vendorID)
	if err := s.saveApplied(ctx, userID, applied); err != nil {
		return err
	}

	s.publishChanged(ctx, userID, vendorID, "removed")
	return nil
}

// AppliedVouchers returns the vendor to voucher mapping.
func (s *service) AppliedVouchers(ctx context.Context, userID string) (map[string]Applied, error) {
	return s.loadApplied(ctx, userID)
}

// TotalVoucherDiscount sums each vendor's voucher discount over the
// eligible selected lines. Minimum-purchase gates the vendor's eligible
// subtotal; maximum-discount caps the vendor's contribution.
func (s *service) TotalVoucherDiscount(ctx context.Context, userID string, items []cartapi.Item) (int64, error) {
	applied, err := s.loadApplied(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(applied) == 0 {
		return 0, nil
	}

	eligible := make(map[string]int64, len(applied))
	for _, item := range items {
		voucher, ok := applied[item.VendorID]
		if !ok || !voucher.covers(item.ProductID) {
			continue
		}
		eligible[item.VendorID] += item.UnitPrice * int64(item.Quantity)
	}

	hundred := decimal.NewFromInt(100)
	var total int64
	for vendorID, sum := range eligible {
		voucher := applied[vendorID]
		if sum == 0 {
			continue
		}
		if voucher.MinPurchase > 0 && sum < voucher.MinPurchase {
			continue
		}
		discount := decimal.NewFromInt(sum).Mul(voucher.DiscountPercent).Div(hundred).IntPart()
		if voucher.MaxDiscount > 0 && discount > voucher.MaxDiscount {
			discount = voucher.MaxDiscount
		}
		total += discount
	}
	return total, nil
}

// ApplyPromo resolves the global promo code and persists its discount.
func (s *service) ApplyPromo(ctx context.Context, userID, code string) (*Promo, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code is required")
	}

	resolved, err := s.vouchers.LookupPromo(ctx, code)
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid promo code")
		}
		return nil, err
	}

	promo := Promo{Code: resolved.Code, Discount: resolved.Discount}
	if err := statestore.SetJSON(ctx, s.store, userID, statestore.FieldPromoCode, promo); err != nil {
		return nil, err
	}

	s.publishChanged(ctx, userID, "", "promo_applied")
	return &promo, nil
}

// ClearPromo removes the stored promo code.
func (s *service) ClearPromo(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, userID, statestore.FieldPromoCode); err != nil && !errors.Is(err, statestore.ErrNotFound) {
		return err
	}
	s.publishChanged(ctx, userID, "", "promo_cleared")
	return nil
}

// PromoDiscount returns the stored promo discount, zero when none.
func (s *service) PromoDiscount(ctx context.Context, userID string) (int64, error) {
	var promo Promo
	err := statestore.GetJSON(ctx, s.store, userID, statestore.FieldPromoCode, &promo)
	if errors.Is(err, statestore.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return promo.Discount, nil
}

// SetUseSellerVouchers stores the display-mode flag. It never blocks
// promo and voucher stacking.
func (s *service) SetUseSellerVouchers(ctx context.Context, userID string, enabled bool) error {
	return statestore.SetJSON(ctx, s.store, userID, statestore.FieldVoucherMode, enabled)
}

// UseSellerVouchers reads the display-mode flag, defaulting to false.
func (s *service) UseSellerVouchers(ctx context.Context, userID string) (bool, error) {
	var enabled bool
	err := statestore.GetJSON(ctx, s.store, userID, statestore.FieldVoucherMode, &enabled)
	if errors.Is(err, statestore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return enabled, nil
}

// ListVendorVouchers passes through the vendor's available vouchers.
func (s *service) ListVendorVouchers(ctx context.Context, vendorID string) ([]voucherapi.Voucher, error) {
	if strings.TrimSpace(vendorID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor ID is required")
	}
	return s.vouchers.ListByVendor(ctx, vendorID)
}

// ListAllVouchers passes through the full voucher catalog.
func (s *service) ListAllVouchers(ctx context.Context) ([]voucherapi.Voucher, error) {
	return s.vouchers.ListAll(ctx)
}

func (s *service) loadApplied(ctx context.Context, userID string) (map[string]Applied, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user ID is required")
	}

	applied := make(map[string]Applied)
	err := statestore.GetJSON(ctx, s.store, userID, statestore.FieldAppliedVouchers, &applied)
	if err != nil && !errors.Is(err, statestore.ErrNotFound) {
		return nil, err
	}
	return applied, nil
}

func (s *service) saveApplied(ctx context.Context, userID string, applied map[string]Applied) error {
	return statestore.SetJSON(ctx, s.store, userID, statestore.FieldAppliedVouchers, applied)
}

func (s *service) publishChanged(ctx context.Context, userID, vendorID, action string) {
	payload := map[string]string{"action": action}
	if vendorID != "" {
		payload["vendor_id"] = vendorID
	}
	event, err := eventbus.NewEvent(eventbus.TopicVouchersChanged, userID, payload)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "voucher event build failed", err)
		}
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil && s.logg != nil {
		s.logg.Error(ctx, "voucher event publish failed", err)
	}
}
