// Package checkout sequences a storefront checkout: validation, balance
// verification, per-vendor order submission, payment, and cart cleanup.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/greenbasket/storefront/internal/pricing"
	"github.com/greenbasket/storefront/pkg/clients/cartapi"
	"github.com/greenbasket/storefront/pkg/clients/orderapi"
	"github.com/greenbasket/storefront/pkg/enums"
	"github.com/greenbasket/storefront/pkg/eventbus"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
	"github.com/greenbasket/storefront/pkg/logger"
	"github.com/greenbasket/storefront/pkg/metrics"
	"github.com/greenbasket/storefront/pkg/statestore"
	"github.com/greenbasket/storefront/pkg/types"
)

// Request is the checkout submission.
type Request struct {
	Address           types.Address       `json:"address" validate:"required"`
	PaymentMethod     enums.PaymentMethod `json:"payment_method" validate:"required"`
	EcoPackagingCount int                 `json:"eco_packaging_count" validate:"gte=0"`
	CarbonOffset      bool                `json:"carbon_offset"`
	Notes             string              `json:"notes" validate:"max=500"`
}

// Result is what a completed checkout returns to the caller.
type Result struct {
	OrderIDs        []string          `json:"order_ids"`
	ConfirmationRef string            `json:"confirmation_ref"`
	Breakdown       pricing.Breakdown `json:"breakdown"`
}

// Confirmation is the transient payload the confirmation view reads.
type Confirmation struct {
	Reference         string              `json:"reference"`
	OrderIDs          []string            `json:"order_ids"`
	Items             []cartapi.Item      `json:"items"`
	Address           types.Address       `json:"address"`
	PaymentMethod     enums.PaymentMethod `json:"payment_method"`
	EcoPackagingCount int                 `json:"eco_packaging_count"`
	CarbonOffset      bool                `json:"carbon_offset"`
	Notes             string              `json:"notes,omitempty"`
	Breakdown         pricing.Breakdown   `json:"breakdown"`
	CreatedAt         time.Time           `json:"created_at"`
}

// SelectionReader yields the reconciled selected cart lines.
type SelectionReader interface {
	SelectedItems(ctx context.Context, userID string) ([]cartapi.Item, error)
}

// DiscountReader yields the stacked discount components.
type DiscountReader interface {
	TotalVoucherDiscount(ctx context.Context, userID string, items []cartapi.Item) (int64, error)
	PromoDiscount(ctx context.Context, userID string) (int64, error)
}

// Wallet is the slice of the wallet service checkout needs.
type Wallet interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	Adjust(ctx context.Context, userID string, delta int64, note string) (int64, error)
}

// Orders is the slice of the order service checkout needs.
type Orders interface {
	CreateOrder(ctx context.Context, req orderapi.CreateOrderRequest) (*orderapi.CreateOrderResult, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// CartRemover removes purchased lines after checkout.
type CartRemover interface {
	RemoveItem(ctx context.Context, userID, itemID string) error
}

type Service interface {
	Checkout(ctx context.Context, userID string, req Request) (*Result, error)
	Confirmation(ctx context.Context, userID string) (*Confirmation, error)
}

// Deps wires the orchestrator's collaborators.
type Deps struct {
	Selection SelectionReader
	Discounts DiscountReader
	Wallet    Wallet
	Orders    Orders
	Cart      CartRemover
	Store     statestore.Store
	Bus       eventbus.Bus
	Logger    *logger.Logger
	Metrics   *metrics.CheckoutMetrics
	Fees      pricing.Fees
	Validate  *validator.Validate
}

type service struct {
	deps     Deps
	validate *validator.Validate
}

func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Selection == nil:
		return nil, errors.New("selection reader is required")
	case deps.Discounts == nil:
		return nil, errors.New("discount reader is required")
	case deps.Wallet == nil:
		return nil, errors.New("wallet client is required")
	case deps.Orders == nil:
		return nil, errors.New("order client is required")
	case deps.Cart == nil:
		return nil, errors.New("cart client is required")
	case deps.Store == nil:
		return nil, errors.New("state store is required")
	case deps.Bus == nil:
		return nil, errors.New("event bus is required")
	}

	validate := deps.Validate
	if validate == nil {
		validate = validator.New()
	}
	return &service{deps: deps, validate: validate}, nil
}

// Checkout runs the full sequence. Any failure before payment leaves no
// orders behind; a payment failure after order creation triggers a
// best-effort compensating cancel per order.
func (s *service) Checkout(ctx context.Context, userID string, req Request) (*Result, error) {
	started := time.Now()
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user ID is required")
	}

	if err := s.validateRequest(req); err != nil {
		s.deps.Metrics.IncFailed("validation")
		return nil, err
	}

	items, err := s.deps.Selection.SelectedItems(ctx, userID)
	if err != nil {
		s.deps.Metrics.IncFailed("selection")
		return nil, err
	}
	if len(items) == 0 {
		s.deps.Metrics.IncFailed("selection")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "select at least one cart item before checking out").
			WithDetails(map[string]string{"redirect": "cart"})
	}

	breakdown, err := s.priceSelection(ctx, userID, items, req)
	if err != nil {
		s.deps.Metrics.IncFailed("pricing")
		return nil, err
	}

	if req.PaymentMethod == enums.PaymentMethodBalance {
		balance, err := s.deps.Wallet.GetBalance(ctx, userID)
		if err != nil {
			s.deps.Metrics.IncFailed("balance_check")
			return nil, err
		}
		if balance < breakdown.Total {
			s.deps.Metrics.IncFailed("balance_check")
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientFunds,
				"balance does not cover the total; top up or switch to cash on delivery").
				WithDetails(map[string]int64{"balance": balance, "total": breakdown.Total})
		}
	}

	orderIDs, err := s.submitOrders(ctx, userID, items, req)
	if err != nil {
		s.deps.Metrics.IncFailed("order_submission")
		return nil, err
	}
	s.deps.Metrics.AddOrders(len(orderIDs))

	if req.PaymentMethod == enums.PaymentMethodBalance {
		note := fmt.Sprintf("order payment %s", strings.Join(orderIDs, ","))
		remaining, err := s.deps.Wallet.Adjust(ctx, userID, -breakdown.Total, note)
		if err != nil {
			s.deps.Metrics.IncFailed("payment")
			s.cancelOrders(ctx, userID, orderIDs)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment failed after order creation")
		}
		s.publishBalanceRefreshed(ctx, userID, remaining)
	}

	s.cleanupCart(ctx, userID, items)

	confirmation := Confirmation{
		Reference:         uuid.NewString(),
		OrderIDs:          orderIDs,
		Items:             items,
		Address:           req.Address,
		PaymentMethod:     req.PaymentMethod,
		EcoPackagingCount: req.EcoPackagingCount,
		CarbonOffset:      req.CarbonOffset,
		Notes:             req.Notes,
		Breakdown:         breakdown,
		CreatedAt:         time.Now().UTC(),
	}
	if err := statestore.SetJSON(ctx, s.deps.Store, userID, statestore.FieldConfirmation, confirmation); err != nil {
		// The orders exist and payment went through; losing the
		// confirmation payload is logged, not fatal.
		s.logError(ctx, "persist confirmation failed", err)
	}

	s.publishCompleted(ctx, userID, orderIDs)
	s.deps.Metrics.IncCompleted()
	s.deps.Metrics.ObserveDuration(string(req.PaymentMethod), time.Since(started))

	return &Result{
		OrderIDs:        orderIDs,
		ConfirmationRef: confirmation.Reference,
		Breakdown:       breakdown,
	}, nil
}

// Confirmation returns the transient confirmation payload and clears it
// so the view reads it exactly once.
func (s *service) Confirmation(ctx context.Context, userID string) (*Confirmation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user ID is required")
	}

	var confirmation Confirmation
	err := statestore.GetJSON(ctx, s.deps.Store, userID, statestore.FieldConfirmation, &confirmation)
	if errors.Is(err, statestore.ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no pending order confirmation")
	}
	if err != nil {
		return nil, err
	}

	if err := s.deps.Store.Delete(ctx, userID, statestore.FieldConfirmation); err != nil && !errors.Is(err, statestore.ErrNotFound) {
		s.logError(ctx, "clear confirmation failed", err)
	}
	return &confirmation, nil
}

func (s *service) validateRequest(req Request) error {
	if !req.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
			WithDetails(map[string]string{"payment_method": "must be balance or cod"})
	}
	if err := s.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			details := make(map[string]string, len(fieldErrs))
			for _, fieldErr := range fieldErrs {
				details[fieldErr.Field()] = fmt.Sprintf("failed %s validation", fieldErr.Tag())
			}
			return pkgerrors.New(pkgerrors.CodeValidation, "shipping details are incomplete").WithDetails(details)
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid checkout request")
	}
	return nil
}

func (s *service) priceSelection(ctx context.Context, userID string, items []cartapi.Item, req Request) (pricing.Breakdown, error) {
	voucherDiscount, err := s.deps.Discounts.TotalVoucherDiscount(ctx, userID, items)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	promoDiscount, err := s.deps.Discounts.PromoDiscount(ctx, userID)
	if err != nil {
		return pricing.Breakdown{}, err
	}

	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity})
	}
	return pricing.Calculate(pricing.Input{
		Lines:             lines,
		EcoPackagingCount: req.EcoPackagingCount,
		CarbonOffset:      req.CarbonOffset,
		PromoDiscount:     promoDiscount,
		VoucherDiscount:   voucherDiscount,
	}, s.deps.Fees), nil
}

// submitOrders groups the selection by vendor and submits one order per
// vendor, in the order vendors first appear in the selection. A failure
// part-way cancels the orders already created.
func (s *service) submitOrders(ctx context.Context, userID string, items []cartapi.Item, req Request) ([]string, error) {
	vendorOrder := make([]string, 0, 4)
	grouped := make(map[string][]cartapi.Item)
	for _, item := range items {
		if _, seen := grouped[item.VendorID]; !seen {
			vendorOrder = append(vendorOrder, item.VendorID)
		}
		grouped[item.VendorID] = append(grouped[item.VendorID], item)
	}

	orderIDs := make([]string, 0, len(vendorOrder))
	for _, vendorID := range vendorOrder {
		vendorItems := grouped[vendorID]
		lines := make([]orderapi.LineItem, 0, len(vendorItems))
		var vendorTotal int64
		for _, item := range vendorItems {
			lines = append(lines, orderapi.LineItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
			vendorTotal += item.UnitPrice * int64(item.Quantity)
		}

		result, err := s.deps.Orders.CreateOrder(ctx, orderapi.CreateOrderRequest{
			UserID:          userID,
			VendorID:        vendorID,
			Items:           lines,
			PaymentMethod:   req.PaymentMethod,
			ShippingAddress: req.Address,
			Notes:           req.Notes,
			Total:           vendorTotal,
		})
		if err != nil {
			s.cancelOrders(ctx, userID, orderIDs)
			return nil, err
		}
		orderIDs = append(orderIDs, result.OrderID)
	}
	return orderIDs, nil
}

// cancelOrders is the best-effort compensating action. Failures are
// logged with the order IDs so reconciliation can pick them up.
func (s *service) cancelOrders(ctx context.Context, userID string, orderIDs []string) {
	for _, orderID := range orderIDs {
		if err := s.deps.Orders.CancelOrder(ctx, orderID); err != nil {
			if s.deps.Logger != nil {
				ctx := s.deps.Logger.WithOrderID(s.deps.Logger.WithUserID(ctx, userID), orderID)
				s.deps.Logger.Error(ctx, "compensating order cancel failed; manual reconciliation needed", err)
			}
		}
	}
}

// cleanupCart removes purchased lines one by one, continuing past
// individual failures.
func (s *service) cleanupCart(ctx context.Context, userID string, items []cartapi.Item) {
	var combined error
	for _, item := range items {
		if err := s.deps.Cart.RemoveItem(ctx, userID, item.ID); err != nil {
			combined = multierr.Append(combined, fmt.Errorf("remove item %s: %w", item.ID, err))
		}
	}
	if combined != nil {
		s.logError(ctx, "cart cleanup left items behind", combined)
	}
}

func (s *service) publishBalanceRefreshed(ctx context.Context, userID string, balance int64) {
	event, err := eventbus.NewEvent(eventbus.TopicBalanceRefreshed, userID, map[string]int64{"balance": balance})
	if err != nil {
		s.logError(ctx, "balance event build failed", err)
		return
	}
	if err := s.deps.Bus.Publish(ctx, event); err != nil {
		s.logError(ctx, "balance event publish failed", err)
	}
}

func (s *service) publishCompleted(ctx context.Context, userID string, orderIDs []string) {
	event, err := eventbus.NewEvent(eventbus.TopicCheckoutCompleted, userID, map[string][]string{"order_ids": orderIDs})
	if err != nil {
		s.logError(ctx, "checkout event build failed", err)
		return
	}
	if err := s.deps.Bus.Publish(ctx, event); err != nil {
		s.logError(ctx, "checkout event publish failed", err)
	}
}

func (s *service) logError(ctx context.Context, msg string, err error) {
	if s.deps.Logger != nil {
		s.deps.Logger.Error(ctx, msg, err)
	}
}
