package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/greenbasket/storefront/internal/pricing"
	"github.com/greenbasket/storefront/pkg/clients/cartapi"
	"github.com/greenbasket/storefront/pkg/clients/orderapi"
	"github.com/greenbasket/storefront/pkg/enums"
	"github.com/greenbasket/storefront/pkg/eventbus"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
	"github.com/greenbasket/storefront/pkg/statestore"
	"github.com/greenbasket/storefront/pkg/types"
)

type stubSelection struct {
	items []cartapi.Item
	err   error
}

func (s *stubSelection) SelectedItems(context.Context, string) ([]cartapi.Item, error) {
	return s.items, s.err
}

type stubDiscounts struct {
	voucher int64
	promo   int64
}

func (s *stubDiscounts) TotalVoucherDiscount(context.Context, string, []cartapi.Item) (int64, error) {
	return s.voucher, nil
}

func (s *stubDiscounts) PromoDiscount(context.Context, string) (int64, error) {
	return s.promo, nil
}

type stubWallet struct {
	balance   int64
	adjustErr error
	deducted  []int64
}

func (s *stubWallet) GetBalance(context.Context, string) (int64, error) {
	return s.balance, nil
}

func (s *stubWallet) Adjust(_ context.Context, _ string, delta int64, _ string) (int64, error) {
	if s.adjustErr != nil {
		return 0, s.adjustErr
	}
	s.deducted = append(s.deducted, delta)
	s.balance += delta
	return s.balance, nil
}

type stubOrders struct {
	created   []orderapi.CreateOrderRequest
	cancelled []string
	failAfter int
}

func (s *stubOrders) CreateOrder(_ context.Context, req orderapi.CreateOrderRequest) (*orderapi.CreateOrderResult, error) {
	if s.failAfter > 0 && len(s.created) >= s.failAfter {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order service down")
	}
	s.created = append(s.created, req)
	return &orderapi.CreateOrderResult{OrderID: fmt.Sprintf("ord-%d", len(s.created))}, nil
}

func (s *stubOrders) CancelOrder(_ context.Context, orderID string) error {
	s.cancelled = append(s.cancelled, orderID)
	return nil
}

type stubCartRemover struct {
	removed []string
	failFor map[string]bool
}

func (s *stubCartRemover) RemoveItem(_ context.Context, _ string, itemID string) error {
	if s.failFor[itemID] {
		return errors.New("remove failed")
	}
	s.removed = append(s.removed, itemID)
	return nil
}

func twoVendorSelection() []cartapi.Item {
	return []cartapi.Item{
		{ID: "ci-1", ProductID: "p1", VendorID: "v1", UnitPrice: 10000, Quantity: 2},
		{ID: "ci-2", ProductID: "p2", VendorID: "v2", UnitPrice: 5000, Quantity: 1},
		{ID: "ci-3", ProductID: "p3", VendorID: "v1", UnitPrice: 1000, Quantity: 1},
	}
}

func validRequest() Request {
	return Request{
		Address:       types.Address{Name: "Ann", Phone: "555-0101", Street: "1 Main St", City: "Metro", PostalCode: "12345"},
		PaymentMethod: enums.PaymentMethodBalance,
	}
}

type fixture struct {
	svc    Service
	wallet *stubWallet
	orders *stubOrders
	cart   *stubCartRemover
	store  statestore.Store
	bus    *eventbus.MemoryBus
}

func newFixture(t *testing.T, selection *stubSelection, discounts *stubDiscounts, wallet *stubWallet) *fixture {
	t.Helper()
	orders := &stubOrders{}
	cart := &stubCartRemover{}
	store := statestore.NewMemoryStore()
	bus := eventbus.NewMemoryBus()

	svc, err := NewService(Deps{
		Selection: selection,
		Discounts: discounts,
		Wallet:    wallet,
		Orders:    orders,
		Cart:      cart,
		Store:     store,
		Bus:       bus,
		Fees:      pricing.Fees{EcoPackaging: 5000, CarbonOffset: 3800},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, wallet: wallet, orders: orders, cart: cart, store: store, bus: bus}
}

func TestCheckoutSplitsOrdersPerVendor(t *testing.T) {
	t.Parallel()

	fx := newFixture(t,
		&stubSelection{items: twoVendorSelection()},
		&stubDiscounts{},
		&stubWallet{balance: 100000},
	)

	completed := 0
	fx.bus.Subscribe(eventbus.TopicCheckoutCompleted, func(context.Context, eventbus.Event) {
		completed++
	})

	result, err := fx.svc.Checkout(context.Background(), "u1", validRequest())
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if len(result.OrderIDs) != 2 {
		t.Fatalf("expected one order per vendor, got %v", result.OrderIDs)
	}
	if len(fx.orders.created) != 2 {
		t.Fatalf("expected 2 order submissions, got %d", len(fx.orders.created))
	}
	if fx.orders.created[0].VendorID != "v1" || fx.orders.created[1].VendorID != "v2" {
		t.Fatalf("vendor grouping wrong: %s / %s", fx.orders.created[0].VendorID, fx.orders.created[1].VendorID)
	}
	if len(fx.orders.created[0].Items) != 2 {
		t.Fatalf("v1 order should carry both v1 lines, got %d", len(fx.orders.created[0].Items))
	}
	if fx.orders.created[0].Total != 21000 || fx.orders.created[1].Total != 5000 {
		t.Fatalf("vendor totals wrong: %d / %d", fx.orders.created[0].Total, fx.orders.created[1].Total)
	}

	if result.Breakdown.Total != 26000 {
		t.Fatalf("expected total 26000, got %d", result.Breakdown.Total)
	}
	if len(fx.wallet.deducted) != 1 || fx.wallet.deducted[0] != -26000 {
		t.Fatalf("expected single deduction of -26000, got %v", fx.wallet.deducted)
	}
	if len(fx.cart.removed) != 3 {
		t.Fatalf("expected all purchased items removed, got %v", fx.cart.removed)
	}
	if completed != 1 {
		t.Fatalf("expected one completion event, got %d", completed)
	}
}

func TestCheckoutBalancePaymentPublishesBalanceRefreshed(t *testing.T) {
	t.Parallel()

	fx := newFixture(t,
		&stubSelection{items: twoVendorSelection()},
		&stubDiscounts{},
		&stubWallet{balance: 100000},
	)

	var events []eventbus.Event
	fx.bus.Subscribe(eventbus.TopicBalanceRefreshed, func(_ context.Context, event eventbus.Event) {
		events = append(events, event)
	})

	if _, err := fx.svc.Checkout(context.Background(), "u1", validRequest()); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected one balance event, got %d", len(events))
	}
	if events[0].UserID != "u1" {
		t.Fatalf("expected event for u1, got %s", events[0].UserID)
	}
	var payload map[string]int64
	if err := json.Unmarshal(events[0].Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["balance"] != 74000 {
		t.Fatalf("expected remaining balance 74000, got %d", payload["balance"])
	}
}

func TestCheckoutInsufficientFundsCreatesNoOrder(t *testing.T) {
	t.Parallel()

	fx := newFixture(t,
		&stubSelection{items: twoVendorSelection()},
		&stubDiscounts{promo: 2000},
		&stubWallet{balance: 10000},
	)

	_, err := fx.svc.Checkout(context.Background(), "u1", validRequest())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInsufficientFunds {
		t.Fatalf("expected INSUFFICIENT_FUNDS, got %v", err)
	}
	if len(fx.orders.created) != 0 {
		t.Fatalf("no order may be created on insufficient funds, got %d", len(fx.orders.created))
	}
}

func TestCheckoutEmptySelectionRedirectsToCart(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, &stubSelection{}, &stubDiscounts{}, &stubWallet{balance: 100000})

	_, err := fx.svc.Checkout(context.Background(), "u1", validRequest())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	details, ok := appErr.Details().(map[string]string)
	if !ok || details["redirect"] != "cart" {
		t.Fatalf("expected cart redirect detail, got %v", appErr.Details())
	}
}

func TestCheckoutMissingShippingFieldsFailFast(t *testing.T) {
	t.Parallel()

	fx := newFixture(t,
		&stubSelection{items: twoVendorSelection()},
		&stubDiscounts{},
		&stubWallet{balance: 100000},
	)

	req := validRequest()
	req.Address.Name = ""
	_, err := fx.svc.Checkout(context.Background(), "u1", req)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if len(fx.orders.created) != 0 {
		t.Fatal("validation failure must abort before order submission")
	}
}

func TestCheckoutContinuesPastCartRemovalFailure(t *testing.T) {
	t.Parallel()

	fx := newFixture(t,
		&stubSelection{items: twoVendorSelection()},
		&stubDiscounts{},
		&stubWallet{balance: 100000},
	)
	fx.cart.failFor = map[string]bool{"ci-2": true}

	result, err := fx.svc.Checkout(context.Background(), "u1", validRequest())
	if err != nil {
		t.Fatalf("checkout must survive removal failures, got %v", err)
	}
	if len(result.OrderIDs) != 2 {
		t.Fatalf("expected completed checkout, got %v", result)
	}
	if len(fx.cart.removed) != 2 {
		t.Fatalf("expected the other removals to proceed, got %v", fx.cart.removed)
	}
}

func TestCheckoutPaymentFailureCancelsCreatedOrders(t *testing.T) {
	t.Parallel()

	wallet := &stubWallet{balance: 100000, adjustErr: errors.New("wallet down")}
	fx := newFixture(t, &stubSelection{items: twoVendorSelection()}, &stubDiscounts{}, wallet)

	_, err := fx.svc.Checkout(context.Background(), "u1", validRequest())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", err)
	}
	if len(fx.orders.cancelled) != 2 {
		t.Fatalf("expected both orders cancelled, got %v", fx.orders.cancelled)
	}
	if len(fx.cart.removed) != 0 {
		t.Fatal("cart must stay intact when payment fails")
	}
}

func TestCheckoutPartialOrderFailureCancelsEarlierOrders(t *testing.T) {
	t.Parallel()

	fx := newFixture(t,
		&stubSelection{items: twoVendorSelection()},
		&stubDiscounts{},
		&stubWallet{balance: 100000},
	)
	fx.orders.failAfter = 1

	_, err := fx.svc.Checkout(context.Background(), "u1", validRequest())
	if err == nil {
		t.Fatal("expected order submission failure")
	}
	if len(fx.orders.cancelled) != 1 || fx.orders.cancelled[0] != "ord-1" {
		t.Fatalf("expected first order cancelled, got %v", fx.orders.cancelled)
	}
}

func TestConfirmationReadsOnce(t *testing.T) {
	t.Parallel()

	fx := newFixture(t,
		&stubSelection{items: twoVendorSelection()},
		&stubDiscounts{},
		&stubWallet{balance: 100000},
	)
	ctx := context.Background()

	result, err := fx.svc.Checkout(ctx, "u1", validRequest())
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	confirmation, err := fx.svc.Confirmation(ctx, "u1")
	if err != nil {
		t.Fatalf("confirmation read failed: %v", err)
	}
	if confirmation.Reference != result.ConfirmationRef {
		t.Fatalf("confirmation reference mismatch: %s vs %s", confirmation.Reference, result.ConfirmationRef)
	}
	if len(confirmation.OrderIDs) != 2 {
		t.Fatalf("unexpected confirmation orders %v", confirmation.OrderIDs)
	}

	_, err = fx.svc.Confirmation(ctx, "u1")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND on second read, got %v", err)
	}
}

func TestCheckoutCashOnDeliverySkipsWallet(t *testing.T) {
	t.Parallel()

	wallet := &stubWallet{balance: 0}
	fx := newFixture(t, &stubSelection{items: twoVendorSelection()}, &stubDiscounts{}, wallet)

	fired := 0
	fx.bus.Subscribe(eventbus.TopicBalanceRefreshed, func(context.Context, eventbus.Event) {
		fired++
	})

	req := validRequest()
	req.PaymentMethod = enums.PaymentMethodCashOnDelivery
	result, err := fx.svc.Checkout(context.Background(), "u1", req)
	if err != nil {
		t.Fatalf("cod checkout failed: %v", err)
	}
	if len(result.OrderIDs) != 2 {
		t.Fatalf("expected 2 orders, got %v", result.OrderIDs)
	}
	if len(wallet.deducted) != 0 {
		t.Fatalf("cod must not touch the wallet, got %v", wallet.deducted)
	}
	if fired != 0 {
		t.Fatalf("cod must not publish a balance event, got %d", fired)
	}
}
