package orderapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/greenbasket/storefront/pkg/enums"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
	"github.com/greenbasket/storefront/pkg/types"
)

func validRequest() CreateOrderRequest {
	return CreateOrderRequest{
		UserID:        "u1",
		VendorID:      "v1",
		PaymentMethod: enums.PaymentMethodBalance,
		Items: []LineItem{
			{ProductID: "p1", Quantity: 2, UnitPrice: 10000},
		},
		ShippingAddress: types.Address{Name: "Ann", Street: "1 Main St", City: "Metro", PostalCode: "12345"},
		Total:           20000,
	}
}

func TestDecodeCreateOrderResponseShapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload string
		want    string
	}{
		{"bare id", `{"id":"ord-1"}`, "ord-1"},
		{"nested order", `{"order":{"id":"ord-2"}}`, "ord-2"},
		{"data envelope", `{"data":{"order_id":"ord-3"}}`, "ord-3"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result, err := decodeCreateOrderResponse(json.RawMessage(tc.payload))
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if result.OrderID != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, result.OrderID)
			}
		})
	}
}

func TestDecodeCreateOrderResponseMissingID(t *testing.T) {
	t.Parallel()

	_, err := decodeCreateOrderResponse(json.RawMessage(`{"status":"ok"}`))
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR for missing order ID, got %v", err)
	}
}

func TestCreateOrderRoundTrip(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.VendorID != "v1" {
			t.Errorf("unexpected vendor %q", req.VendorID)
		}
		_, _ = w.Write([]byte(`{"order":{"id":"ord-9"}}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	result, err := client.CreateOrder(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if result.OrderID != "ord-9" {
		t.Fatalf("unexpected order ID %q", result.OrderID)
	}
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	t.Parallel()

	client, err := NewClient("http://order.internal")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	req := validRequest()
	req.Items = nil
	_, err = client.CreateOrder(context.Background(), req)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}
