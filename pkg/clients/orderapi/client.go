// Package orderapi talks to the order service.
package orderapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/greenbasket/storefront/pkg/clients/rest"
	"github.com/greenbasket/storefront/pkg/enums"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
	"github.com/greenbasket/storefront/pkg/types"
)

// LineItem is one ordered product line.
type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// CreateOrderRequest is the order submission payload. One request covers
// exactly one vendor; multi-vendor checkouts submit one request per vendor.
type CreateOrderRequest struct {
	UserID          string              `json:"user_id"`
	VendorID        string              `json:"vendor_id"`
	Items           []LineItem          `json:"items"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	ShippingAddress types.Address       `json:"shipping_address"`
	Notes           string              `json:"notes,omitempty"`
	Total           int64               `json:"total"`
}

// CreateOrderResult is the normalized order-creation response.
type CreateOrderResult struct {
	OrderID string
}

// Order is an order as reported by the order service.
type Order struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	VendorID  string            `json:"vendor_id"`
	Status    enums.OrderStatus `json:"status"`
	Total     int64             `json:"total"`
	CreatedAt time.Time         `json:"created_at"`
}

// Client wraps the order service endpoints the gateway consumes.
type Client struct {
	rest *rest.Client
}

// NewClient builds the order service client.
func NewClient(baseURL string, opts ...rest.Option) (*Client, error) {
	restClient, err := rest.New(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{rest: restClient}, nil
}

// CreateOrder submits one per-vendor order and returns its ID.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user ID is required")
	}
	if strings.TrimSpace(req.VendorID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor ID is required")
	}
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}

	var raw json.RawMessage
	if err := c.rest.Post(ctx, "/orders", req, &raw); err != nil {
		return nil, err
	}
	return decodeCreateOrderResponse(raw)
}

// decodeCreateOrderResponse extracts the order ID across the three payload
// shapes the order service has been seen emitting: a bare object with "id",
// an object nested under "order", and an envelope with "data.order_id".
func decodeCreateOrderResponse(raw json.RawMessage) (*CreateOrderResult, error) {
	var payload struct {
		ID    string `json:"id"`
		Order struct {
			ID string `json:"id"`
		} `json:"order"`
		Data struct {
			OrderID string `json:"order_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order creation response")
	}

	for _, candidate := range []string{payload.ID, payload.Order.ID, payload.Data.OrderID} {
		if strings.TrimSpace(candidate) != "" {
			return &CreateOrderResult{OrderID: candidate}, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeDependency, "order creation response carried no order ID")
}

// GetOrder fetches one order by ID.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order ID is required")
	}

	var order Order
	path := fmt.Sprintf("/orders/%s", url.PathEscape(orderID))
	if err := c.rest.Get(ctx, path, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrder asks the order service to cancel one order. Used as the
// compensating action when payment fails after order creation.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	if strings.TrimSpace(orderID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order ID is required")
	}
	path := fmt.Sprintf("/orders/%s/cancel", url.PathEscape(orderID))
	return c.rest.Post(ctx, path, nil, nil)
}
