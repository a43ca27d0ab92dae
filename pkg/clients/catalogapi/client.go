// Package catalogapi talks to the product catalog service.
package catalogapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/greenbasket/storefront/pkg/clients/rest"
	"github.com/greenbasket/storefront/pkg/enums"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
)

// Product is a catalog entry.
type Product struct {
	ID         string             `json:"id"`
	VendorID   string             `json:"vendor_id"`
	VendorName string             `json:"vendor_name"`
	Name       string             `json:"name"`
	Price      int64              `json:"price"`
	Status     enums.ReviewStatus `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Client wraps the catalog service endpoints the gateway consumes.
type Client struct {
	rest *rest.Client
}

// NewClient builds the catalog service client.
func NewClient(baseURL string, opts ...rest.Option) (*Client, error) {
	restClient, err := rest.New(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{rest: restClient}, nil
}

// GetProduct fetches one product by ID. Unknown IDs map to NOT_FOUND.
func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product ID is required")
	}

	var product Product
	path := fmt.Sprintf("/products/%s", url.PathEscape(productID))
	if err := c.rest.Get(ctx, path, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns the full product list with review status; the
// admin queue filters and sorts it gateway-side.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var resp struct {
		Products []Product `json:"products"`
	}
	if err := c.rest.Get(ctx, "/products", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// Approve publishes one pending product.
func (c *Client) Approve(ctx context.Context, productID string) error {
	return c.act(ctx, productID, "approve")
}

// Reject declines one pending product.
func (c *Client) Reject(ctx context.Context, productID string) error {
	return c.act(ctx, productID, "reject")
}

func (c *Client) act(ctx context.Context, productID, action string) error {
	if strings.TrimSpace(productID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product ID is required")
	}
	path := fmt.Sprintf("/products/%s/%s", url.PathEscape(productID), action)
	return c.rest.Post(ctx, path, nil, nil)
}
