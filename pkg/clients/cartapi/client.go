// Package cartapi talks to the cart service.
package cartapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/greenbasket/storefront/pkg/clients/rest"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
)

// Item is one cart line as reported by the cart service.
type Item struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	VendorID  string `json:"vendor_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"image_url,omitempty"`
}

// Client wraps the cart service endpoints the gateway consumes.
type Client struct {
	rest *rest.Client
}

// NewClient builds the cart service client.
func NewClient(baseURL string, opts ...rest.Option) (*Client, error) {
	restClient, err := rest.New(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{rest: restClient}, nil
}

// ListItems returns every cart line for the user.
func (c *Client) ListItems(ctx context.Context, userID string) ([]Item, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user ID is required")
	}

	var resp struct {
		Items []Item `json:"items"`
	}
	path := fmt.Sprintf("/users/%s/cart", url.PathEscape(userID))
	if err := c.rest.Get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// RemoveItem deletes one cart line by its ID.
func (c *Client) RemoveItem(ctx context.Context, userID, itemID string) error {
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user ID is required")
	}
	if strings.TrimSpace(itemID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item ID is required")
	}

	path := fmt.Sprintf("/users/%s/cart/items/%s", url.PathEscape(userID), url.PathEscape(itemID))
	return c.rest.Delete(ctx, path)
}
