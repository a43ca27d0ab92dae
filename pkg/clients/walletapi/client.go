// Package walletapi talks to the balance/wallet service.
package walletapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/greenbasket/storefront/pkg/clients/rest"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
)

// Client wraps the wallet service endpoints the gateway consumes.
type Client struct {
	rest *rest.Client
}

// NewClient builds the wallet service client.
func NewClient(baseURL string, opts ...rest.Option) (*Client, error) {
	restClient, err := rest.New(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{rest: restClient}, nil
}

// GetBalance returns the user's current balance in minor units.
func (c *Client) GetBalance(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user ID is required")
	}

	var resp struct {
		Balance int64 `json:"balance"`
	}
	path := fmt.Sprintf("/users/%s/balance", url.PathEscape(userID))
	if err := c.rest.Get(ctx, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

// Adjust changes the user's balance by a signed delta and returns the new
// balance. The note lands in the wallet service's audit trail.
func (c *Client) Adjust(ctx context.Context, userID string, delta int64, note string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user ID is required")
	}
	if delta == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}

	body := struct {
		Delta int64  `json:"delta"`
		Note  string `json:"note,omitempty"`
	}{Delta: delta, Note: note}

	var resp struct {
		Balance int64 `json:"balance"`
	}
	path := fmt.Sprintf("/users/%s/balance/adjustments", url.PathEscape(userID))
	if err := c.rest.Post(ctx, path, body, &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}
