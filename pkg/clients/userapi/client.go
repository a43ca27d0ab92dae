// Package userapi talks to the user/admin service.
package userapi

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

// User is an account as reported by the user service.
type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      enums.Role `json:"role"`
	Balance   int64      `json:"balance"`
	CreatedAt time.Time  `json:"created_at"`
}

// Transaction is one balance movement in a user's history.
type Transaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Client wraps the user service endpoints the gateway consumes.
type Client struct {
	rest *rest.Client
}

// NewClient builds the user service client.
func NewClient(baseURL string, opts ...rest.Option) (*Client, error) {
	restClient, err := rest.New(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{rest: restClient}, nil
}

// ListByRole returns every account carrying the given role.
func (c *Client) ListByRole(ctx context.Context, role enums.Role) ([]User, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	var resp struct {
		Users []User `json:"users"`
	}
	query := url.Values{"role": []string{string(role)}}
	if err := c.rest.Get(ctx, "/users", query, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// AdjustBalance changes a user's balance by a signed delta with an audit
// note recorded against the adjustment.
func (c *Client) AdjustBalance(ctx context.Context, userID string, delta int64, note string) error {
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user ID is required")
	}
	if delta == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}
	if strings.TrimSpace(note) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit note is required")
	}

	body := struct {
		Delta int64  `json:"delta"`
		Note  string `json:"note"`
	}{Delta: delta, Note: note}
	path := fmt.Sprintf("/users/%s/balance", url.PathEscape(userID))
	return c.rest.Post(ctx, path, body, nil)
}

// Transactions returns the balance movement history for one user.
func (c *Client) Transactions(ctx context.Context, userID string) ([]Transaction, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user ID is required")
	}

	var resp struct {
		Transactions []Transaction `json:"transactions"`
	}
	path := fmt.Sprintf("/users/%s/transactions", url.PathEscape(userID))
	if err := c.rest.Get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}
