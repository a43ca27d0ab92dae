// Package topupapi talks to the top-up request service.
package topupapi

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

// Request is one balance top-up awaiting admin review.
type Request struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	UserName  string             `json:"user_name"`
	Amount    int64              `json:"amount"`
	Status    enums.ReviewStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

// Client wraps the top-up service endpoints the gateway consumes.
type Client struct {
	rest *rest.Client
}

// NewClient builds the top-up service client.
func NewClient(baseURL string, opts ...rest.Option) (*Client, error) {
	restClient, err := rest.New(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{rest: restClient}, nil
}

// List returns every top-up request; filtering happens gateway-side.
func (c *Client) List(ctx context.Context) ([]Request, error) {
	var resp struct {
		Requests []Request `json:"requests"`
	}
	if err := c.rest.Get(ctx, "/topups", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Requests, nil
}

// Approve marks one request approved.
func (c *Client) Approve(ctx context.Context, requestID string) error {
	return c.act(ctx, requestID, "approve")
}

// Reject marks one request rejected.
func (c *Client) Reject(ctx context.Context, requestID string) error {
	return c.act(ctx, requestID, "reject")
}

func (c *Client) act(ctx context.Context, requestID, action string) error {
	if strings.TrimSpace(requestID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "request ID is required")
	}
	path := fmt.Sprintf("/topups/%s/%s", url.PathEscape(requestID), action)
	return c.rest.Post(ctx, path, nil, nil)
}
