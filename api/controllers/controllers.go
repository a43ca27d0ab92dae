// Package controllers holds the HTTP handlers for the storefront
// gateway. Handlers are factories: they receive their collaborators and
// return an http.HandlerFunc, which keeps them trivial to exercise with
// httptest.
package controllers

import (
	"net/http"

	"github.com/greenbasket/storefront/api/middleware"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
)

func userIDFromRequest(r *http.Request) (string, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return userID, nil
}
