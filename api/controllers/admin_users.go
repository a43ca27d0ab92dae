package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greenbasket/storefront/api/responses"
	"github.com/greenbasket/storefront/api/validators"
	"github.com/greenbasket/storefront/pkg/clients/userapi"
	"github.com/greenbasket/storefront/pkg/eventbus"
	"github.com/greenbasket/storefront/pkg/enums"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
	"github.com/greenbasket/storefront/pkg/logger"
)

// AdminListUsers lists accounts by role for the admin console.
func AdminListUsers(client *userapi.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		role := enums.Role(r.URL.Query().Get("role"))
		if role == "" {
			role = enums.RoleCustomer
		}
		if !role.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown role"))
			return
		}

		users, err := client.ListByRole(r.Context(), role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, users)
	}
}

type adjustBalanceRequest struct {
	Delta int64  `json:"delta" validate:"required"`
	Note  string `json:"note" validate:"required,max=200"`
}

// AdminAdjustBalance applies a manual balance correction. The audit
// note is mandatory. Listeners learn about the correction through a
// balance.refreshed event.
func AdminAdjustBalance(client *userapi.Client, bus eventbus.Bus, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID := chi.URLParam(r, "userID")
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user id required"))
			return
		}

		var payload adjustBalanceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := client.AdjustBalance(r.Context(), userID, payload.Delta, payload.Note); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if bus != nil {
			event, err := eventbus.NewEvent(eventbus.TopicBalanceRefreshed, userID, map[string]int64{"delta": payload.Delta})
			if err != nil {
				logg.Error(r.Context(), "balance event build failed", err)
			} else if err := bus.Publish(r.Context(), event); err != nil {
				logg.Error(r.Context(), "balance event publish failed", err)
			}
		}

		responses.WriteSuccess(w, map[string]string{"user_id": userID, "status": "adjusted"})
	}
}

// AdminUserTransactions returns one user's balance history.
func AdminUserTransactions(client *userapi.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID := chi.URLParam(r, "userID")
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user id required"))
			return
		}

		transactions, err := client.Transactions(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, transactions)
	}
}
