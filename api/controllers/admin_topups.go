package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greenbasket/storefront/api/responses"
	"github.com/greenbasket/storefront/internal/adminqueue"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
	"github.com/greenbasket/storefront/pkg/logger"
)

// AdminListTopUps returns the top-up review queue, filtered and sorted.
func AdminListTopUps(svc adminqueue.TopUpService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "top-up queue unavailable"))
			return
		}

		requests, err := svc.List(r.Context(), queueQueryFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, requests)
	}
}

// AdminApproveTopUp approves one request and returns the refreshed
// queue under the same filter and sort.
func AdminApproveTopUp(svc adminqueue.TopUpService, logg *logger.Logger) http.HandlerFunc {
	return topUpAction(svc, logg, svcApprove)
}

// AdminRejectTopUp rejects one request and returns the refreshed queue.
func AdminRejectTopUp(svc adminqueue.TopUpService, logg *logger.Logger) http.HandlerFunc {
	return topUpAction(svc, logg, svcReject)
}

const (
	svcApprove = "approve"
	svcReject  = "reject"
)

func topUpAction(svc adminqueue.TopUpService, logg *logger.Logger, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "top-up queue unavailable"))
			return
		}

		requestID := chi.URLParam(r, "requestID")
		if requestID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request id required"))
			return
		}

		query := queueQueryFromRequest(r)

		var err error
		var requests any
		switch action {
		case svcApprove:
			requests, err = svc.Approve(r.Context(), requestID, query)
		default:
			requests, err = svc.Reject(r.Context(), requestID, query)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, requests)
	}
}
