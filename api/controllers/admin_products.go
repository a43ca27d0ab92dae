package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greenbasket/storefront/api/responses"
	"github.com/greenbasket/storefront/internal/adminqueue"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
	"github.com/greenbasket/storefront/pkg/logger"
)

// AdminListProducts returns the product review queue, filtered and
// sorted.
func AdminListProducts(svc adminqueue.ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product queue unavailable"))
			return
		}

		products, err := svc.List(r.Context(), queueQueryFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

// AdminApproveProduct approves one product and returns the refreshed
// queue under the same filter and sort.
func AdminApproveProduct(svc adminqueue.ProductService, logg *logger.Logger) http.HandlerFunc {
	return productAction(svc, logg, svcApprove)
}

// AdminRejectProduct rejects one product and returns the refreshed
// queue.
func AdminRejectProduct(svc adminqueue.ProductService, logg *logger.Logger) http.HandlerFunc {
	return productAction(svc, logg, svcReject)
}

func productAction(svc adminqueue.ProductService, logg *logger.Logger, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product queue unavailable"))
			return
		}

		productID := chi.URLParam(r, "productID")
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id required"))
			return
		}

		query := queueQueryFromRequest(r)

		var err error
		var products any
		switch action {
		case svcApprove:
			products, err = svc.Approve(r.Context(), productID, query)
		default:
			products, err = svc.Reject(r.Context(), productID, query)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}
