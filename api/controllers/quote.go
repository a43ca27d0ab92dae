package controllers

import (
	"net/http"

	"github.com/greenbasket/storefront/api/responses"
	"github.com/greenbasket/storefront/api/validators"
	"github.com/greenbasket/storefront/internal/pricing"
	"github.com/greenbasket/storefront/internal/selection"
	"github.com/greenbasket/storefront/internal/vouchers"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
	"github.com/greenbasket/storefront/pkg/logger"
)

const maxEcoPackagingCount = 1000

// PriceQuote prices the current selection with the stacked discounts
// and optional add-ons, without committing anything. The cart page
// calls it on every selection or voucher change.
func PriceQuote(selSvc selection.Service, voucherSvc vouchers.Service, fees pricing.Fees, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if selSvc == nil || voucherSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing dependencies unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ecoCount, err := validators.ParseQueryInt(r, "eco_packaging_count", 0, 0, maxEcoPackagingCount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		carbonOffset := validators.ParseQueryBool(r, "carbon_offset", false)

		items, err := selSvc.SelectedItems(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		voucherDiscount, err := voucherSvc.TotalVoucherDiscount(r.Context(), userID, items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promoDiscount, err := voucherSvc.PromoDiscount(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]pricing.Line, 0, len(items))
		for _, item := range items {
			lines = append(lines, pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity})
		}

		breakdown := pricing.Calculate(pricing.Input{
			Lines:             lines,
			EcoPackagingCount: ecoCount,
			CarbonOffset:      carbonOffset,
			PromoDiscount:     promoDiscount,
			VoucherDiscount:   voucherDiscount,
		}, fees)

		responses.WriteSuccess(w, breakdown)
	}
}
