// Package pricing computes order totals. Every function is pure and
// deterministic so callers can recompute on any state change.
package pricing

import "github.com/greenbasket/storefront/pkg/config"

// Line is one priced cart line.
type Line struct {
	UnitPrice int64
	Quantity  int
}

// Input carries everything a total depends on.
type Input struct {
	Lines             []Line
	EcoPackagingCount int
	CarbonOffset      bool
	PromoDiscount     int64
	VoucherDiscount   int64
}

// Fees are the per-order add-on fees in minor units.
type Fees struct {
	EcoPackaging int64
	CarbonOffset int64
}

// FeesFromConfig maps the configured fee values.
func FeesFromConfig(cfg config.PricingConfig) Fees {
	return Fees{
		EcoPackaging: int64(cfg.EcoPackagingFee),
		CarbonOffset: int64(cfg.CarbonOffsetFee),
	}
}

// Breakdown is the computed total with its components.
type Breakdown struct {
	Subtotal         int64 `json:"subtotal"`
	Discount         int64 `json:"discount"`
	EcoPackagingCost int64 `json:"eco_packaging_cost"`
	CarbonOffsetCost int64 `json:"carbon_offset_cost"`
	Total            int64 `json:"total"`
}

// Subtotal sums unit price times quantity over the given lines.
func Subtotal(lines []Line) int64 {
	var sum int64
	for _, line := range lines {
		sum += line.UnitPrice * int64(line.Quantity)
	}
	return sum
}

// Calculate produces the full breakdown. Promo and voucher discounts
// stack additively; the discounted subtotal clamps at zero before the
// add-on fees apply.
func Calculate(in Input, fees Fees) Breakdown {
	subtotal := Subtotal(in.Lines)
	discount := in.PromoDiscount + in.VoucherDiscount

	discounted := subtotal - discount
	if discounted < 0 {
		discounted = 0
	}

	ecoCost := int64(in.EcoPackagingCount) * fees.EcoPackaging
	var offsetCost int64
	if in.CarbonOffset {
		offsetCost = fees.CarbonOffset
	}

	return Breakdown{
		Subtotal:         subtotal,
		Discount:         discount,
		EcoPackagingCost: ecoCost,
		CarbonOffsetCost: offsetCost,
		Total:            discounted + ecoCost + offsetCost,
	}
}
