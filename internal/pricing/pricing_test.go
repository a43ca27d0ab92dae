package pricing

import "testing"

var testFees = Fees{EcoPackaging: 5000, CarbonOffset: 3800}

func twoItemCart() []Line {
	return []Line{
		{UnitPrice: 10000, Quantity: 2},
		{UnitPrice: 5000, Quantity: 1},
	}
}

func TestCalculatePlainCart(t *testing.T) {
	t.Parallel()

	got := Calculate(Input{Lines: twoItemCart()}, testFees)
	if got.Subtotal != 25000 {
		t.Fatalf("expected subtotal 25000, got %d", got.Subtotal)
	}
	if got.Discount != 0 {
		t.Fatalf("expected no discount, got %d", got.Discount)
	}
	if got.Total != 25000 {
		t.Fatalf("expected total 25000, got %d", got.Total)
	}
}

func TestCalculateWithPromoDiscount(t *testing.T) {
	t.Parallel()

	got := Calculate(Input{Lines: twoItemCart(), PromoDiscount: 2000}, testFees)
	if got.Total != 23000 {
		t.Fatalf("expected total 23000, got %d", got.Total)
	}
}

func TestCalculateStacksPromoAndVoucher(t *testing.T) {
	t.Parallel()

	// 10% vendor voucher on the 20000 line plus a 2000 promo.
	got := Calculate(Input{Lines: twoItemCart(), PromoDiscount: 2000, VoucherDiscount: 2000}, testFees)
	if got.Discount != 4000 {
		t.Fatalf("expected discount 4000, got %d", got.Discount)
	}
	if got.Total != 21000 {
		t.Fatalf("expected total 21000, got %d", got.Total)
	}
}

func TestCalculateClampsAtZeroBeforeFees(t *testing.T) {
	t.Parallel()

	got := Calculate(Input{
		Lines:             []Line{{UnitPrice: 1000, Quantity: 1}},
		PromoDiscount:     5000,
		EcoPackagingCount: 2,
		CarbonOffset:      true,
	}, testFees)

	if got.Total != 2*testFees.EcoPackaging+testFees.CarbonOffset {
		t.Fatalf("expected fees only after clamp, got %d", got.Total)
	}
}

func TestCalculateAddOnFees(t *testing.T) {
	t.Parallel()

	got := Calculate(Input{Lines: twoItemCart(), EcoPackagingCount: 1, CarbonOffset: true}, testFees)
	if got.EcoPackagingCost != 5000 {
		t.Fatalf("expected eco cost 5000, got %d", got.EcoPackagingCost)
	}
	if got.CarbonOffsetCost != 3800 {
		t.Fatalf("expected offset cost 3800, got %d", got.CarbonOffsetCost)
	}
	if got.Total != 25000+5000+3800 {
		t.Fatalf("expected total 33800, got %d", got.Total)
	}
}

func TestToggleChangesSubtotalByExactlyThatLine(t *testing.T) {
	t.Parallel()

	lines := twoItemCart()
	with := Subtotal(lines)
	without := Subtotal(lines[:1])

	if with-without != lines[1].UnitPrice*int64(lines[1].Quantity) {
		t.Fatalf("toggle delta %d, expected %d", with-without, lines[1].UnitPrice)
	}
}
