package services

import (
	"github.com/shopspring/decimal"
)

// Pricing modes
const (
	PricingInclusive = "inclusive"
	PricingExclusive = "exclusive"
)

var (
	decHundred = decimal.NewFromInt(100)
	decOne     = decimal.NewFromInt(1)
)

// LineAmounts is the tax breakdown of a single line, every field already
// rounded to two decimals. Invoice totals are sums of these rounded values,
// never re-derived from a rounded subtotal, so the cross-footing
// total_inc == subtotal_ex + total_tax holds exactly.
type LineAmounts struct {
	UnitRateExTax   float64 `json:"unit_rate_ex_tax"`
	LineTotalExTax  float64 `json:"line_total_ex_tax"`
	TaxAmount       float64 `json:"tax_amount"`
	LineTotalIncTax float64 `json:"line_total_inc_tax"`
}

// ComputeLine converts one line item into its exclusive/inclusive amounts.
// Pure and deterministic: identical inputs always produce identical outputs,
// which is what makes invoice regeneration idempotent.
//
// Exclusive mode: unit price excludes tax, tax is added on top.
// Inclusive mode: unit price already contains tax, the exclusive amount is
// backed out. A zero or negative rate means no tax and ex == inc.
func ComputeLine(qty int, unitPrice, taxRatePct float64, pricingMode string) LineAmounts {
	q := decimal.NewFromInt(int64(qty))
	unit := decimal.NewFromFloat(unitPrice)
	rate := decimal.NewFromFloat(taxRatePct).Div(decHundred)
	if rate.IsNegative() {
		rate = decimal.Zero
	}

	var ex, tax, inc, unitEx decimal.Decimal
	if pricingMode == PricingInclusive {
		inc = q.Mul(unit).Round(2)
		divisor := decOne.Add(rate)
		tax = inc.Sub(inc.DivRound(divisor, 2)).Round(2)
		ex = inc.Sub(tax)
		unitEx = unit.DivRound(divisor, 2)
	} else {
		ex = q.Mul(unit).Round(2)
		tax = ex.Mul(rate).Round(2)
		inc = ex.Add(tax)
		unitEx = unit.Round(2)
	}

	return LineAmounts{
		UnitRateExTax:   unitEx.InexactFloat64(),
		LineTotalExTax:  ex.InexactFloat64(),
		TaxAmount:       tax.InexactFloat64(),
		LineTotalIncTax: inc.InexactFloat64(),
	}
}

// SumLines folds already-rounded line amounts into invoice totals.
func SumLines(lines []LineAmounts) (subtotalEx, totalTax, totalInc float64) {
	ex := decimal.Zero
	tax := decimal.Zero
	inc := decimal.Zero
	for _, l := range lines {
		ex = ex.Add(decimal.NewFromFloat(l.LineTotalExTax))
		tax = tax.Add(decimal.NewFromFloat(l.TaxAmount))
		inc = inc.Add(decimal.NewFromFloat(l.LineTotalIncTax))
	}
	return ex.InexactFloat64(), tax.InexactFloat64(), inc.InexactFloat64()
}
