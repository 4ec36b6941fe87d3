package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeLineExclusive(t *testing.T) {
	// Order total ₹236.00: qty 2 @ ₹100 @ 18% tax-exclusive.
	got := ComputeLine(2, 100, 18, PricingExclusive)

	assert.Equal(t, 200.00, got.LineTotalExTax)
	assert.Equal(t, 36.00, got.TaxAmount)
	assert.Equal(t, 236.00, got.LineTotalIncTax)
	assert.Equal(t, 100.00, got.UnitRateExTax)
}

func TestComputeLineInclusive(t *testing.T) {
	// MRP ₹118 contains 18% tax: ex 100, tax 18.
	got := ComputeLine(1, 118, 18, PricingInclusive)

	assert.Equal(t, 118.00, got.LineTotalIncTax)
	assert.InDelta(t, 100.00, got.LineTotalExTax, 0.01)
	assert.InDelta(t, 18.00, got.TaxAmount, 0.01)
}

func TestComputeLineZeroRate(t *testing.T) {
	for _, mode := range []string{PricingExclusive, PricingInclusive} {
		got := ComputeLine(3, 50, 0, mode)
		assert.Equal(t, 0.00, got.TaxAmount, mode)
		assert.Equal(t, got.LineTotalIncTax, got.LineTotalExTax, mode)
		assert.Equal(t, 150.00, got.LineTotalIncTax, mode)
	}
}

func TestComputeLineNegativeRateTreatedAsZero(t *testing.T) {
	got := ComputeLine(1, 75, -5, PricingExclusive)
	assert.Equal(t, 0.00, got.TaxAmount)
	assert.Equal(t, 75.00, got.LineTotalIncTax)
}

func TestComputeLineRoundTrip(t *testing.T) {
	// inc -> ex -> inc must come back within rounding tolerance, across
	// awkward prices and rates.
	cases := []struct {
		qty   int
		price float64
		rate  float64
	}{
		{1, 99.99, 5},
		{3, 33.33, 12},
		{2, 149.50, 18},
		{7, 19.95, 28},
	}
	for _, tc := range cases {
		inclusive := ComputeLine(tc.qty, tc.price, tc.rate, PricingInclusive)
		reversed := inclusive.LineTotalExTax * (1 + tc.rate/100)
		assert.InDeltaf(t, inclusive.LineTotalIncTax, reversed, 0.02,
			"qty=%d price=%.2f rate=%.0f", tc.qty, tc.price, tc.rate)
	}
}

func TestComputeLineDeterministic(t *testing.T) {
	first := ComputeLine(5, 123.45, 18, PricingInclusive)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, ComputeLine(5, 123.45, 18, PricingInclusive))
	}
}

func TestSumLinesCrossFooting(t *testing.T) {
	lines := []LineAmounts{
		ComputeLine(2, 100, 18, PricingExclusive),
		ComputeLine(1, 118, 18, PricingInclusive),
		ComputeLine(4, 25.75, 5, PricingExclusive),
		ComputeLine(3, 9.99, 0, PricingInclusive),
	}
	ex, tax, inc := SumLines(lines)
	assert.True(t, math.Abs(inc-(ex+tax)) < 0.01,
		"total_inc %.2f != subtotal_ex %.2f + total_tax %.2f", inc, ex, tax)
}
