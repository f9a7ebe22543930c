// Package money centralizes currency arithmetic. All splitting and
// aggregation is done on integer cents; decimal.Decimal is only the
// boundary representation used by models and DTOs. No float64 anywhere.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Cents converts a decimal amount to integer cents, rounding half-up
// at two decimals first.
func Cents(d decimal.Decimal) int64 {
	return d.Round(2).Mul(hundred).IntPart()
}

// FromCents converts integer cents back to a two-decimal amount.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

// Round2 normalizes an external amount to two decimals.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// SplitEqual divides total cents among n payers. Every payer gets
// round2(total/n); the LAST payer absorbs the residual so the parts
// always sum back to total exactly.
func SplitEqual(totalCents int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	per := Cents(FromCents(totalCents).Div(decimal.NewFromInt(int64(n))))
	parts := make([]int64, n)
	var distributed int64
	for i := 0; i < n-1; i++ {
		parts[i] = per
		distributed += per
	}
	parts[n-1] = totalCents - distributed
	return parts
}

// Percent returns round2(total × pct / 100) in cents.
func Percent(totalCents int64, pct decimal.Decimal) int64 {
	return Cents(FromCents(totalCents).Mul(pct).Div(hundred))
}
