// Package discount implements percent arithmetic and per-user discount
// resolution. A user's effective discount for a product group blends a shared
// discount profile with per-user special overrides.
package discount

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// NormalizePercent clamps a percent value to [0, 100] and rounds it to two
// decimal places (half away from zero). It is total: any input yields a valid
// percent.
func NormalizePercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p.Round(2)
}

// ApplyPercent applies a discount percent to a price: price * (1 - p/100),
// floored at zero and rounded to two decimal places. The percent is
// normalized first, so a percent above 100 zeroes the price instead of going
// negative.
func ApplyPercent(price, percent decimal.Decimal) decimal.Decimal {
	p := NormalizePercent(percent)
	discounted := price.Mul(hundred.Sub(p)).Div(hundred)
	if discounted.IsNegative() {
		return decimal.Zero
	}
	return discounted.Round(2)
}
