// Package money collects the fixed-precision arithmetic helpers the book
// and engine share: fee computation and the digit/scale limits applied to
// incoming price and quantity values. All monetary math goes through
// github.com/shopspring/decimal — never float64, per the core's ban on
// floating point anywhere near price or quantity.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Default digit limits for incoming price/quantity values (spec.md §4.2):
// no more than 16 significant digits, no more than 8 fractional digits.
const (
	DefaultMaxSignificantDigits = 16
	DefaultMaxFractionalDigits  = 8
	// FeeRoundingPlaces is the scale fees are rounded to; half-even,
	// per the spec's recommended resolution of its fee-rounding open
	// question (see DESIGN.md).
	FeeRoundingPlaces = 8
)

// Limits bounds the precision accepted for submitted price/quantity.
type Limits struct {
	MaxSignificantDigits int
	MaxFractionalDigits  int
}

// DefaultLimits mirrors spec.md §4.2's stated defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxSignificantDigits: DefaultMaxSignificantDigits,
		MaxFractionalDigits:  DefaultMaxFractionalDigits,
	}
}

// Validate rejects a decimal that exceeds the configured digit/scale
// limits. It never mutates d.
func (l Limits) Validate(field string, d decimal.Decimal) error {
	exp := -d.Exponent()
	if exp > 0 && exp > l.MaxFractionalDigits {
		return fmt.Errorf("%s: %s has %d fractional digits, limit is %d", field, d.String(), exp, l.MaxFractionalDigits)
	}
	digits := len(d.Coefficient().String())
	if digits > l.MaxSignificantDigits {
		return fmt.Errorf("%s: %s has %d significant digits, limit is %d", field, d.String(), digits, l.MaxSignificantDigits)
	}
	return nil
}

// FeeBps computes notional * bps / 10000, rounded half-even to
// FeeRoundingPlaces. bps may be negative, producing a rebate.
func FeeBps(notional, bps decimal.Decimal) decimal.Decimal {
	fee := notional.Mul(bps).Div(decimal.NewFromInt(10000))
	return fee.RoundBank(FeeRoundingPlaces)
}
