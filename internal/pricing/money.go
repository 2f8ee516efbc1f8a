package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// All monetary amounts in the service are int64 minor units (cents). Rates
// are expressed in basis points so aggregation never touches binary floats;
// decimal handles the one rounding step per computation.

var bpsDivisor = decimal.NewFromInt(10000)

// ApplyBps returns amount × bps/10000, rounded half-up to the cent.
func ApplyBps(amountCents int64, bps int64) int64 {
	result := decimal.NewFromInt(amountCents).
		Mul(decimal.NewFromInt(bps)).
		Div(bpsDivisor).
		Round(0)
	return result.IntPart()
}

// HalfOf returns amount × 0.5, rounded half-up to the cent.
func HalfOf(amountCents int64) int64 {
	return decimal.NewFromInt(amountCents).
		Div(decimal.NewFromInt(2)).
		Round(0).
		IntPart()
}

// FormatCents renders cents as a display amount, e.g. 49500 -> "495.00".
func FormatCents(amountCents int64) string {
	return decimal.NewFromInt(amountCents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// ParsePrice converts a display price like "150.00" to cents. Rejects more
// than two decimal places.
func ParsePrice(price string) (int64, error) {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", price, err)
	}
	cents := d.Mul(decimal.NewFromInt(100))
	if !cents.Equal(cents.Round(0)) {
		return 0, fmt.Errorf("price %q has sub-cent precision", price)
	}
	return cents.IntPart(), nil
}
