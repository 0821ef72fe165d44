// Package money does price arithmetic on decimal strings so that totals
// never pick up binary floating point error.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("amount must be a non-negative decimal")

// Zero is the formatted empty total
const Zero = "0.00"

// Parse reads a non-negative decimal price such as "12.5" or "3".
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	return d, nil
}

// Format renders d with exactly two decimal places
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Sum adds the given decimal strings
func Sum(prices ...string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range prices {
		d, err := Parse(p)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(d)
	}
	return total, nil
}

// Normalize re-formats a price string to two decimal places
func Normalize(s string) (string, error) {
	d, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Format(d), nil
}

// WholeUnits returns floor(d), used for loyalty points.
func WholeUnits(d decimal.Decimal) int64 {
	return d.Floor().IntPart()
}
