// Package valueobjects contains immutable, validated primitives shared by
// the domain entities. The ledger deals in plain positive integer units of
// a named asset, never in fractional currency, so a signed 64-bit integer
// with range checks is the correct representation. No floating-point
// amounts, no currency conversion.
package valueobjects

import (
	"fmt"
	"strconv"
	"strings"
)

// Amount is a positive integer quantity of some asset's smallest unit.
type Amount struct {
	units int64
}

// NewAmount validates and wraps a positive integer amount.
func NewAmount(units int64) (Amount, error) {
	if units <= 0 {
		return Amount{}, fmt.Errorf("amount must be positive, got %d", units)
	}
	return Amount{units: units}, nil
}

// ParseAmount accepts a decimal-string or bare-integer wire representation
// and parses it into an Amount. No fractional part is permitted: this is not
// a currency-cents conversion, it is an integer unit count.
func ParseAmount(raw string) (Amount, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Amount{}, fmt.Errorf("amount must not be empty")
	}
	units, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return Amount{}, fmt.Errorf("amount %q is not a valid integer: %w", raw, err)
	}
	return NewAmount(units)
}

// Units returns the raw integer quantity.
func (a Amount) Units() int64 { return a.units }

// String renders the amount as a decimal string, preserving wire stability
// for arbitrary-precision integers across ecosystems.
func (a Amount) String() string {
	return strconv.FormatInt(a.units, 10)
}

// FormatBalance renders a derived balance (which may be computed as a
// difference of sums and therefore is not itself an Amount) as the same
// decimal-string wire format.
func FormatBalance(units int64) string {
	return strconv.FormatInt(units, 10)
}
