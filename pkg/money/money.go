// Package money holds integer minor-unit arithmetic. Amounts are int64 counts of
// the currency's smallest unit (cents); floating point is never used for money.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// BasisPoints is the denominator for rates expressed in basis points (1% = 100).
const BasisPoints = 10000

// ErrInvalidParts is returned when an amount is divided into fewer than one part.
var ErrInvalidParts = errors.New("money: parts must be at least 1")

// Sum adds the given amounts.
func Sum(amounts ...int64) int64 {
	var total int64
	for _, a := range amounts {
		total += a
	}
	return total
}

// Split divides amount into n parts by floor division. The remainder
// (amount mod n) is added entirely to the first part.
func Split(amount int64, n int) ([]int64, error) {
	if n < 1 {
		return nil, ErrInvalidParts
	}
	base := amount / int64(n)
	remainder := amount % int64(n)

	parts := make([]int64, n)
	for i := range parts {
		parts[i] = base
	}
	parts[0] += remainder
	return parts, nil
}

// MulDivRound returns amount*num/den rounded half up. All inputs are expected
// to be non-negative and den must be positive.
func MulDivRound(amount, num, den int64) int64 {
	if den <= 0 {
		return 0
	}
	return (amount*num + den/2) / den
}

// ApplyRate returns amount * bps / 10000 rounded half up.
func ApplyRate(amount, bps int64) int64 {
	return MulDivRound(amount, bps, BasisPoints)
}

// Min returns the smaller of a and b.
func Min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// ToDecimal converts minor units to a major-unit decimal using the currency
// exponent (2 for cents).
func ToDecimal(amount int64, exponent int32) decimal.Decimal {
	return decimal.New(amount, -exponent)
}

// Format renders minor units as a fixed-point string, e.g. 123456 -> "1234.56".
func Format(amount int64, exponent int32) string {
	return ToDecimal(amount, exponent).StringFixed(exponent)
}

// FormatWithCurrency prefixes Format with the currency code.
func FormatWithCurrency(amount int64, exponent int32, currency string) string {
	if currency == "" {
		return Format(amount, exponent)
	}
	return currency + " " + Format(amount, exponent)
}
