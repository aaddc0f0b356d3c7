// Package core holds the domain entities and the pure computation layers
// (filtering, aggregation) that operate on collection snapshots.
//
// Monetary values are represented as integer cents so that accumulation
// across many transactions stays exact; floats appear only at the
// serialization boundary and for percentages.
package core

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"fintrack/internal/apperr"
)

// MaxAmountCents is the upper bound for transaction amounts and budget
// limits (1,000,000,000.00 in cents).
const MaxAmountCents = 100_000_000_000

// Money is an exact amount in cents.
type Money struct {
	Cents int64
}

// ParseAmount converts a decimal string to Money. At most two fractional
// digits are accepted; more is a validation error, matching the API's
// field constraints rather than silently rounding.
//
// Examples:
//
//	ParseAmount("12.34") -> 1234 cents
//	ParseAmount("12")    -> 1200 cents
//	ParseAmount("12.345") -> error
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, apperr.Validation("amount is required")
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, apperr.Validation("amount must be a positive number")
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > 2 {
		return Money{}, apperr.Validation("amount can have at most 2 decimal places")
	}
	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return Money{}, apperr.Validation("amount must be a valid number")
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, apperr.Validation("amount must be a valid number")
	}
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
		}
	}
	if iv > (math.MaxInt64-frac)/100 {
		return Money{}, apperr.Validation("amount exceeds maximum allowed value")
	}
	m := Money{Cents: iv*100 + frac}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return apperr.Validation("amount must be greater than 0")
	}
	if m.Cents > MaxAmountCents {
		return apperr.Validation("amount exceeds maximum allowed value")
	}
	return nil
}

// Float64 returns the decimal value for display. Cents values stay well
// inside float64's exact integer range, so the division is lossless.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) String() string {
	return strconv.FormatFloat(m.Float64(), 'f', -1, 64)
}

// MarshalJSON emits a plain JSON number, shortest form ("50", "83.33").
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. Parsing goes
// through the raw text, never a float, so "0.1" is exactly 10 cents.
// Negative values are allowed here because derived fields (remaining) can
// be negative; entity validation enforces positivity separately.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if s == "null" || s == "" {
		m.Cents = 0
		return nil
	}
	neg := strings.HasPrefix(s, "-")
	parsed, err := ParseAmount(strings.TrimPrefix(s, "-"))
	if err != nil {
		// Zero is not a valid amount but is a valid serialized Money.
		if isZeroNumber(strings.TrimPrefix(s, "-")) {
			m.Cents = 0
			return nil
		}
		return err
	}
	m.Cents = parsed.Cents
	if neg {
		m.Cents = -m.Cents
	}
	return nil
}

func isZeroNumber(s string) bool {
	intPart, fracPart, _ := strings.Cut(strings.TrimSpace(s), ".")
	return strings.Trim(intPart+fracPart, "0") == "" && intPart+fracPart != ""
}

// RoundHalfUp rounds v to the given number of decimals with ties going up,
// the policy every externally returned figure follows.
func RoundHalfUp(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Floor(v*p+0.5) / p
}
