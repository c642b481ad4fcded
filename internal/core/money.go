// Package core provides money parsing and handling utilities.
//
// Amounts are held as decimal.Decimal and persisted as integer cents.
package core

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")

	// MaxAmount is the largest amount a single transaction may carry.
	MaxAmount = decimal.RequireFromString("999999.99")

	// MaxBalance bounds account balances in either direction. It leaves
	// room to sum many accounts in int64 cents.
	MaxBalance = decimal.RequireFromString("999999999999.99")

	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// ParseAmount converts a decimal string to an amount rounded half-up to
// cents. It accepts both dot (12.34) and comma (12,34) separators.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.35
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return RoundAmount(d), nil
}

// RoundAmount rounds half-up to two decimal places.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// CentsInRange reports whether d, rounded to cents, fits in int64 cents.
func CentsInRange(d decimal.Decimal) bool {
	return RoundAmount(d).Shift(2).Abs().LessThanOrEqual(maxCents)
}

// BalanceInRange reports whether d, rounded to cents, lies within
// [-MaxBalance, MaxBalance].
func BalanceInRange(d decimal.Decimal) bool {
	return RoundAmount(d).Abs().LessThanOrEqual(MaxBalance)
}

// ToCents converts an amount to integer cents for storage. Callers check
// CentsInRange first; out-of-range values do not round-trip.
func ToCents(d decimal.Decimal) int64 {
	return RoundAmount(d).Shift(2).IntPart()
}

// FromCents converts stored cents back to an amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// AmountInRange reports whether d lies in (0, MaxAmount].
func AmountInRange(d decimal.Decimal) bool {
	return d.IsPositive() && d.LessThanOrEqual(MaxAmount)
}
