package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of fractional digits kept for every amount.
const AmountPlaces = 2

var (
	// ErrEmptyAmount is returned when no amount was entered.
	ErrEmptyAmount = errors.New("amount is empty")
	// ErrNonPositiveAmount is returned when an amount is zero or negative.
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
)

// ParseAmount normalizes user input into a positive two-place decimal.
// Both "," and "." are accepted as the decimal separator.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}

	d = d.Round(AmountPlaces)
	if !d.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}
	return d, nil
}

// FormatAmount renders an amount the way it is matched by free-text search:
// no trailing zeros, so 100.00 becomes "100" and 12.50 becomes "12.5".
func FormatAmount(d decimal.Decimal) string {
	return d.Round(AmountPlaces).String()
}
