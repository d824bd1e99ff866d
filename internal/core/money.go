// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and rendering them as Brazilian reais.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// It accepts dot (12.34), comma (12,34) and Brazilian grouped (1.234,56)
// notations. Returns ErrInvalidAmount for malformed, negative or zero values.
//
// Examples:
//
//	ParseDecimalToCents("12.34")    -> 1234, nil
//	ParseDecimalToCents("12,34")    -> 1234, nil
//	ParseDecimalToCents("1.234,56") -> 123456, nil
//	ParseDecimalToCents("12.345")   -> 1235, nil (rounds half up)
func ParseDecimalToCents(s string) (int64, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	cents, ok := DecimalToCents(d)
	if !ok {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseDecimal parses a monetary string in either dot or comma notation.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Contains(s, ",") {
		// Comma is the decimal separator; dots are thousands groups.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// DecimalToCents rounds d half-up to whole cents. It reports false when the
// result is negative or does not fit in an int64.
func DecimalToCents(d decimal.Decimal) (int64, bool) {
	c := d.Mul(hundred).Round(0)
	if c.IsNegative() || c.GreaterThan(maxCents) {
		return 0, false
	}
	return c.IntPart(), true
}

// MoneyFromDecimal builds Money from a decimal amount in reais.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents, ok := DecimalToCents(d)
	if !ok {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents}, nil
}

// Times returns m multiplied by n, or false when the product overflows.
func (m Money) Times(n int) (Money, bool) {
	if m.Cents < 0 || n < 0 {
		return Money{}, false
	}
	if n != 0 && m.Cents > math.MaxInt64/int64(n) {
		return Money{}, false
	}
	return Money{Cents: m.Cents * int64(n)}, true
}

// Decimal returns the amount in reais.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with a dot separator and two decimals ("1234.50").
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// BRL formats the amount as Brazilian currency, e.g. "R$ 1.234,56".
func (m Money) BRL() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	fixed := decimal.New(cents, -2).StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := "R$ " + b.String() + "," + frac
	if neg {
		return "-" + out
	}
	return out
}
