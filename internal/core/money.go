// Package core provides the receipt domain types and the string
// normalization that turns extraction output into typed values.
//
// This file contains money handling. Amounts are kept in integer cents;
// floats only appear at display boundaries.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

type Money struct {
	Cents int64
}

// DecimalToCents converts a plain decimal string ("1.29", "38.68", "4") to
// cents with half-up rounding on the third decimal place. It reports false
// for anything that is not a positive decimal: extraction output encodes a
// missing amount as either an empty string or a literal zero, so neither
// ever becomes a value here.
func DecimalToCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, false
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, false
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, false
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, false
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, false
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, false
	}
	return cents, true
}

// DividedBy returns the per-unit amount for a fractional quantity, rounded
// half-up to the nearest cent. Used to back-derive a unit price from a line
// total. Quantity must be non-zero; callers guard that.
func (m Money) DividedBy(quantity float64) Money {
	return Money{Cents: int64(math.Round(float64(m.Cents) / quantity))}
}

// Dollars returns the amount as a float64 for display purposes only.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) String() string {
	return fmt.Sprintf("$%.2f", m.Dollars())
}
