// Package core provides money parsing and handling utilities.
//
// This file contains the parser for amounts written the way Dutch banks
// export them: optional euro sign, dot thousands separators and a decimal
// comma.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a localized amount string into a signed decimal.
//
// It strips the euro sign and any whitespace, removes "." thousands
// separators and turns the "," decimal separator into ".". Empty or zero
// amounts are rejected with ErrInvalidAmount. Callers that store the value
// take Abs(); the sign is only used to infer the direction.
//
// Examples:
//
//	ParseAmount("12,34")       -> 12.34
//	ParseAmount("€ 1.234,56")  -> 1234.56
//	ParseAmount("-€1.000,00")  -> -1000
func ParseAmount(s string) (decimal.Decimal, error) {
	clean := strings.Map(func(r rune) rune {
		if r == '€' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")
	if clean == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsZero() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatEuros renders d as "€12.34" for insight text.
func FormatEuros(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-€" + d.Abs().StringFixed(2)
	}
	return "€" + d.StringFixed(2)
}
