// Package core provides money parsing and handling utilities.
//
// This file contains the BRL formatting rules used by the amount field and
// the totals header, and the inverse parse used to check displayed amounts.
package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// CurrencySymbol is the BRL symbol as rendered by the pt-BR locale.
	CurrencySymbol = "R$"

	// nbsp separates the symbol from the number in pt-BR currency strings.
	nbsp = "\u00a0"

	// maxInputDigits bounds the digits read from the amount field; longer
	// input keeps its leading digits.
	maxInputDigits = 15
)

type Money struct {
	Cents int64
}

// Reais returns the amount in major units for display purposes.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

// Decimal returns the exact major-unit value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) String() string {
	return FormatBRL(m)
}

// DigitsToCents discards every non-digit character and reads the remaining
// digits as a number of cents. No digits means zero.
func DigitsToCents(raw string) int64 {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			if b.Len() == 0 && r == '0' {
				continue
			}
			if b.Len() == maxInputDigits {
				break
			}
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	cents, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return cents
}

// FormatAmountInput rewrites raw amount field text as a BRL currency string.
//
// Examples:
//
//	FormatAmountInput("15000")     -> "R$ 150,00"
//	FormatAmountInput("R$ 1,505")  -> "R$ 15,05"
//	FormatAmountInput("")          -> "R$ 0,00"
func FormatAmountInput(raw string) string {
	return FormatBRL(Money{Cents: DigitsToCents(raw)})
}

// FormatBRL renders cents the way the pt-BR locale renders BRL: symbol
// prefix, a non-breaking space, "." thousands and "," decimals.
func FormatBRL(m Money) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	reais := strconv.FormatInt(cents/100, 10)
	s := groupThousands(reais) + "," + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-" + CurrencySymbol + nbsp + s
	}
	return CurrencySymbol + nbsp + s
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// SplitCurrency separates the currency symbol from a BRL string so the
// symbol can be rendered in its own element. The returned amount has the
// symbol and all whitespace removed.
func SplitCurrency(display string) (symbol, amount string) {
	rest := strings.Replace(strings.ToUpper(display), CurrencySymbol, "", 1)
	return CurrencySymbol, strings.Join(strings.Fields(rest), "")
}

// ParseDisplayAmount reads a displayed BRL amount back into a number. Every
// character other than digits and the decimal comma is dropped and the comma
// becomes the decimal point.
func ParseDisplayAmount(display string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' {
			return r
		}
		return -1
	}, display)
	cleaned = strings.Replace(cleaned, ",", ".", 1)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("parse %q: %w", display, ErrAggregationParse)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %q: %w", display, ErrAggregationParse)
	}
	return d, nil
}
