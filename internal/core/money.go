// Package core holds the ledger's domain types.
//
// This file contains money parsing and the ingestion rules for amounts read
// from stored ledgers.
package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in the smallest currency unit. Entry amounts are
// positive; ledger balances may go negative.
type Money struct {
	Cents int64
}

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
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
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// CoerceAmount applies the ingestion rule for stored amounts: anything
// missing, non-numeric or negative counts as zero.
func CoerceAmount(v any) Money {
	f, ok := numericValue(v)
	if !ok || f <= 0 {
		return Money{}
	}
	return Money{Cents: roundHalfUp(f * 100)}
}

// CoerceBalance is CoerceAmount for running balances, which keep their sign.
func CoerceBalance(v any) Money {
	f, ok := numericValue(v)
	if !ok {
		return Money{}
	}
	return Money{Cents: roundHalfUp(f * 100)}
}

func numericValue(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int64:
		f = float64(x)
	case int:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", ".")
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Units returns the amount in whole currency units as a float64, for
// statistics and display. Use cents for arithmetic.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// Rounded returns the amount rounded to the nearest whole currency unit.
func (m Money) Rounded() int64 {
	if m.Cents < 0 {
		return -((-m.Cents + 50) / 100)
	}
	return (m.Cents + 50) / 100
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// String formats the amount with two decimals, e.g. "12.50".
func (m Money) String() string {
	return strconv.FormatFloat(m.Units(), 'f', 2, 64)
}

// MarshalJSON writes the amount as a plain number of currency units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(m.Units(), 'f', -1, 64)), nil
}

// UnmarshalJSON accepts numbers and numeric strings and never fails;
// malformed values decode to zero.
func (m *Money) UnmarshalJSON(data []byte) error {
	*m = CoerceAmount(decodeLoose(data))
	return nil
}

// decodeBalance decodes a raw balance field, keeping negative values.
func decodeBalance(data json.RawMessage) Money {
	return CoerceBalance(decodeLoose(data))
}

func decodeLoose(data []byte) any {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func roundHalfUp(f float64) int64 {
	return int64(math.Floor(f + 0.5))
}
