package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestCoerceAmount(t *testing.T) {
	cases := []struct {
		in   any
		want int64
	}{
		{nil, 0},
		{float64(12.5), 1250},
		{"7", 700},
		{"7,25", 725},
		{"seven", 0},
		{float64(-3), 0},
		{true, 0},
		{json.Number("0.125"), 13},
	}
	for _, tc := range cases {
		if got := CoerceAmount(tc.in).Cents; got != tc.want {
			t.Fatalf("CoerceAmount(%v)=%d want %d", tc.in, got, tc.want)
		}
	}
}

func TestMoneyRoundedAndJSON(t *testing.T) {
	if got := (Money{Cents: 14950}).Rounded(); got != 150 {
		t.Fatalf("rounded=%d", got)
	}
	if got := (Money{Cents: 14949}).Rounded(); got != 149 {
		t.Fatalf("rounded=%d", got)
	}
	b, err := json.Marshal(Money{Cents: 12345})
	if err != nil || string(b) != "123.45" {
		t.Fatalf("marshal=%s err=%v", b, err)
	}
	var m Money
	if err := json.Unmarshal([]byte(`"oops"`), &m); err != nil || m.Cents != 0 {
		t.Fatalf("expected lenient zero, got %v err=%v", m, err)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestCoerceBalance(t *testing.T) {
	cases := []struct {
		in   any
		want int64
	}{
		{nil, 0},
		{float64(-1200), -120000},
		{"-50", -5000},
		{"-12,5", -1250},
		{json.Number("-0.125"), -12},
		{float64(30), 3000},
		{"seven", 0},
		{true, 0},
	}
	for _, tc := range cases {
		if got := CoerceBalance(tc.in).Cents; got != tc.want {
			t.Fatalf("CoerceBalance(%v)=%d want %d", tc.in, got, tc.want)
		}
	}
}
