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
		{"100 000", 10000000, true},
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
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseAmountAllowsZero(t *testing.T) {
	got, err := ParseAmount("0")
	if err != nil || got != 0 {
		t.Fatalf("expected 0, got %d (err=%v)", got, err)
	}
	if _, err := ParseAmount("-5"); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:        "0,00 zł",
		123456:   "1 234,56 zł",
		10000000: "100 000,00 zł",
		-250000:  "-2 500,00 zł",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Errorf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	var payload struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a": 32400, "b": "14,5"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.A.Cents != 3240000 || payload.B.Cents != 1450 {
		t.Fatalf("unexpected values: %+v", payload)
	}
	out, err := json.Marshal(Money{Cents: 1450})
	if err != nil || string(out) != "14.50" {
		t.Fatalf("marshal = %s, %v", out, err)
	}
}

func TestMoneyTimes(t *testing.T) {
	if got := (Money{Cents: 1999}).Times(2.5); got.Cents != 4998 {
		t.Fatalf("Times = %d", got.Cents)
	}
}
