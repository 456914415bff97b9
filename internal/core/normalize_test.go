package core

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"month day year", "06-28-2014", "2014-06-28", true},
		{"short month day year", "6-28-14", "2014-06-28", true},
		{"year month day", "2014-06-28", "2014-06-28", true},
		{"day month year", "28-06-2014", "2014-06-28", true},
		{"surrounding whitespace", " 06-28-2014 ", "2014-06-28", true},
		{"not a date", "N/A", "", false},
		{"empty", "", "", false},
		{"slashes unsupported", "06/28/2014", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.raw)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.Format(time.DateOnly) != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.raw, got.Format(time.DateOnly), tt.want)
			}
		})
	}
}

func TestParseDate_AmbiguousPrefersMonthFirst(t *testing.T) {
	// 01-02-2014 matches both month-day and day-month; the month-day
	// layout is tried first and wins.
	got, ok := ParseDate("01-02-2014")
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if got.Month() != time.January || got.Day() != 2 {
		t.Errorf("got %s, want January 2", got.Format(time.DateOnly))
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
		ok   bool
	}{
		{"count with unit", "3EA", 3.0, true},
		{"weight with unit", "0.41 lb", 0.41, true},
		{"bare integer", "2", 2.0, true},
		{"empty", "", 0, false},
		{"no digits", "each", 0, false},
		{"dots only", "...", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseQuantity(tt.raw)
			if ok != tt.ok {
				t.Fatalf("ParseQuantity(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseQuantity(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantCents int64
		ok        bool
	}{
		{"currency symbol", "$1.29", 129, true},
		{"per unit suffix", "0.29/EA", 29, true},
		{"bare decimal", "1.29", 129, true},
		{"whole dollars", "$38.68", 3868, true},
		{"no decimals", "4", 400, true},
		{"empty", "", 0, false},
		{"no digits", "FREE", 0, false},
		{"zero is absent", "$0.00", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePrice(tt.raw)
			if ok != tt.ok {
				t.Fatalf("ParsePrice(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if ok && got.Cents != tt.wantCents {
				t.Errorf("ParsePrice(%q) = %d cents, want %d", tt.raw, got.Cents, tt.wantCents)
			}
		})
	}
}
