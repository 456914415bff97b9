package core

import "testing"

func TestDecimalToCents(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
		ok   bool
	}{
		{"two decimals", "12.34", 1234, true},
		{"no decimals", "12", 1200, true},
		{"one decimal", "12.3", 1230, true},
		{"third decimal rounds down", "12.344", 1234, true},
		{"third decimal rounds up", "12.345", 1235, true},
		{"leading dot", ".99", 99, true},
		{"empty", "", 0, false},
		{"zero", "0", 0, false},
		{"zero with decimals", "0.00", 0, false},
		{"two dots", "1.2.3", 0, false},
		{"letters", "12a", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecimalToCents(tt.in)
			if ok != tt.ok {
				t.Fatalf("DecimalToCents(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("DecimalToCents(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestMoneyDividedBy(t *testing.T) {
	tests := []struct {
		name     string
		cents    int64
		quantity float64
		want     int64
	}{
		{"even split", 400, 2, 200},
		{"fractional quantity", 99, 0.41, 241},
		{"rounds to nearest cent", 100, 3, 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Money{Cents: tt.cents}.DividedBy(tt.quantity)
			if got.Cents != tt.want {
				t.Errorf("%d / %v = %d cents, want %d", tt.cents, tt.quantity, got.Cents, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	if got := (Money{Cents: 3868}).String(); got != "$38.68" {
		t.Errorf("String() = %q, want %q", got, "$38.68")
	}
}
