package domain

import (
	"errors"
	"testing"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"dot thousands comma decimal", "$19.999,50", "19999.50"},
		{"plain integer with spaces", "$ 19999", "19999.00"},
		{"comma decimal", "19,99", "19.99"},
		{"dot decimal", "19.99", "19.99"},
		{"single dot three digits is thousands", "1.234", "1234.00"},
		{"single comma three digits is thousands", "1,234", "1234.00"},
		{"comma thousands dot decimal", "1,234.56", "1234.56"},
		{"repeated dots are thousands", "1.299.999", "1299999.00"},
		{"currency prefix", "AR$ 1.299.999", "1299999.00"},
		{"one fraction digit", "19.999,5", "19999.50"},
		{"bare digits", "42", "42.00"},
		{"leading separator", ",50", "0.50"},
		{"trailing separator dropped", "19.", "19.00"},
		{"decoration stripped", "  $ 1.500,00 ARS ", "1500.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if err != nil {
				t.Fatalf("ParsePrice(%q) error = %v", tt.input, err)
			}
			if got.StringFixed(2) != tt.want {
				t.Errorf("ParsePrice(%q) = %s, want %s", tt.input, got.StringFixed(2), tt.want)
			}
		})
	}
}

func TestParsePriceErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", "", ErrNoDigits},
		{"no digits", "consultar precio", ErrNoDigits},
		{"separators only", "..,", ErrNoDigits},
		{"three fraction digits with both separators", "12.345,678", ErrAmbiguousPrice},
		{"decimal separator repeated", "1,23,45.6.7", ErrAmbiguousPrice},
		{"too many integer digits", "1.234.567.890.123.456", ErrPriceTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePrice(tt.input)
			if err == nil {
				t.Fatalf("ParsePrice(%q) expected error", tt.input)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParsePrice(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestParsePriceIdempotent(t *testing.T) {
	inputs := []string{"$19.999,50", "$ 19999", "19,99", "1.234", "0,50"}

	for _, input := range inputs {
		first, err := ParsePrice(input)
		if err != nil {
			t.Fatalf("ParsePrice(%q) error = %v", input, err)
		}
		second, err := ParsePrice(first.StringFixed(2))
		if err != nil {
			t.Fatalf("re-parse of %q error = %v", first.StringFixed(2), err)
		}
		if !first.Equal(second) {
			t.Errorf("re-parse of %q drifted: %s -> %s", input, first, second)
		}
	}
}
