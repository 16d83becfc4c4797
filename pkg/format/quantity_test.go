package format

import "testing"

func TestQuantity(t *testing.T) {
	tests := []struct {
		value  float64
		places int32
		want   string
	}{
		{0, 3, "0.000"},
		{5, 3, "5.000"},
		{1234.5, 3, "1,234.500"},
		{-1234.5, 3, "-1,234.500"},
		{1234567.891, 2, "1,234,567.89"},
		{0.0005, 3, "0.001"},
		{-0.0004, 3, "0.000"},
		{999.9996, 3, "1,000.000"},
		{42, 0, "42"},
	}

	for _, tt := range tests {
		if got := Quantity(tt.value, tt.places); got != tt.want {
			t.Fatalf("Quantity(%v, %d) = %q, expected %q", tt.value, tt.places, got, tt.want)
		}
	}
}
