// Package format renders numbers for terminal display.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Quantity returns value rounded half away from zero to places decimals, with
// thousands separators (e.g., "-1,234.500").
func Quantity(value float64, places int32) string {
	d := decimal.NewFromFloat(value).Round(places)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + group(d.StringFixed(places))
}

func group(formatted string) string {
	intPart, decPart, hasDec := strings.Cut(formatted, ".")

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if !hasDec {
		return intPart
	}
	return intPart + "." + decPart
}
