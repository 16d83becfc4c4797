// Package querystate mirrors form values into URL query parameters so a shared
// link reproduces the same inputs.
package querystate

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/iwvelando/energy-optimizer/pkg/constants"
	"github.com/iwvelando/energy-optimizer/pkg/optimization"
	"github.com/shopspring/decimal"
)

type numericKey struct {
	name  string
	field func(*optimization.Fields) *float64
}

var numericKeys = []numericKey{
	{constants.QueryPeakPrice, func(f *optimization.Fields) *float64 { return &f.PeakPrice }},
	{constants.QueryOffPeakPrice, func(f *optimization.Fields) *float64 { return &f.OffPeakPrice }},
	{constants.QueryBatteryCostPerKw, func(f *optimization.Fields) *float64 { return &f.BatteryCostPerKw }},
	{constants.QueryPeakConsumption, func(f *optimization.Fields) *float64 { return &f.PeakConsumption }},
	{constants.QueryOffPeakConsumption, func(f *optimization.Fields) *float64 { return &f.OffPeakConsumption }},
}

// Read applies the form keys present in values to fields. Absent or empty keys
// leave the corresponding field unchanged. A value that is not a number is an
// error naming the key, and fields is left untouched.
func Read(values url.Values, fields *optimization.Fields) error {
	updated := *fields
	for _, key := range numericKeys {
		raw := strings.TrimSpace(values.Get(key.name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid value for query parameter %s: %w", key.name, err)
		}
		*key.field(&updated) = v
	}
	if sizes := values.Get(constants.QuerySolarInstallationSizes); sizes != "" {
		updated.SolarInstallationSizes = sizes
	}
	*fields = updated
	return nil
}

// Present reports whether any form key is set in values.
func Present(values url.Values) bool {
	for _, key := range numericKeys {
		if values.Get(key.name) != "" {
			return true
		}
	}
	return values.Get(constants.QuerySolarInstallationSizes) != ""
}

// Write sets every form key in values from fields, leaving unrelated keys in
// place.
func Write(values url.Values, fields optimization.Fields) {
	for _, key := range numericKeys {
		values.Set(key.name, FormatNumber(*key.field(&fields)))
	}
	values.Set(constants.QuerySolarInstallationSizes, fields.SolarInstallationSizes)
}

// Link returns base with the form keys merged into its query.
func Link(base string, fields optimization.Fields) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("failed to parse link base %q: %w", base, err)
	}
	values := u.Query()
	Write(values, fields)
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// FormatNumber renders v in plain decimal notation using the shortest digits
// that parse back to exactly v.
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return decimal.NewFromFloat(v).String()
}
