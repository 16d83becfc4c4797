// Package optimization provides the data exchanged with the optimization
// service: the request built from form values, the parameters served as
// defaults, and the result returned by the service.
package optimization

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/iwvelando/energy-optimizer/pkg/constants"
)

// ErrInvalidSolarSizes marks solar sizes text that is not a JSON object of
// string-to-number pairs.
var ErrInvalidSolarSizes = errors.New("invalid JSON for solar sizes")

// SolarSizes maps a nominal installation size to its coefficient.
type SolarSizes map[string]float64

// OptimizationRequest is the body posted to the optimization endpoint.
type OptimizationRequest struct {
	PeakPrice              float64    `json:"peak_price"`
	OffPeakPrice           float64    `json:"off_peak_price"`
	BatteryCostPerKw       float64    `json:"battery_cost_per_kw"`
	PeakConsumption        float64    `json:"peak_consumption"`
	OffPeakConsumption     float64    `json:"off_peak_consumption"`
	SolarInstallationSizes SolarSizes `json:"solar_installation_sizes"`
}

// Parameters holds form values served by the defaults endpoint. Absent fields
// stay nil so a partial response leaves the remaining form fields untouched.
type Parameters struct {
	PeakPrice              *float64   `json:"peak_price,omitempty" yaml:"peakPrice,omitempty" mapstructure:"peakPrice"`
	OffPeakPrice           *float64   `json:"off_peak_price,omitempty" yaml:"offPeakPrice,omitempty" mapstructure:"offPeakPrice"`
	BatteryCostPerKw       *float64   `json:"battery_cost_per_kw,omitempty" yaml:"batteryCostPerKw,omitempty" mapstructure:"batteryCostPerKw"`
	PeakConsumption        *float64   `json:"peak_consumption,omitempty" yaml:"peakConsumption,omitempty" mapstructure:"peakConsumption"`
	OffPeakConsumption     *float64   `json:"off_peak_consumption,omitempty" yaml:"offPeakConsumption,omitempty" mapstructure:"offPeakConsumption"`
	SolarInstallationSizes SolarSizes `json:"solar_installation_sizes,omitempty" yaml:"solarInstallationSizes,omitempty" mapstructure:"solarInstallationSizes"`
}

// ParseSolarSizes parses the raw text of the solar sizes field. Anything other
// than a JSON object with numeric values is rejected, including null.
func ParseSolarSizes(text string) (SolarSizes, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("%w: expected an object", ErrInvalidSolarSizes)
	}

	var raw map[string]*float64
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSolarSizes, err)
	}

	sizes := make(SolarSizes, len(raw))
	for k, v := range raw {
		if v == nil {
			return nil, fmt.Errorf("%w: size %q has no value", ErrInvalidSolarSizes, k)
		}
		sizes[k] = *v
	}
	return sizes, nil
}

// Keys returns the size keys in ascending numeric order. Keys that are not
// numbers sort after numeric keys, lexically.
func (s SolarSizes) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aErr := strconv.ParseFloat(keys[i], 64)
		b, bErr := strconv.ParseFloat(keys[j], 64)
		switch {
		case aErr == nil && bErr == nil:
			if a != b {
				return a < b
			}
			return keys[i] < keys[j]
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// String encodes the sizes as compact JSON with keys in numeric order, the
// form the solar sizes field displays.
func (s SolarSizes) String() string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(k)
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(s[k], 'g', -1, 64))
	}
	buf.WriteByte('}')
	return buf.String()
}

// Clone returns an independent copy.
func (s SolarSizes) Clone() SolarSizes {
	if s == nil {
		return nil
	}
	out := make(SolarSizes, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// DefaultParameters returns the built-in parameter set.
func DefaultParameters() Parameters {
	peak, offPeak := constants.DefaultPeakPrice, constants.DefaultOffPeakPrice
	battery := constants.DefaultBatteryCostPerKw
	peakLoad, offPeakLoad := constants.DefaultPeakConsumption, constants.DefaultOffPeakConsumption

	// The constant is valid JSON; a parse failure here is a programming error.
	sizes, err := ParseSolarSizes(constants.DefaultSolarInstallationSizes)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in solar sizes: %v", err))
	}

	return Parameters{
		PeakPrice:              &peak,
		OffPeakPrice:           &offPeak,
		BatteryCostPerKw:       &battery,
		PeakConsumption:        &peakLoad,
		OffPeakConsumption:     &offPeakLoad,
		SolarInstallationSizes: sizes,
	}
}
