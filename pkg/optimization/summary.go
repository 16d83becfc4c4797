package optimization

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// OptimizationResult is the sizing recommendation returned by the optimization service.
type OptimizationResult struct {
	SolarCapacity       float64 `json:"solar_capacity"`
	BatteryCapacity     float64 `json:"battery_capacity"`
	OffPeakGridUsage    float64 `json:"off_peak_grid_usage"`
	PeakGridConsumption float64 `json:"peak_grid_consumption"`
}

// envelope is the wrapped response shape {"status": "ok", "summary": {...}}.
type envelope struct {
	Status  string              `json:"status"`
	Summary *OptimizationResult `json:"summary"`
}

// ErrEmptyResult is returned when a response body decodes to nothing.
var ErrEmptyResult = errors.New("empty optimization result")

// DecodeResult parses a response body holding either a bare result object or
// the {"status", "summary"} envelope. When both shapes are present the
// envelope's summary wins.
func DecodeResult(data []byte) (OptimizationResult, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return OptimizationResult{}, ErrEmptyResult
	}

	var wrapped envelope
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return OptimizationResult{}, fmt.Errorf("decode result: %w", err)
	}
	if wrapped.Summary != nil {
		return *wrapped.Summary, nil
	}

	var result OptimizationResult
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return OptimizationResult{}, fmt.Errorf("decode result: %w", err)
	}
	return result, nil
}

// Indented renders the result the way the browser form displays it: JSON
// indented by two spaces.
func (r OptimizationResult) Indented() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		// A struct of four float64 fields only fails on NaN or Inf.
		return fmt.Sprintf("%+v", r)
	}
	return string(data)
}
