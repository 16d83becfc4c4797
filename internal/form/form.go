// Package form implements the optimization form: it holds the field values,
// validates the solar sizes locally, runs one request per submission, and
// reports every state change to a Renderer.
package form

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/iwvelando/energy-optimizer/pkg/optimization"
	"github.com/iwvelando/energy-optimizer/pkg/querystate"
	"go.uber.org/zap"
)

// Optimizer sends a request to the optimization service.
type Optimizer interface {
	Optimize(ctx context.Context, req optimization.OptimizationRequest) (optimization.OptimizationResult, error)
}

// DefaultsSource provides initial field values.
type DefaultsSource interface {
	Defaults(ctx context.Context) (optimization.Parameters, error)
}

// Renderer receives every state the form enters. Render is called without any
// form lock held and must not call back into Submit synchronously.
type Renderer interface {
	Render(State)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(State)

// Render calls f(s).
func (f RendererFunc) Render(s State) {
	f(s)
}

// Form is safe for concurrent use. At most one submission runs at a time.
type Form struct {
	optimizer Optimizer
	renderer  Renderer
	logger    *zap.Logger

	running atomic.Bool

	mu     sync.Mutex
	fields optimization.Fields
	state  State
	query  url.Values
}

// Option configures a Form.
type Option func(*Form)

// WithRenderer sets the rendering boundary.
func WithRenderer(r Renderer) Option {
	return func(f *Form) {
		if r != nil {
			f.renderer = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithFields sets the initial field values.
func WithFields(fields optimization.Fields) Option {
	return func(f *Form) {
		f.fields = fields
	}
}

// New creates a form that submits through optimizer.
func New(optimizer Optimizer, opts ...Option) *Form {
	f := &Form{
		optimizer: optimizer,
		renderer:  RendererFunc(func(State) {}),
		logger:    zap.NewNop(),
		state:     idleState(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fields returns the current field values.
func (f *Form) Fields() optimization.Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// SetFields replaces the field values.
func (f *Form) SetFields(fields optimization.Fields) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = fields
}

// State returns the current display state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Running reports whether a submission is in flight.
func (f *Form) Running() bool {
	return f.running.Load()
}

// RestoreQuery applies form values found in values and turns on query
// persistence: after each successful submission the submitted values are
// merged back into the query. A malformed value is returned as an error and
// leaves the fields unchanged, but persistence is still enabled.
func (f *Form) RestoreQuery(values url.Values) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.query = cloneValues(values)
	if err := querystate.Read(values, &f.fields); err != nil {
		return err
	}
	return nil
}

// Query returns a copy of the persisted query parameters, or nil when query
// persistence is off.
func (f *Form) Query() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.query == nil {
		return nil
	}
	return cloneValues(f.query)
}

// LoadDefaults fetches initial values from src. It is best effort: a failure
// is logged and the fields stay as they were. Values restored from the query
// take precedence over the fetched defaults.
func (f *Form) LoadDefaults(ctx context.Context, src DefaultsSource) {
	params, err := src.Defaults(ctx)
	if err != nil {
		f.logger.Warn("failed to load defaults",
			zap.String("op", "form.LoadDefaults"),
			zap.Error(err),
		)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields.Apply(params)
	if f.query != nil {
		if err := querystate.Read(f.query, &f.fields); err != nil {
			f.logger.Warn("ignoring malformed query parameters",
				zap.String("op", "form.LoadDefaults"),
				zap.Error(err),
			)
		}
	}
	f.logger.Debug("defaults loaded", zap.String("op", "form.LoadDefaults"))
}

// Submit validates the current fields and runs one optimization request.
//
// Malformed solar sizes fail with *ValidationError before any request is
// sent. Transport and response failures are returned as the optimizer's error.
// While a submission is in flight further calls return ErrSubmitInFlight and
// leave the state alone.
func (f *Form) Submit(ctx context.Context) (optimization.OptimizationResult, error) {
	if f.running.Load() {
		return optimization.OptimizationResult{}, ErrSubmitInFlight
	}

	fields := f.Fields()
	req, err := fields.Request()
	if err != nil {
		verr := &ValidationError{Field: "solar_installation_sizes", Err: err}
		f.logger.Debug("rejected submission",
			zap.String("op", "form.Submit"),
			zap.Error(verr),
		)
		f.reject(verr)
		return optimization.OptimizationResult{}, verr
	}

	if !f.running.CompareAndSwap(false, true) {
		return optimization.OptimizationResult{}, ErrSubmitInFlight
	}
	settled := failedState(errors.New("submission aborted"))
	defer func() {
		f.running.Store(false)
		f.transition(settled)
	}()

	f.transition(runningState())

	result, err := f.optimizer.Optimize(ctx, req)
	if err != nil {
		f.logger.Warn("optimization request failed",
			zap.String("op", "form.Submit"),
			zap.Error(err),
		)
		settled = failedState(err)
		return optimization.OptimizationResult{}, fmt.Errorf("optimization request failed: %w", err)
	}

	f.persist(fields)
	settled = succeededState(result)
	f.logger.Info("optimization complete",
		zap.String("op", "form.Submit"),
		zap.Float64("solarCapacity", result.SolarCapacity),
		zap.Float64("batteryCapacity", result.BatteryCapacity),
	)
	return result, nil
}

func (f *Form) persist(fields optimization.Fields) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.query == nil {
		return
	}
	querystate.Write(f.query, fields)
}

// reject shows a validation failure unless a submission started since the
// in-flight check, in which case that submission keeps the display.
func (f *Form) reject(verr *ValidationError) {
	s := invalidState(verr)
	f.mu.Lock()
	if f.running.Load() {
		f.mu.Unlock()
		return
	}
	f.state = s
	f.mu.Unlock()
	f.renderer.Render(s)
}

func (f *Form) transition(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
	f.renderer.Render(s)
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, v := range values {
		out[k] = append([]string(nil), v...)
	}
	return out
}
