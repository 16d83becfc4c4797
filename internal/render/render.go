// Package render implements form renderers: indented JSON, a labelled
// terminal table, and an MQTT publisher.
package render

import (
	"fmt"
	"io"
	"sync"

	"github.com/iwvelando/energy-optimizer/internal/form"
	"github.com/iwvelando/energy-optimizer/pkg/constants"
	"github.com/iwvelando/energy-optimizer/pkg/validation"
)

// JSON writes settled states as the browser form displays them: the result
// indented by two spaces, or the status and error text as plain lines.
type JSON struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJSON returns a JSON renderer writing to w.
func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w}
}

// Render writes s.
func (j *JSON) Render(s form.State) {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, _ = fmt.Fprintln(j.w, s.Message)
}

// Multi fans a state out to several renderers in order.
type Multi []form.Renderer

// Render forwards s to every renderer.
func (m Multi) Render(s form.State) {
	for _, r := range m {
		r.Render(s)
	}
}

// SettledOnly drops the transient running state, for renderers that should
// only see outcomes.
func SettledOnly(r form.Renderer) form.Renderer {
	return form.RendererFunc(func(s form.State) {
		if s.Status == form.StatusRunning {
			return
		}
		r.Render(s)
	})
}

// ForFormat returns the terminal renderer for an output format.
func ForFormat(format string, w io.Writer) (form.Renderer, error) {
	if err := validation.ValidateOutputFormat(format); err != nil {
		return nil, err
	}
	switch format {
	case constants.OutputFormatJSON:
		return NewJSON(w), nil
	default:
		return NewPretty(w), nil
	}
}
