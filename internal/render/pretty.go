package render

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/iwvelando/energy-optimizer/internal/form"
	"github.com/iwvelando/energy-optimizer/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	labelStyle   = lipgloss.NewStyle().Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	runningStyle = lipgloss.NewStyle().Faint(true)
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Pretty renders results as a labelled table with units.
type Pretty struct {
	mu sync.Mutex
	w  io.Writer
	p  *message.Printer
}

// NewPretty returns a Pretty renderer writing to w.
func NewPretty(w io.Writer) *Pretty {
	return &Pretty{w: w, p: message.NewPrinter(language.English)}
}

// Render writes s.
func (r *Pretty) Render(s form.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = io.WriteString(r.w, r.format(s))
}

func (r *Pretty) format(s form.State) string {
	switch s.Status {
	case form.StatusRunning:
		return runningStyle.Render(s.Message) + "\n"
	case form.StatusFailed, form.StatusInvalid:
		return errorStyle.Render(s.Message) + "\n"
	case form.StatusSucceeded:
		if s.Result == nil {
			return s.Message + "\n"
		}
	default:
		return s.Message + "\n"
	}

	rows := []struct {
		label string
		value float64
		unit  string
	}{
		{"Solar capacity", s.Result.SolarCapacity, "kW"},
		{"Battery capacity", s.Result.BatteryCapacity, "kWh"},
		{"Off-peak grid usage", s.Result.OffPeakGridUsage, "kWh"},
		{"Peak grid consumption", s.Result.PeakGridConsumption, "kWh"},
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render("--- Optimization result ---"))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(labelStyle.Render(r.p.Sprintf("%-22s", row.label)))
		b.WriteString(r.p.Sprintf(" | %12s %s\n", format.Quantity(row.value, 3), row.unit))
	}
	return b.String()
}
