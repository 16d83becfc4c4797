// Package tui implements the interactive terminal form.
package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/iwvelando/energy-optimizer/internal/form"
	"github.com/iwvelando/energy-optimizer/internal/render"
	"github.com/iwvelando/energy-optimizer/pkg/constants"
	"github.com/iwvelando/energy-optimizer/pkg/optimization"
	"github.com/iwvelando/energy-optimizer/pkg/querystate"
)

const (
	fieldPeakPrice = iota
	fieldOffPeakPrice
	fieldBatteryCostPerKw
	fieldPeakConsumption
	fieldOffPeakConsumption
	fieldSolarSizes
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Peak price",
	"Off-peak price",
	"Battery cost per kW",
	"Peak consumption",
	"Off-peak consumption",
	"Solar sizes (JSON)",
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	labelStyle   = lipgloss.NewStyle().Width(22)
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Width(22)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
)

// defaultsLoadedMsg carries the field values after loading defaults.
type defaultsLoadedMsg struct {
	fields optimization.Fields
}

// submittedMsg reports a settled submission.
type submittedMsg struct {
	state form.State
	err   error
}

// Model is the bubbletea model for the optimization form.
type Model struct {
	ctx      context.Context
	form     *form.Form
	defaults form.DefaultsSource

	inputs    [fieldCount]textinput.Model
	fieldErrs [fieldCount]string
	edited    [fieldCount]bool
	focus     int

	spinner spinner.Model
	running bool
	state   form.State
}

// New builds a model editing f. When defaults is non-nil, Init loads it
// before the form is shown.
func New(ctx context.Context, f *form.Form, defaults form.DefaultsSource) Model {
	if ctx == nil {
		ctx = context.Background()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:      ctx,
		form:     f,
		defaults: defaults,
		spinner:  sp,
		state:    f.State(),
	}

	for i := range m.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 256
		in.Width = 40
		m.inputs[i] = in
	}
	m.setInputs(f.Fields(), [fieldCount]bool{})
	m.inputs[0].Focus()
	return m
}

// Init loads defaults when a source was given.
func (m Model) Init() tea.Cmd {
	if m.defaults == nil {
		return textinput.Blink
	}
	f, src, ctx := m.form, m.defaults, m.ctx
	return tea.Batch(textinput.Blink, func() tea.Msg {
		f.LoadDefaults(ctx, src)
		return defaultsLoadedMsg{fields: f.Fields()}
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "down":
			m.moveFocus(1)
			return m, nil
		case "shift+tab", "up":
			m.moveFocus(-1)
			return m, nil
		case "enter":
			return m.submit()
		}

	case defaultsLoadedMsg:
		// Inputs typed into before the defaults arrived keep their text.
		m.setInputs(msg.fields, m.edited)
		return m, nil

	case submittedMsg:
		m.running = false
		if !errors.Is(msg.err, form.ErrSubmitInFlight) {
			m.state = msg.state
		}
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	before := m.inputs[m.focus].Value()
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if m.inputs[m.focus].Value() != before {
		m.edited[m.focus] = true
	}
	m.fieldErrs[m.focus] = ""
	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Energy Optimizer"))
	b.WriteString("\n")

	for i := range m.inputs {
		style := labelStyle
		if i == m.focus {
			style = focusedStyle
		}
		b.WriteString(style.Render(fieldLabels[i]))
		b.WriteString(m.inputs[i].View())
		if m.fieldErrs[i] != "" {
			b.WriteString(" ")
			b.WriteString(errorStyle.Render(m.fieldErrs[i]))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.running {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(constants.MessageRunning)
		b.WriteString("\n")
	} else {
		var out bytes.Buffer
		render.NewPretty(&out).Render(m.state)
		b.WriteString(out.String())
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab/shift+tab: move • enter: optimize • esc: quit"))
	b.WriteString("\n")
	return b.String()
}

// State returns the last settled state shown by the model.
func (m Model) State() form.State {
	return m.state
}

// Running reports whether a submission started by the model is in flight.
func (m Model) Running() bool {
	return m.running
}

func (m *Model) moveFocus(delta int) {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + fieldCount) % fieldCount
	m.inputs[m.focus].Focus()
}

// setInputs writes fields into every input not marked in keep.
func (m *Model) setInputs(fields optimization.Fields, keep [fieldCount]bool) {
	values := [fieldCount]string{
		fieldPeakPrice:          querystate.FormatNumber(fields.PeakPrice),
		fieldOffPeakPrice:       querystate.FormatNumber(fields.OffPeakPrice),
		fieldBatteryCostPerKw:   querystate.FormatNumber(fields.BatteryCostPerKw),
		fieldPeakConsumption:    querystate.FormatNumber(fields.PeakConsumption),
		fieldOffPeakConsumption: querystate.FormatNumber(fields.OffPeakConsumption),
		fieldSolarSizes:         fields.SolarInstallationSizes,
	}
	for i, v := range values {
		if keep[i] {
			continue
		}
		m.inputs[i].SetValue(v)
		m.fieldErrs[i] = ""
	}
}

// readFields parses the inputs, recording an inline error for every numeric
// field that does not parse.
func (m *Model) readFields() (optimization.Fields, bool) {
	targets := [fieldSolarSizes]*float64{}
	var fields optimization.Fields
	targets[fieldPeakPrice] = &fields.PeakPrice
	targets[fieldOffPeakPrice] = &fields.OffPeakPrice
	targets[fieldBatteryCostPerKw] = &fields.BatteryCostPerKw
	targets[fieldPeakConsumption] = &fields.PeakConsumption
	targets[fieldOffPeakConsumption] = &fields.OffPeakConsumption

	ok := true
	for i, target := range targets {
		v, err := strconv.ParseFloat(strings.TrimSpace(m.inputs[i].Value()), 64)
		if err != nil {
			m.fieldErrs[i] = fmt.Sprintf("not a number: %q", m.inputs[i].Value())
			ok = false
			continue
		}
		m.fieldErrs[i] = ""
		*target = v
	}
	fields.SolarInstallationSizes = m.inputs[fieldSolarSizes].Value()
	return fields, ok
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.running {
		return m, nil
	}

	fields, ok := m.readFields()
	if !ok {
		return m, nil
	}
	m.form.SetFields(fields)

	if _, err := optimization.ParseSolarSizes(fields.SolarInstallationSizes); err != nil {
		// Rejected locally, no request is sent.
		_, _ = m.form.Submit(m.ctx)
		m.state = m.form.State()
		return m, nil
	}

	m.running = true
	f, ctx := m.form, m.ctx
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		_, err := f.Submit(ctx)
		return submittedMsg{state: f.State(), err: err}
	})
}
