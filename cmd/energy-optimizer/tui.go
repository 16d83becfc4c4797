package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/iwvelando/energy-optimizer/internal/form"
	"github.com/iwvelando/energy-optimizer/internal/render"
	"github.com/iwvelando/energy-optimizer/internal/tui"
	"github.com/spf13/cobra"
)

var tuiClient clientFlags

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Edit and submit the form interactively in the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var renderer form.Renderer = form.RendererFunc(func(form.State) {})
		if conf.MQTT.Enabled() {
			mqtt, err := render.NewMQTT(conf.MQTT, logger)
			if err != nil {
				return err
			}
			defer mqtt.Close()
			renderer = render.SettledOnly(mqtt)
		}

		f, c, err := newForm(conf, logger, &tuiClient, renderer)
		if err != nil {
			return err
		}

		// Defaults load inside the model so the form appears immediately.
		var src form.DefaultsSource
		if tuiClient.loadDefaults || conf.LoadDefaults {
			src = c
		}

		if _, err := tea.NewProgram(tui.New(ctx, f, src), tea.WithContext(ctx)).Run(); err != nil {
			return fmt.Errorf("terminal form failed: %w", err)
		}
		return nil
	},
}

func init() {
	tuiClient.register(tuiCmd)
}
