package main

import (
	"github.com/iwvelando/energy-optimizer/pkg/optimization"
	"github.com/spf13/cobra"
)

// fieldFlags holds the per-field command line overrides.
type fieldFlags struct {
	peakPrice          float64
	offPeakPrice       float64
	batteryCostPerKw   float64
	peakConsumption    float64
	offPeakConsumption float64
	solarSizes         string
}

func (ff *fieldFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Float64Var(&ff.peakPrice, "peak-price", 0, "price per kWh during peak hours")
	flags.Float64Var(&ff.offPeakPrice, "off-peak-price", 0, "price per kWh during off-peak hours")
	flags.Float64Var(&ff.batteryCostPerKw, "battery-cost-per-kw", 0, "battery cost per kW")
	flags.Float64Var(&ff.peakConsumption, "peak-consumption", 0, "consumption during peak hours (kWh)")
	flags.Float64Var(&ff.offPeakConsumption, "off-peak-consumption", 0, "consumption during off-peak hours (kWh)")
	flags.StringVar(&ff.solarSizes, "solar-sizes", "", `solar installation sizes as JSON, e.g. '{"3":0.282,"5":0.25}'`)
}

// apply overwrites the fields whose flags were set explicitly.
func (ff *fieldFlags) apply(cmd *cobra.Command, fields *optimization.Fields) {
	flags := cmd.Flags()
	if flags.Changed("peak-price") {
		fields.PeakPrice = ff.peakPrice
	}
	if flags.Changed("off-peak-price") {
		fields.OffPeakPrice = ff.offPeakPrice
	}
	if flags.Changed("battery-cost-per-kw") {
		fields.BatteryCostPerKw = ff.batteryCostPerKw
	}
	if flags.Changed("peak-consumption") {
		fields.PeakConsumption = ff.peakConsumption
	}
	if flags.Changed("off-peak-consumption") {
		fields.OffPeakConsumption = ff.offPeakConsumption
	}
	if flags.Changed("solar-sizes") {
		fields.SolarInstallationSizes = ff.solarSizes
	}
}

// clientFlags selects the optimization service and initial field sources.
type clientFlags struct {
	endpoint     string
	fromURL      string
	loadDefaults bool
}

func (cf *clientFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&cf.endpoint, "endpoint", "", "optimization service base URL (overrides config)")
	flags.StringVar(&cf.fromURL, "from-url", "", "restore field values from the query of a shared link")
	flags.BoolVar(&cf.loadDefaults, "load-defaults", false, "load field defaults from the service before submitting")
}
