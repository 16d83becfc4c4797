// Package constants provides shared constants for the energy-optimizer application.
package constants

import "time"

// Optimization service endpoints
const (
	// OptimizePath is the path of the optimization endpoint on the upstream service
	OptimizePath = "/optimize"

	// DefaultsPath is the path serving default form values
	DefaultsPath = "/defaults"

	// VersionPath is the path of the web front end's version endpoint
	VersionPath = "/api/version"

	// DefaultEndpoint is the base URL used when none is configured
	DefaultEndpoint = "http://localhost:5000"

	// DefaultTimeout of zero leaves requests bounded only by the transport
	DefaultTimeout time.Duration = 0

	// RequestIDHeader carries a per-request identifier to the upstream service
	RequestIDHeader = "X-Request-ID"
)

// Built-in parameter defaults
const (
	DefaultPeakPrice          = 0.5
	DefaultOffPeakPrice       = 0.4
	DefaultBatteryCostPerKw   = 0.15
	DefaultPeakConsumption    = 10.0
	DefaultOffPeakConsumption = 20.0

	// DefaultSolarInstallationSizes maps nominal array size (kW) to its coefficient
	DefaultSolarInstallationSizes = `{"3":0.282,"5":0.25,"6":0.23,"8":0.21,"10":0.19,"12":0.117}`
)

// Query parameter names used to persist form values in a URL
const (
	QueryPeakPrice              = "peakPrice"
	QueryOffPeakPrice           = "offPeakPrice"
	QueryBatteryCostPerKw       = "batteryCostPerKw"
	QueryPeakConsumption        = "peakConsumption"
	QueryOffPeakConsumption     = "offPeakConsumption"
	QuerySolarInstallationSizes = "solarInstallationSizes"
)

// Display messages
const (
	// MessageNoRun is shown before the first submission
	MessageNoRun = "No run yet."

	// MessageRunning is shown while a submission is in flight
	MessageRunning = "Running..."

	// MessageInvalidSolarSizes is shown when the solar sizes text is not valid JSON
	MessageInvalidSolarSizes = "Invalid JSON for solar sizes"

	// MessageRequestFailedPrefix prefixes the underlying error of a failed request
	MessageRequestFailedPrefix = "Request failed: "
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatJSON is the indented JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment variable overrides
	EnvPrefix = "ENERGY_OPTIMIZER"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the web UI
	DefaultServerAddress = ":8080"

	// DefaultMaxRequestSizeBytes is the default maximum size of a proxied optimize request (64 KB)
	DefaultMaxRequestSizeBytes int64 = 64 * 1024

	// DefaultShutdownTimeout bounds graceful server shutdown
	DefaultShutdownTimeout = 5 * time.Second

	// DefaultLinkBase is the web form URL used for shareable links
	DefaultLinkBase = "http://localhost:8080/"
)

// MQTT defaults
const (
	// DefaultMQTTTopicPrefix is the topic prefix for published results
	DefaultMQTTTopicPrefix = "energy-optimizer"

	// DefaultMQTTClientID identifies the publisher to the broker
	DefaultMQTTClientID = "energy-optimizer"
)
