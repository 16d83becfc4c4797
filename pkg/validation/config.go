package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateEndpoint checks that endpoint is an absolute http or https URL.
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}
	return nil
}

// ValidateLogLevel accepts the levels understood by the logger, or empty for the default.
func ValidateLogLevel(level string) error {
	switch level {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}
}

// ValidateLogFormat accepts json or console, or empty for the default.
func ValidateLogFormat(format string) error {
	switch format {
	case "", "json", "console":
		return nil
	default:
		return fmt.Errorf("invalid log format: %s", format)
	}
}

// ValidateTopicPrefix rejects MQTT wildcards, which are not allowed in
// published topic names.
func ValidateTopicPrefix(prefix string) error {
	if strings.ContainsAny(prefix, "+#") {
		return fmt.Errorf("invalid topic prefix %q: wildcards are not allowed", prefix)
	}
	return nil
}
