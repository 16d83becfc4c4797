package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/iwvelando/energy-optimizer/internal/config"
	"github.com/iwvelando/energy-optimizer/pkg/constants"
	"github.com/iwvelando/energy-optimizer/pkg/validation"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address          string               `yaml:"address"`
	Upstream         string               `yaml:"upstream"`
	MaxRequestSize   string               `yaml:"maxRequestSize"`
	Logging          config.LoggingConfig `yaml:"logging"`
	requestSizeBytes int64
}

// LoadConfig loads the server configuration from YAML. If the file does not exist,
// defaults are returned without error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Address:          constants.DefaultServerAddress,
		Upstream:         constants.DefaultEndpoint,
		MaxRequestSize:   strconv.FormatInt(constants.DefaultMaxRequestSizeBytes, 10),
		requestSizeBytes: constants.DefaultMaxRequestSizeBytes,
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequestSizeBytes returns the configured request size limit in bytes.
func (c *Config) RequestSizeBytes() int64 {
	return c.requestSizeBytes
}

// SetRequestSizeBytes overrides the configured request size limit.
func (c *Config) SetRequestSizeBytes(size int64) {
	if size > 0 {
		c.requestSizeBytes = size
		c.MaxRequestSize = strconv.FormatInt(size, 10)
	}
}

func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.Upstream == "" {
		c.Upstream = constants.DefaultEndpoint
	}
	if err := validation.ValidateEndpoint(c.Upstream); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	size, err := ParseSize(c.MaxRequestSize)
	if err != nil {
		return err
	}
	if size <= 0 {
		size = constants.DefaultMaxRequestSizeBytes
	}
	c.requestSizeBytes = size
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "64K", "1M") into bytes.
// An empty string yields the default request size.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxRequestSizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := strings.LastIndexFunc(upper, unicode.IsDigit) + 1
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}

	n, err := strconv.ParseInt(strings.TrimSpace(upper[:idx]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var shift uint
	switch strings.TrimSpace(upper[idx:]) {
	case "", "B":
		shift = 0
	case "K", "KB":
		shift = 10
	case "M", "MB":
		shift = 20
	default:
		return 0, fmt.Errorf("unsupported size unit %q", upper[idx:])
	}

	if n > (1<<62)>>shift {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return n << shift, nil
}
