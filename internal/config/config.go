// Package config defines the data structures related to configuration and
// includes functions for loading, validating and watching the config.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/iwvelando/energy-optimizer/internal/render"
	"github.com/iwvelando/energy-optimizer/pkg/constants"
	"github.com/iwvelando/energy-optimizer/pkg/optimization"
	"github.com/iwvelando/energy-optimizer/pkg/validation"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Configuration holds all configuration for energy-optimizer.
type Configuration struct {
	Endpoint     string                  `yaml:"endpoint"`
	Timeout      time.Duration           `yaml:"timeout,omitempty"`
	LoadDefaults bool                    `yaml:"loadDefaults,omitempty"`
	Defaults     optimization.Parameters `yaml:"defaults,omitempty"`
	Logging      LoggingConfig           `yaml:"logging,omitempty"`
	Output       OutputConfig            `yaml:"output,omitempty"`
	MQTT         render.MQTTConfig       `yaml:"mqtt,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, json
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("endpoint", constants.DefaultEndpoint)
	v.SetDefault("timeout", constants.DefaultTimeout)
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("mqtt.topicPrefix", constants.DefaultMQTTTopicPrefix)
	v.SetDefault("mqtt.clientId", constants.DefaultMQTTClientID)
	// Bound so AutomaticEnv can supply them without a config file entry.
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path yields the defaults plus any
// ENERGY_OPTIMIZER_* environment overrides.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

// WatchConfiguration loads the file at configPath and calls onChange with the
// decoded configuration every time the file changes. Reloads that fail to
// decode are logged and skipped.
func WatchConfiguration(configPath string, logger *zap.Logger, onChange func(*Configuration)) (*Configuration, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	conf, err := decode(v)
	if err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decode(v)
		if err != nil {
			logger.Warn("ignoring invalid configuration change",
				zap.String("op", "config.WatchConfiguration"),
				zap.String("file", e.Name),
				zap.Error(err),
			)
			return
		}
		logger.Info("configuration reloaded",
			zap.String("op", "config.WatchConfiguration"),
			zap.String("file", e.Name),
			zap.String("event", e.Op.String()),
		)
		onChange(updated)
	})
	v.WatchConfig()

	return conf, nil
}

// Fields returns the built-in defaults overlaid with the configured ones.
func (c *Configuration) Fields() optimization.Fields {
	fields := optimization.DefaultFields()
	fields.Apply(c.Defaults)
	return fields
}

// Parameters returns the complete parameter set served as form defaults.
func (c *Configuration) Parameters() optimization.Parameters {
	params := optimization.DefaultParameters()
	if c.Defaults.PeakPrice != nil {
		params.PeakPrice = c.Defaults.PeakPrice
	}
	if c.Defaults.OffPeakPrice != nil {
		params.OffPeakPrice = c.Defaults.OffPeakPrice
	}
	if c.Defaults.BatteryCostPerKw != nil {
		params.BatteryCostPerKw = c.Defaults.BatteryCostPerKw
	}
	if c.Defaults.PeakConsumption != nil {
		params.PeakConsumption = c.Defaults.PeakConsumption
	}
	if c.Defaults.OffPeakConsumption != nil {
		params.OffPeakConsumption = c.Defaults.OffPeakConsumption
	}
	if c.Defaults.SolarInstallationSizes != nil {
		params.SolarInstallationSizes = c.Defaults.SolarInstallationSizes.Clone()
	}
	return params
}

// Validate checks the configuration and returns the first problem found.
func (c *Configuration) Validate() error {
	if err := validation.ValidateEndpoint(c.Endpoint); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if err := validation.ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if err := validation.ValidateLogFormat(c.Logging.Format); err != nil {
		return err
	}
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			return err
		}
	}
	if err := validation.ValidateTopicPrefix(c.MQTT.TopicPrefix); err != nil {
		return err
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	return nil
}
