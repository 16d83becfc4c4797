package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/iwvelando/energy-optimizer/internal/config"
	"github.com/iwvelando/energy-optimizer/pkg/constants"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	configLocation string
	logLevel       string

	conf   *config.Configuration
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "energy-optimizer",
	Short: "Client for the energy sizing optimization service",
	Long: `energy-optimizer collects energy prices, consumption and candidate solar
installation sizes, sends them to the optimization service and renders the
recommended solar capacity, battery capacity and grid usage.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		path, err := resolveConfigPath(cmd)
		if err != nil {
			return err
		}

		conf, err = loadConfiguration(cmd, path)
		if err != nil {
			return err
		}
		if err := conf.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logger, err = initializeLogger(conf.Logging, logLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// stdinConfig is the --config value that reads the configuration from stdin.
const stdinConfig = "-"

func loadConfiguration(cmd *cobra.Command, path string) (*config.Configuration, error) {
	if path == stdinConfig {
		conf, err := config.LoadConfigurationFromReader(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration from stdin: %w", err)
		}
		return conf, nil
	}

	conf, err := config.LoadConfiguration(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration at %s: %w", path, err)
	}
	return conf, nil
}

// resolveConfigPath returns the config file to load. A missing default file
// is not an error; a missing file named on the command line is.
func resolveConfigPath(cmd *cobra.Command) (string, error) {
	if cmd.Flags().Changed("config") {
		return configLocation, nil
	}
	if _, err := os.Stat(configLocation); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to stat %s: %w", configLocation, err)
	}
	return configLocation, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configLocation, "config", constants.DefaultConfigFile, "path to configuration file, - for stdin")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(linkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
