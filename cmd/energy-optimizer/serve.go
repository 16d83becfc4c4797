package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/iwvelando/energy-optimizer/internal/config"
	"github.com/iwvelando/energy-optimizer/internal/server"
	"github.com/iwvelando/energy-optimizer/pkg/constants"
	"github.com/iwvelando/energy-optimizer/pkg/optimization"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serverConfigLocation string
	serveAddress         string
	serveUpstream        string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web form and forward optimization requests",
	Long: `Serves the browser form, answers GET /defaults from the configuration file
(reloaded when the file changes) and forwards POST /optimize to the upstream
optimization service.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srvCfg, err := server.LoadConfig(serverConfigLocation)
		if err != nil {
			return err
		}
		if serveAddress != "" {
			srvCfg.Address = serveAddress
		}
		if serveUpstream != "" {
			srvCfg.Upstream = serveUpstream
		}

		log := logger
		if srvCfg.Logging != (config.LoggingConfig{}) {
			log, err = initializeLogger(srvCfg.Logging, logLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize server logger: %w", err)
			}
			defer func() {
				_ = log.Sync()
			}()
		}

		var defaults atomic.Pointer[optimization.Parameters]
		params := conf.Parameters()
		defaults.Store(&params)

		if path, _ := resolveConfigPath(cmd); path != "" && path != stdinConfig {
			if _, err := config.WatchConfiguration(path, log, func(updated *config.Configuration) {
				p := updated.Parameters()
				defaults.Store(&p)
			}); err != nil {
				return err
			}
		}

		handler, err := server.NewHandler(log, srvCfg.Upstream, srvCfg.RequestSizeBytes(), version, func() optimization.Parameters {
			return *defaults.Load()
		})
		if err != nil {
			return err
		}

		listener, err := net.Listen("tcp", srvCfg.Address)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", srvCfg.Address, err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("serving web form",
			zap.String("op", "main.serve"),
			zap.String("address", listener.Addr().String()),
			zap.String("upstream", srvCfg.Upstream),
			zap.Int64("maxRequestSize", srvCfg.RequestSizeBytes()),
		)
		return server.Run(ctx, log, listener, handler, constants.DefaultShutdownTimeout)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverConfigLocation, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "listen address override")
	serveCmd.Flags().StringVar(&serveUpstream, "upstream", "", "upstream optimization service URL override")
}
