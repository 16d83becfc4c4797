package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/iwvelando/energy-optimizer/pkg/constants"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Run serves handler on listener until ctx is cancelled, then shuts the
// server down gracefully within shutdownTimeout.
func Run(ctx context.Context, logger *zap.Logger, listener net.Listener, handler http.Handler, shutdownTimeout time.Duration) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = constants.DefaultShutdownTimeout
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		logger.Info("web server listening",
			zap.String("op", "server.Run"),
			zap.String("address", listener.Addr().String()),
		)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server failed: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info("web server shutting down", zap.String("op", "server.Run"))
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("web server shutdown failed: %w", err)
		}
		return nil
	})

	return eg.Wait()
}
