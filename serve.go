package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/strm123/strm123/internal/config"
	"github.com/strm123/strm123/internal/gateway"
)

// Server timeouts. Handlers only wait on one account API call, so these are
// well above the network timeout.
const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 15 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the redirect gateway that pointer files link to",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "listen address (overrides gateway.listen)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := config.ValidateCredentials(resolvedCfg); err != nil {
		return err
	}

	logger := buildLogger(resolvedCfg, os.Stderr)

	client, err := newPanClient(resolvedCfg, logger)
	if err != nil {
		return err
	}

	sess := newSession(resolvedCfg, client, logger)
	ctx, stop := shutdownContext(cmd.Context(), logger)
	defer stop()

	// Sign in up front so the first request is fast. A failure is not fatal:
	// every request retries.
	if err := sess.EnsureValid(ctx); err != nil {
		logger.Warn("initial login failed, will retry on first request",
			slog.String("error", err.Error()),
		)
	}

	srv := newGatewayServer(resolvedCfg, gateway.NewHandler(sess, client, logger), logger)

	return serveUntilDone(ctx, srv, logger)
}

// newGatewayServer builds the HTTP server for the redirect gateway.
func newGatewayServer(cfg *config.Config, h *gateway.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr: cfg.Gateway.Listen,
		Handler: gateway.NewRouter(h, gateway.RouterOptions{
			Metrics: cfg.Gateway.Metrics,
			Logger:  logger,
		}),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}

// serveUntilDone runs srv until ctx is canceled, then shuts it down
// gracefully. A listen failure cancels the shutdown watcher.
func serveUntilDone(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("gateway listening", slog.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving gateway: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down gateway: %w", err)
		}

		logger.Info("gateway stopped")

		return nil
	})

	return g.Wait()
}
