package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/expense-client/internal"
	"github.com/frahmantamala/expense-client/internal/transport/rest"
	"github.com/frahmantamala/expense-client/pkg/logger"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prebuilt web bundle",
	Long: `Serve the static web bundle from the configured asset directory.
Any path that is not a file falls back to index.html so client-side
routes survive a reload.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer(cmd.Context())
	},
}

func startHTTPServer(ctx context.Context) error {
	cfg, err := setup()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	bundle, err := rest.OpenBundle(cfg.Server.AssetDir)
	if err != nil {
		return err
	}

	lg := logger.L().With("component", "static")
	router := rest.NewStaticRouter(bundle, lg)
	return runServer(ctx, newHTTPServer(cfg.Server, cfg.Server.Port, router), lg)
}

func newHTTPServer(cfg internal.ServerConfig, port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// runServer blocks until the server fails or the process is signalled, then
// shuts it down gracefully.
func runServer(ctx context.Context, server *http.Server, lg *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lg.Info("Starting HTTP server", "address", server.Addr)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		lg.Info("Received signal, shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", "error", err)
			return err
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("Server failed to start", "error", err)
			return err
		}
	}

	lg.Info("Server stopped")
	return nil
}

