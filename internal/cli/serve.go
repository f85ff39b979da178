package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/reunite-dev/reunite/internal/blob"
	"github.com/reunite-dev/reunite/internal/config"
	"github.com/reunite-dev/reunite/internal/engine"
	"github.com/reunite-dev/reunite/internal/httpapi"
	"github.com/reunite-dev/reunite/internal/hub"
	"github.com/reunite-dev/reunite/internal/imaging"
	"github.com/reunite-dev/reunite/internal/metrics"
	"github.com/reunite-dev/reunite/internal/store"
	"github.com/reunite-dev/reunite/internal/txn"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr     string
	Database string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the resolution engine HTTP server",
		Long: `Start the lost-and-found resolution engine.

The server opens (or creates) the SQLite database, restores the commit
clock, and serves the workflow API plus live subscriptions over HTTP.

Example:
  reunite serve --config reunite.yaml
  reunite serve --db /tmp/reunite.db --addr :9090 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.Addr != "" {
		cfg.Addr = opts.Addr
	}
	if opts.Database != "" {
		cfg.DB = opts.Database
	}

	logger := newLogger(cfg.LogFormat, opts.Verbose)
	slog.SetDefault(logger)

	slog.Info("opening database", "path", cfg.DB)
	st, err := store.Open(cfg.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	blobs, err := blob.NewStore(cfg.BlobDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open blob store", err)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	txns := txn.NewManager(st,
		txn.WithMaxAttempts(cfg.TxMaxAttempts),
		txn.WithMetrics(collector),
	)
	eng := engine.New(txns, blobs, imaging.Processor{}, engine.WithMetrics(collector))
	watch := hub.New(st, hub.WithMetrics(collector))

	api := httpapi.NewServer(eng, watch,
		httpapi.WithLogger(logger),
		httpapi.WithUploadsDir(blobs.Dir()),
		httpapi.WithMetricsHandler(metrics.Handler(registry)),
		httpapi.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	)
	defer api.Close()

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Addr, "db", cfg.DB)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigChan:
		slog.Info("received signal, shutting down", "signal", sig)
	case <-ctx.Done():
	case err := <-errCh:
		return WrapExitError(ExitFailure, "server error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown error", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Server stopped.")
	return nil
}

// newLogger builds the process logger. Verbose switches on debug level.
func newLogger(format string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, hopts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, hopts)
	}
	return slog.New(handler)
}
