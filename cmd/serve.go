package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skymessage/skymessage/api"
	"github.com/skymessage/skymessage/internal/app"
	"github.com/skymessage/skymessage/internal/config"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

// runServe initializes the application and starts the HTTP API server.
// Blocks until SIGINT/SIGTERM, then shuts down gracefully.
func runServe() error {
	initLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Warn("shutdown error", "error", closeErr)
		}
	}()

	srv := api.NewServer(api.ServerConfig{
		Asker:       a.Ask,
		Ingester:    a.Ingest,
		Matcher:     a.Matcher,
		Catalog:     a.Catalog,
		Fetcher:     a.Fetcher,
		Pool:        a.DBPool,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      a.Logger,
	})

	addr := serveAddr
	if addr == "" {
		addr = cfg.ListenAddr
	}

	a.Logger.Info("HTTP server ready",
		"addr", addr,
		"api", "/api/*",
		"health", "/health, /ready")

	return srv.Run(ctx, addr)
}
