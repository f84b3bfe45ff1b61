// Package api provides the HTTP REST API for SkyMessage.
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (logging, recovery, CORS)
//   - health.go: Health check endpoints (/health, /ready)
//   - ask.go: Persona and chorus question answering
//   - ingest.go: Ingestion trigger
//   - match.go: Trait-based saint matching
//   - saints.go: Saint catalog CRUD and raw document staging
//   - response.go: JSON response helpers
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skymessage/skymessage/internal/catalog"
	"github.com/skymessage/skymessage/internal/log"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = ":8080"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	// This prevents Slowloris attacks (CWE-400).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Generation calls dominate; they can take tens of seconds.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// ServerConfig carries the dependencies for the API server.
type ServerConfig struct {
	Asker       Asker
	Ingester    Ingester
	Matcher     SaintMatcher
	Catalog     catalog.Store
	Fetcher     PageFetcher   // optional: nil disables URL-backed raw documents
	Pool        *pgxpool.Pool // optional: nil degrades /ready to 503
	CORSOrigins []string
	Logger      log.Logger
}

// Server is the HTTP server for the SkyMessage REST API.
type Server struct {
	mux  *http.ServeMux
	cors []string

	health *HealthHandler
	ask    *AskHandler
	ingest *IngestHandler
	match  *MatchHandler
	saints *SaintsHandler
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		mux:    mux,
		cors:   cfg.CORSOrigins,
		health: NewHealthHandler(cfg.Pool, logger),
		ask:    NewAskHandler(cfg.Asker, cfg.Catalog, logger),
		ingest: NewIngestHandler(cfg.Ingester, logger),
		match:  NewMatchHandler(cfg.Matcher, logger),
		saints: NewSaintsHandler(cfg.Catalog, cfg.Fetcher, logger),
	}

	s.health.RegisterRoutes(mux)
	s.ask.RegisterRoutes(mux)
	s.ingest.RegisterRoutes(mux)
	s.match.RegisterRoutes(mux)
	s.saints.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → CORS → handler
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware, loggingMiddleware, corsMiddleware(s.cors))
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
