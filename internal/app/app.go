// Package app provides application initialization and dependency
// injection. App is the container that wires configuration, the
// database pool, Genkit, and the retrieval pipelines together; every
// entry point (HTTP server, CLI commands) builds on it.
package app

import (
	"context"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skymessage/skymessage/internal/ask"
	"github.com/skymessage/skymessage/internal/catalog"
	"github.com/skymessage/skymessage/internal/config"
	"github.com/skymessage/skymessage/internal/embed"
	"github.com/skymessage/skymessage/internal/fetch"
	"github.com/skymessage/skymessage/internal/genai"
	"github.com/skymessage/skymessage/internal/ingest"
	"github.com/skymessage/skymessage/internal/log"
	"github.com/skymessage/skymessage/internal/match"
	"github.com/skymessage/skymessage/internal/vector"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	// Core services
	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool

	// Domain components
	Catalog   catalog.Store
	Vectors   vector.Store
	Gateway   *embed.Gateway
	Generator *genai.Client
	Ask       *ask.Pipeline
	Ingest    *ingest.Pipeline
	Matcher   *match.Matcher
	Fetcher   *fetch.Fetcher

	// Lifecycle
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	a.logger().Info("shutting down application")

	if a.cancel != nil {
		a.cancel()
	}

	if a.DBPool != nil {
		a.DBPool.Close()
		a.logger().Info("database pool closed")
	}

	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			a.logger().Warn("shutting down tracer provider", "error", err)
		}
	}

	return nil
}

func (a *App) logger() log.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return log.NewNop()
}
