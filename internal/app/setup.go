package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skymessage/skymessage/db"
	"github.com/skymessage/skymessage/internal/ask"
	"github.com/skymessage/skymessage/internal/catalog"
	"github.com/skymessage/skymessage/internal/config"
	"github.com/skymessage/skymessage/internal/embed"
	"github.com/skymessage/skymessage/internal/fetch"
	"github.com/skymessage/skymessage/internal/genai"
	"github.com/skymessage/skymessage/internal/ingest"
	"github.com/skymessage/skymessage/internal/log"
	"github.com/skymessage/skymessage/internal/match"
	"github.com/skymessage/skymessage/internal/observability"
	"github.com/skymessage/skymessage/internal/vector"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config) (_ *App, retErr error) {
	logger := provideLogger(cfg)
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	// Tracing must be wired before Genkit so its TracerProvider is ready.
	otelShutdown, err := observability.Setup(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}
	a.otelShutdown = otelShutdown

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	g, err := provideGenkit(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	a.Catalog = catalog.NewPostgresStore(pool, logger)
	a.Vectors = vector.NewPostgresStore(pool, logger)

	var gwOpts []embed.Option
	if cfg.EmbedRateLimit > 0 {
		gwOpts = append(gwOpts, embed.WithRateLimit(cfg.EmbedRateLimit))
	}
	if cfg.MaxQueryChars > 0 {
		gwOpts = append(gwOpts, embed.WithMaxChars(cfg.MaxQueryChars))
	}
	a.Gateway = embed.NewGateway(embedder, logger, gwOpts...)

	a.Generator = genai.NewClient(g, cfg.FullModelName(), logger)

	a.Ask = ask.NewPipeline(a.Gateway, a.Vectors, a.Generator, ask.Config{
		Namespace:        cfg.Namespace,
		TopK:             cfg.TopK,
		SourceCount:      cfg.SourceCount,
		Temperature:      cfg.Temperature,
		StoryTemperature: cfg.StoryTemperature,
	}, logger)
	a.Ingest = ingest.NewPipeline(a.Catalog, a.Gateway, a.Vectors, cfg.Namespace, logger)
	a.Matcher = match.NewMatcher(a.Catalog, a.Generator, logger)
	a.Fetcher = fetch.New(logger)

	_, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	logger.Info("application initialized",
		"provider", cfg.Provider,
		"model", cfg.ModelName,
		"embedder", cfg.EmbedderModel,
		"namespace", cfg.Namespace)

	return a, nil
}

// provideLogger builds the process logger from config.
func provideLogger(cfg *config.Config) log.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return log.New(log.Config{Level: level, JSON: cfg.LogJSON})
}

// provideDBPool creates a PostgreSQL connection pool and runs
// migrations.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// provideGenkit initializes Genkit with the configured AI provider.
// Supports openai (default) and googleai.
func provideGenkit(ctx context.Context, cfg *config.Config) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case config.ProviderGoogleAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with googleai provider")
		}
		slog.Info("initialized Genkit with googleai provider", "model", cfg.ModelName)

	default: // "openai"
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		slog.Info("initialized Genkit with openai provider", "model", cfg.ModelName)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the AI provider
// plugin. OpenAI auto-registers embedders in Init() and is looked up by
// model name; GoogleAI exposes a dedicated constructor.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderGoogleAI:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	default: // "openai"
		return genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	}
}
