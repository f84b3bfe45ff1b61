// Package observability wires OpenTelemetry tracing into Genkit.
//
// Traces are exported over OTLP HTTP to a local collector or agent.
// The collector handles authentication, buffering, and forwarding to
// whatever backend operations points it at; the application never
// carries backend credentials.
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// serviceName tags exported spans.
const serviceName = "skymessage"

// Setup registers an OTLP HTTP exporter with Genkit's TracerProvider.
// An empty endpoint disables tracing and returns a no-op shutdown.
// Exporter construction failures also disable tracing rather than
// failing startup; answering questions matters more than tracing them.
func Setup(ctx context.Context, endpoint string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if endpoint == "" {
		return noop, nil
	}

	// Genkit's TracerProvider reads service identity from OTEL env vars.
	// SAFETY: os.Setenv is not concurrent-safe, but Setup runs exactly
	// once during startup before any goroutines are spawned.
	if os.Getenv("OTEL_SERVICE_NAME") == "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", serviceName)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(), // local collector, no TLS
	)
	if err != nil {
		slog.Warn("creating OTLP exporter, tracing disabled", "error", err)
		return noop, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	slog.Debug("tracing enabled", "endpoint", endpoint, "service", serviceName)

	return tracing.TracerProvider().Shutdown, nil
}
