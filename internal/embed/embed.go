// Package embed wraps a Genkit embedder behind a small gateway that the
// ingestion and ask pipelines share.
//
// The gateway truncates oversized input, rate-limits upstream calls, and
// normalizes provider failures into the fault taxonomy so callers never
// see raw SDK errors.
package embed

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"golang.org/x/time/rate"

	"github.com/skymessage/skymessage/internal/fault"
	"github.com/skymessage/skymessage/internal/log"
)

// MaxInputChars is the hard cap on text sent to the embedding model.
// Longer input is truncated, never rejected.
const MaxInputChars = 8000

// Embedder converts text into vectors.
type Embedder interface {
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedDocuments embeds a batch of document chunks, one vector per
	// input, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Gateway adapts a Genkit ai.Embedder to the Embedder interface.
type Gateway struct {
	embedder ai.Embedder
	limiter  *rate.Limiter
	logger   log.Logger
	maxChars int
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithRateLimit caps upstream embed calls at rps requests per second.
// A non-positive rps disables limiting.
func WithRateLimit(rps int) Option {
	return func(g *Gateway) {
		if rps > 0 {
			g.limiter = rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}

// WithMaxChars overrides the truncation limit. Test use mostly.
func WithMaxChars(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxChars = n
		}
	}
}

// NewGateway creates a Gateway around the given Genkit embedder.
func NewGateway(embedder ai.Embedder, logger log.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		embedder: embedder,
		logger:   logger,
		maxChars: MaxInputChars,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// EmbedQuery embeds a single query string, truncated to the input cap.
func (g *Gateway) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("embed query: empty text: %w", fault.ErrInvalidArgument)
	}

	vecs, err := g.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedDocuments embeds a batch of chunks in a single upstream request.
func (g *Gateway) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if t == "" {
			return nil, fmt.Errorf("embed documents: empty text at index %d: %w", i, fault.ErrInvalidArgument)
		}
	}
	return g.embed(ctx, texts)
}

func (g *Gateway) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embed rate limit: %w", err)
		}
	}

	docs := make([]*ai.Document, len(texts))
	for i, t := range texts {
		docs[i] = ai.DocumentFromText(g.truncate(t), nil)
	}

	resp, err := g.embedder.Embed(ctx, &ai.EmbedRequest{Input: docs})
	if err != nil {
		return nil, fmt.Errorf("embed failed: %v: %w", err, fault.ErrUpstream)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed returned %d vectors for %d inputs: %w",
			len(resp.Embeddings), len(texts), fault.ErrUpstream)
	}

	vecs := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vecs[i] = e.Embedding
	}

	g.logger.Debug("embedded texts", "count", len(texts))
	return vecs, nil
}

// truncate caps text at maxChars characters, cutting at a rune boundary.
func (g *Gateway) truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= g.maxChars {
		return text
	}
	return string(runes[:g.maxChars])
}
