// Package genai wraps the Genkit generation API behind the small
// completion interface the ask and match pipelines consume.
package genai

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/skymessage/skymessage/internal/fault"
	"github.com/skymessage/skymessage/internal/log"
)

// Request is one completion call: ordered system directives, a single
// user turn, and a sampling temperature.
type Request struct {
	System      []string
	User        string
	Temperature float32
}

// Generator produces a text completion for a request.
type Generator interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Client is the Genkit-backed Generator.
type Client struct {
	g      *genkit.Genkit
	model  string
	logger log.Logger
}

// NewClient creates a Client generating with the provider-qualified
// model name (e.g. "openai/gpt-4o-mini").
func NewClient(g *genkit.Genkit, model string, logger log.Logger) *Client {
	return &Client{g: g, model: model, logger: logger}
}

// Complete runs one generation call. Upstream failures are wrapped with
// fault.ErrUpstream, preserving the provider message.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if req.User == "" {
		return "", fmt.Errorf("complete: empty user turn: %w", fault.ErrInvalidArgument)
	}

	messages := make([]*ai.Message, 0, len(req.System)+1)
	for _, sys := range req.System {
		messages = append(messages, ai.NewSystemTextMessage(sys))
	}
	messages = append(messages, ai.NewUserTextMessage(req.User))

	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.model),
		ai.WithMessages(messages...),
		ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature: float64(req.Temperature),
		}),
	)
	if err != nil {
		return "", fmt.Errorf("generate: %v: %w", err, fault.ErrUpstream)
	}

	text := resp.Text()
	c.logger.Debug("generation complete", "model", c.model, "chars", len(text))
	return text, nil
}
