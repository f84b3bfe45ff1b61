package embed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"

	"github.com/skymessage/skymessage/internal/fault"
	"github.com/skymessage/skymessage/internal/log"
)

// mockEmbedder implements ai.Embedder for testing.
type mockEmbedder struct {
	embedErr   error
	callCount  int
	lastInputs []string
}

func (m *mockEmbedder) Name() string { return "mock-embedder" }

func (m *mockEmbedder) Register(r api.Registry) {}

func (m *mockEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.callCount++
	m.lastInputs = nil
	for _, doc := range req.Input {
		m.lastInputs = append(m.lastInputs, doc.Content[0].Text)
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([]*ai.Embedding, len(req.Input))
	for i := range req.Input {
		out[i] = &ai.Embedding{Embedding: []float32{0.1, 0.2, 0.3}}
	}
	return &ai.EmbedResponse{Embeddings: out}, nil
}

func TestEmbedQuery(t *testing.T) {
	mock := &mockEmbedder{}
	g := NewGateway(mock, log.NewNop())

	vec, err := g.EmbedQuery(context.Background(), "who is francis")
	if err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("vector length = %d", len(vec))
	}
	if mock.callCount != 1 {
		t.Errorf("upstream calls = %d, want 1", mock.callCount)
	}
}

func TestEmbedQuery_EmptyText(t *testing.T) {
	mock := &mockEmbedder{}
	g := NewGateway(mock, log.NewNop())

	_, err := g.EmbedQuery(context.Background(), "")
	if !errors.Is(err, fault.ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
	if mock.callCount != 0 {
		t.Errorf("empty query should not reach upstream, got %d calls", mock.callCount)
	}
}

func TestEmbedQuery_TruncatesLongInput(t *testing.T) {
	mock := &mockEmbedder{}
	g := NewGateway(mock, log.NewNop(), WithMaxChars(100))

	_, err := g.EmbedQuery(context.Background(), strings.Repeat("x", 500))
	if err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}
	if got := len(mock.lastInputs[0]); got != 100 {
		t.Errorf("upstream received %d chars, want 100", got)
	}
}

func TestEmbedQuery_UpstreamError(t *testing.T) {
	mock := &mockEmbedder{embedErr: errors.New("quota exceeded")}
	g := NewGateway(mock, log.NewNop())

	_, err := g.EmbedQuery(context.Background(), "query")
	if !errors.Is(err, fault.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("upstream message lost: %v", err)
	}
}

func TestEmbedDocuments(t *testing.T) {
	mock := &mockEmbedder{}
	g := NewGateway(mock, log.NewNop())

	vecs, err := g.EmbedDocuments(context.Background(), []string{"chunk one", "chunk two", "chunk three"})
	if err != nil {
		t.Fatalf("EmbedDocuments: %v", err)
	}
	if len(vecs) != 3 {
		t.Errorf("got %d vectors, want 3", len(vecs))
	}
	if mock.callCount != 1 {
		t.Errorf("batch should be a single upstream call, got %d", mock.callCount)
	}
}

func TestEmbedDocuments_Empty(t *testing.T) {
	mock := &mockEmbedder{}
	g := NewGateway(mock, log.NewNop())

	vecs, err := g.EmbedDocuments(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedDocuments: %v", err)
	}
	if vecs != nil {
		t.Errorf("expected nil, got %v", vecs)
	}
	if mock.callCount != 0 {
		t.Errorf("empty batch should not reach upstream")
	}
}

func TestEmbedDocuments_EmptyElement(t *testing.T) {
	mock := &mockEmbedder{}
	g := NewGateway(mock, log.NewNop())

	_, err := g.EmbedDocuments(context.Background(), []string{"ok", ""})
	if !errors.Is(err, fault.ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestEmbedDocuments_CountMismatch(t *testing.T) {
	// An embedder that silently drops inputs.
	short := &shortEmbedder{}
	g := NewGateway(short, log.NewNop())

	_, err := g.EmbedDocuments(context.Background(), []string{"a", "b"})
	if !errors.Is(err, fault.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}

type shortEmbedder struct{}

func (s *shortEmbedder) Name() string            { return "short" }
func (s *shortEmbedder) Register(r api.Registry) {}
func (s *shortEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	return &ai.EmbedResponse{Embeddings: []*ai.Embedding{{Embedding: []float32{1}}}}, nil
}

func TestGateway_RateLimitCancellation(t *testing.T) {
	mock := &mockEmbedder{}
	g := NewGateway(mock, log.NewNop(), WithRateLimit(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// First token is available immediately; a canceled context on a
	// drained limiter must surface the context error.
	_, _ = g.EmbedQuery(context.Background(), "warm up")
	_, err := g.EmbedQuery(ctx, "second")
	if err == nil {
		t.Error("expected error from canceled context")
	}
}
