package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skymessage/skymessage/internal/ask"
	"github.com/skymessage/skymessage/internal/catalog"
	"github.com/skymessage/skymessage/internal/fault"
	"github.com/skymessage/skymessage/internal/ingest"
	"github.com/skymessage/skymessage/internal/log"
	"github.com/skymessage/skymessage/internal/match"
)

// mockAsker is a flexible mock for the Asker interface.
type mockAsker struct {
	runFunc func(ctx context.Context, req ask.Request) (ask.Response, error)
	lastReq ask.Request
}

func (m *mockAsker) Run(ctx context.Context, req ask.Request) (ask.Response, error) {
	m.lastReq = req
	if m.runFunc != nil {
		return m.runFunc(ctx, req)
	}
	return ask.Response{}, nil
}

type mockIngester struct {
	runFunc func(ctx context.Context, slug string) (ingest.Result, error)
}

func (m *mockIngester) Run(ctx context.Context, slug string) (ingest.Result, error) {
	if m.runFunc != nil {
		return m.runFunc(ctx, slug)
	}
	return ingest.Result{SaintSlug: slug}, nil
}

type mockMatcher struct {
	matchFunc func(ctx context.Context, req match.Request) ([]match.Match, error)
}

func (m *mockMatcher) Match(ctx context.Context, req match.Request) ([]match.Match, error) {
	if m.matchFunc != nil {
		return m.matchFunc(ctx, req)
	}
	return nil, nil
}

type mockStore struct {
	catalog.Store
	listSaintsFunc  func(ctx context.Context) ([]catalog.Saint, error)
	getSaintFunc    func(ctx context.Context, slug string) (catalog.Saint, error)
	createSaintFunc func(ctx context.Context, s catalog.Saint) error
	updateSaintFunc func(ctx context.Context, s catalog.Saint) error
	deleteSaintFunc func(ctx context.Context, slug string) error
	addRawFunc      func(ctx context.Context, doc catalog.RawDocument) error
}

func (m *mockStore) ListSaints(ctx context.Context) ([]catalog.Saint, error) {
	if m.listSaintsFunc != nil {
		return m.listSaintsFunc(ctx)
	}
	return []catalog.Saint{{Slug: "francis-of-assisi", Name: "St. Francis of Assisi"}}, nil
}

func (m *mockStore) GetSaint(ctx context.Context, slug string) (catalog.Saint, error) {
	if m.getSaintFunc != nil {
		return m.getSaintFunc(ctx, slug)
	}
	return catalog.Saint{}, fmt.Errorf("saint %q: %w", slug, fault.ErrNotFound)
}

func (m *mockStore) CreateSaint(ctx context.Context, s catalog.Saint) error {
	if m.createSaintFunc != nil {
		return m.createSaintFunc(ctx, s)
	}
	return nil
}

func (m *mockStore) UpdateSaint(ctx context.Context, s catalog.Saint) error {
	if m.updateSaintFunc != nil {
		return m.updateSaintFunc(ctx, s)
	}
	return nil
}

func (m *mockStore) DeleteSaint(ctx context.Context, slug string) error {
	if m.deleteSaintFunc != nil {
		return m.deleteSaintFunc(ctx, slug)
	}
	return nil
}

func (m *mockStore) AddRawDocument(ctx context.Context, doc catalog.RawDocument) error {
	if m.addRawFunc != nil {
		return m.addRawFunc(ctx, doc)
	}
	return nil
}

func newTestServer(t *testing.T, cfg ServerConfig) http.Handler {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = &mockStore{}
	}
	if cfg.Asker == nil {
		cfg.Asker = &mockAsker{}
	}
	if cfg.Ingester == nil {
		cfg.Ingester = &mockIngester{}
	}
	if cfg.Matcher == nil {
		cfg.Matcher = &mockMatcher{}
	}
	return NewServer(cfg).Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAsk(t *testing.T) {
	asker := &mockAsker{runFunc: func(ctx context.Context, req ask.Request) (ask.Response, error) {
		return ask.Response{
			Text:    "I am Francis. The birds were my congregation.",
			Sources: []ask.Source{{Publisher: "New Advent", URL: "https://example.org/francis"}},
			Saint:   "St. Francis of Assisi",
		}, nil
	}}
	h := newTestServer(t, ServerConfig{Asker: asker})

	w := doJSON(t, h, http.MethodPost, "/api/ask",
		`{"text": "did you love animals?", "saintSlug": "francis-of-assisi", "style": "saint"}`)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp ask.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "St. Francis of Assisi", resp.Saint)
	assert.Len(t, resp.Sources, 1)

	assert.Equal(t, "did you love animals?", asker.lastReq.Query)
	assert.Equal(t, "francis-of-assisi", asker.lastReq.SaintSlug)
}

func TestAsk_QueryFieldAccepted(t *testing.T) {
	asker := &mockAsker{}
	h := newTestServer(t, ServerConfig{Asker: asker})

	w := doJSON(t, h, http.MethodPost, "/api/ask", `{"query": "who are you?"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "who are you?", asker.lastReq.Query)
}

func TestAsk_InvalidBody(t *testing.T) {
	h := newTestServer(t, ServerConfig{})
	w := doJSON(t, h, http.MethodPost, "/api/ask", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAsk_EmptyQuery(t *testing.T) {
	asker := &mockAsker{runFunc: func(ctx context.Context, req ask.Request) (ask.Response, error) {
		return ask.Response{}, fmt.Errorf("empty query: %w", fault.ErrInvalidArgument)
	}}
	h := newTestServer(t, ServerConfig{Asker: asker})

	w := doJSON(t, h, http.MethodPost, "/api/ask", `{"text": ""}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_argument", resp.Error)
}

func TestAsk_UpstreamFailureSurfacesMessage(t *testing.T) {
	asker := &mockAsker{runFunc: func(ctx context.Context, req ask.Request) (ask.Response, error) {
		return ask.Response{}, fmt.Errorf("generate answer: model overloaded: %w", fault.ErrUpstream)
	}}
	h := newTestServer(t, ServerConfig{Asker: asker})

	w := doJSON(t, h, http.MethodPost, "/api/ask", `{"text": "hello"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "upstream_error", resp.Error)
	// The provider message is the client's only diagnostic.
	assert.Contains(t, resp.Message, "model overloaded")
}

func TestChorusAsk_StripsCitationsAndAttachesCard(t *testing.T) {
	asker := &mockAsker{runFunc: func(ctx context.Context, req ask.Request) (ask.Response, error) {
		return ask.Response{
			Text:    "St. Francis of Assisi loved all creatures. [New Advent]",
			Sources: []ask.Source{{Publisher: "New Advent"}},
		}, nil
	}}
	h := newTestServer(t, ServerConfig{Asker: asker})

	w := doJSON(t, h, http.MethodPost, "/api/chorus/ask", `{"text": "who loved animals?"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Text        string         `json:"text"`
		Sources     []ask.Source   `json:"sources"`
		ContactCard *catalog.Saint `json:"contactCard"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "St. Francis of Assisi loved all creatures.", resp.Text)
	require.NotNil(t, resp.ContactCard)
	assert.Equal(t, "francis-of-assisi", resp.ContactCard.Slug)

	// The pipeline must have been asked for a plain, persona-free answer.
	assert.Equal(t, ask.StylePlain, asker.lastReq.Style)
}

func TestChorusAsk_KeepsNonSourceBrackets(t *testing.T) {
	asker := &mockAsker{runFunc: func(ctx context.Context, req ask.Request) (ask.Response, error) {
		return ask.Response{
			Text:    "God so loved the world [John 3:16]. [New Advent]",
			Sources: []ask.Source{{Publisher: "New Advent"}},
		}, nil
	}}
	h := newTestServer(t, ServerConfig{Asker: asker})

	w := doJSON(t, h, http.MethodPost, "/api/chorus/ask", `{"text": "does God love me?"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "God so loved the world [John 3:16].", resp.Text)
}

func TestChorusAsk_NoCardWhenUndetected(t *testing.T) {
	asker := &mockAsker{runFunc: func(ctx context.Context, req ask.Request) (ask.Response, error) {
		return ask.Response{Text: "Many holy people prayed."}, nil
	}}
	h := newTestServer(t, ServerConfig{Asker: asker})

	w := doJSON(t, h, http.MethodPost, "/api/chorus/ask", `{"text": "tell me about prayer"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "contactCard")
}

func TestIngest(t *testing.T) {
	ing := &mockIngester{runFunc: func(ctx context.Context, slug string) (ingest.Result, error) {
		return ingest.Result{Upserted: 42, SaintSlug: slug}, nil
	}}
	h := newTestServer(t, ServerConfig{Ingester: ing})

	for _, method := range []string{http.MethodPost, http.MethodGet} {
		w := doJSON(t, h, method, "/api/ingest?saintSlug=francis-of-assisi", "")
		require.Equal(t, http.StatusOK, w.Code, method)

		var result ingest.Result
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, 42, result.Upserted)
		assert.Equal(t, "francis-of-assisi", result.SaintSlug)
	}
}

func TestIngest_MissingSlug(t *testing.T) {
	h := newTestServer(t, ServerConfig{})
	w := doJSON(t, h, http.MethodPost, "/api/ingest", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngest_NoRawDocuments(t *testing.T) {
	ing := &mockIngester{runFunc: func(ctx context.Context, slug string) (ingest.Result, error) {
		return ingest.Result{}, fmt.Errorf("no raw documents for %q: %w", slug, fault.ErrNotFound)
	}}
	h := newTestServer(t, ServerConfig{Ingester: ing})

	w := doJSON(t, h, http.MethodPost, "/api/ingest?saintSlug=unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMatch(t *testing.T) {
	matcher := &mockMatcher{matchFunc: func(ctx context.Context, req match.Request) ([]match.Match, error) {
		return []match.Match{{
			Saint:       catalog.Saint{Slug: "joan-of-arc", Name: "St. Joan of Arc"},
			Score:       0.9,
			Explanation: "Shares your courage.",
			Summary:     "Led armies in faith.",
		}}, nil
	}}
	h := newTestServer(t, ServerConfig{Matcher: matcher})

	w := doJSON(t, h, http.MethodPost, "/api/match", `{"traits": ["courage"], "gender": "female"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Matches []match.Match `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "joan-of-arc", resp.Matches[0].Saint.Slug)
}

func TestMatch_BadRequest(t *testing.T) {
	matcher := &mockMatcher{matchFunc: func(ctx context.Context, req match.Request) ([]match.Match, error) {
		return nil, fmt.Errorf("gender must be male or female: %w", fault.ErrInvalidArgument)
	}}
	h := newTestServer(t, ServerConfig{Matcher: matcher})

	w := doJSON(t, h, http.MethodPost, "/api/match", `{"traits": ["courage"], "gender": "unknown"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaints_List(t *testing.T) {
	h := newTestServer(t, ServerConfig{})
	w := doJSON(t, h, http.MethodGet, "/api/saints", "")

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Saints []catalog.Saint `json:"saints"`
		Total  int             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, len(resp.Saints), resp.Total)
	assert.NotEmpty(t, resp.Saints)
}

func TestSaints_ListFallsBackToSeed(t *testing.T) {
	store := &mockStore{listSaintsFunc: func(ctx context.Context) ([]catalog.Saint, error) {
		return nil, fmt.Errorf("connection refused: %w", fault.ErrUpstream)
	}}
	h := newTestServer(t, ServerConfig{Catalog: store})

	w := doJSON(t, h, http.MethodGet, "/api/saints", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "francis-of-assisi")
}

func TestSaints_Create(t *testing.T) {
	var created catalog.Saint
	store := &mockStore{createSaintFunc: func(ctx context.Context, s catalog.Saint) error {
		created = s
		return nil
	}}
	h := newTestServer(t, ServerConfig{Catalog: store})

	w := doJSON(t, h, http.MethodPost, "/api/saints",
		`{"slug": "carlo-acutis", "name": "Blessed Carlo Acutis", "era": "21st century"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "carlo-acutis", created.Slug)
}

func TestSaints_CreateValidation(t *testing.T) {
	h := newTestServer(t, ServerConfig{})

	w := doJSON(t, h, http.MethodPost, "/api/saints", `{"slug": "", "name": ""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaints_CreateDuplicate(t *testing.T) {
	store := &mockStore{createSaintFunc: func(ctx context.Context, s catalog.Saint) error {
		return fmt.Errorf("saint %q exists: %w", s.Slug, fault.ErrConflict)
	}}
	h := newTestServer(t, ServerConfig{Catalog: store})

	w := doJSON(t, h, http.MethodPost, "/api/saints", `{"slug": "francis-of-assisi", "name": "St. Francis"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSaints_Get(t *testing.T) {
	store := &mockStore{getSaintFunc: func(ctx context.Context, slug string) (catalog.Saint, error) {
		return catalog.Saint{Slug: slug, Name: "St. Cecilia"}, nil
	}}
	h := newTestServer(t, ServerConfig{Catalog: store})

	w := doJSON(t, h, http.MethodGet, "/api/saints/cecilia", "")

	require.Equal(t, http.StatusOK, w.Code)

	var s catalog.Saint
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, "cecilia", s.Slug)
}

func TestSaints_GetNotFound(t *testing.T) {
	h := newTestServer(t, ServerConfig{})
	w := doJSON(t, h, http.MethodGet, "/api/saints/nobody", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaints_UpdateUsesPathSlug(t *testing.T) {
	var updated catalog.Saint
	store := &mockStore{updateSaintFunc: func(ctx context.Context, s catalog.Saint) error {
		updated = s
		return nil
	}}
	h := newTestServer(t, ServerConfig{Catalog: store})

	w := doJSON(t, h, http.MethodPut, "/api/saints/cecilia", `{"slug": "other", "name": "St. Cecilia"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cecilia", updated.Slug)
}

func TestSaints_Delete(t *testing.T) {
	h := newTestServer(t, ServerConfig{})
	w := doJSON(t, h, http.MethodDelete, "/api/saints/cecilia", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deleted")
}

func TestSaints_AddRawContent(t *testing.T) {
	var added catalog.RawDocument
	store := &mockStore{addRawFunc: func(ctx context.Context, doc catalog.RawDocument) error {
		added = doc
		return nil
	}}
	h := newTestServer(t, ServerConfig{Catalog: store})

	w := doJSON(t, h, http.MethodPost, "/api/saints/cecilia/raw",
		`{"content": "Cecilia sang to God in her heart.", "publisher": "Test Press", "feastDay": "11-22"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "cecilia", added.SaintSlug)
	assert.Equal(t, "Test Press", added.Publisher)
	assert.Equal(t, "11-22", added.FeastDay)
}

func TestSaints_AddRawRequiresSource(t *testing.T) {
	h := newTestServer(t, ServerConfig{})
	w := doJSON(t, h, http.MethodPost, "/api/saints/cecilia/raw", `{"publisher": "Test Press"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaints_AddRawURLWithoutFetcher(t *testing.T) {
	h := newTestServer(t, ServerConfig{})
	w := doJSON(t, h, http.MethodPost, "/api/saints/cecilia/raw", `{"url": "https://example.org/cecilia"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, ServerConfig{})

	w := doJSON(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}

func TestReady_NoPool(t *testing.T) {
	h := newTestServer(t, ServerConfig{})
	w := doJSON(t, h, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Error)
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, ServerConfig{CORSOrigins: []string{"https://app.example.org"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/ask", nil)
	req.Header.Set("Origin", "https://app.example.org")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.org", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	h := newTestServer(t, ServerConfig{CORSOrigins: []string{"https://app.example.org"}})

	req := httptest.NewRequest(http.MethodGet, "/api/saints", nil)
	req.Header.Set("Origin", "https://evil.example.org")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovery(t *testing.T) {
	asker := &mockAsker{runFunc: func(ctx context.Context, req ask.Request) (ask.Response, error) {
		panic("boom")
	}}
	h := newTestServer(t, ServerConfig{Asker: asker})

	w := doJSON(t, h, http.MethodPost, "/api/ask", `{"text": "hello"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
