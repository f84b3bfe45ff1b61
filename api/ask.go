package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/skymessage/skymessage/internal/ask"
	"github.com/skymessage/skymessage/internal/catalog"
	"github.com/skymessage/skymessage/internal/detect"
	"github.com/skymessage/skymessage/internal/log"
)

// maxBodyBytes bounds request bodies. Questions are short; anything
// larger is abuse or a client bug.
const maxBodyBytes = 64 << 10

// Asker answers a question as a saint persona.
type Asker interface {
	Run(ctx context.Context, req ask.Request) (ask.Response, error)
}

// AskHandler handles question-answering endpoints.
type AskHandler struct {
	asker   Asker
	catalog catalog.Store
	logger  log.Logger
}

// NewAskHandler creates a new ask handler. catalog backs saint
// disambiguation on the chorus endpoint.
func NewAskHandler(asker Asker, cat catalog.Store, logger log.Logger) *AskHandler {
	return &AskHandler{asker: asker, catalog: cat, logger: logger}
}

// RegisterRoutes registers ask routes on the given mux.
func (h *AskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/ask", h.ask)
	mux.HandleFunc("POST /api/chorus/ask", h.chorusAsk)
}

// askRequest is the request body for both ask endpoints. The original
// client sends the question under "text"; "query" is accepted too.
type askRequest struct {
	Text      string       `json:"text"`
	Query     string       `json:"query"`
	SaintSlug string       `json:"saintSlug"`
	Style     ask.Style    `json:"style"`
	Audience  ask.Audience `json:"audience"`
}

func (r askRequest) question() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Query
}

// ask answers in first-person persona voice.
func (h *AskHandler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	resp, err := h.asker.Run(r.Context(), ask.Request{
		Query:     req.question(),
		SaintSlug: req.SaintSlug,
		Style:     req.Style,
		Audience:  req.Audience,
	})
	if err != nil {
		h.logger.Error("ask failed", "saint", req.SaintSlug, "error", err)
		writeFault(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// chorusResponse is the chorus endpoint body: a citation-free answer
// plus an optional contact card for the saint the exchange is about.
type chorusResponse struct {
	Text        string         `json:"text"`
	Sources     []ask.Source   `json:"sources"`
	ContactCard *catalog.Saint `json:"contactCard,omitempty"`
}

// chorusAsk answers in general voice (no persona), strips inline
// citations from the body, and attaches a contact card when the
// exchange can be pinned to one saint.
func (h *AskHandler) chorusAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	question := req.question()
	resp, err := h.asker.Run(r.Context(), ask.Request{
		Query:    question,
		Style:    ask.StylePlain,
		Audience: req.Audience,
	})
	if err != nil {
		h.logger.Error("chorus ask failed", "error", err)
		writeFault(w, err)
		return
	}

	out := chorusResponse{
		Text:    ask.StripInlineCitations(resp.Text, resp.Sources),
		Sources: resp.Sources,
	}

	// Disambiguation runs against the raw answer; stripping citations
	// first would drop name evidence like "[St. Christopher]".
	saints := catalog.ListWithFallback(r.Context(), h.catalog)
	if hit := detect.Saint(question, resp.Text, saints); hit != nil {
		out.ContactCard = hit
	}

	writeJSON(w, http.StatusOK, out)
}

// decodeBody decodes a size-capped JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
