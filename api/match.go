package api

import (
	"context"
	"net/http"

	"github.com/skymessage/skymessage/internal/log"
	"github.com/skymessage/skymessage/internal/match"
)

// SaintMatcher ranks saints against a user's trait selection.
type SaintMatcher interface {
	Match(ctx context.Context, req match.Request) ([]match.Match, error)
}

// MatchHandler handles the trait-matching endpoint.
type MatchHandler struct {
	matcher SaintMatcher
	logger  log.Logger
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(matcher SaintMatcher, logger log.Logger) *MatchHandler {
	return &MatchHandler{matcher: matcher, logger: logger}
}

// RegisterRoutes registers match routes on the given mux.
func (h *MatchHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/match", h.match)
}

// match returns ranked saint matches for the submitted traits.
// Responds 400 on missing traits or gender and 404 when no saint of
// the requested gender exists.
func (h *MatchHandler) match(w http.ResponseWriter, r *http.Request) {
	var req match.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	matches, err := h.matcher.Match(r.Context(), req)
	if err != nil {
		h.logger.Error("match failed", "gender", req.Gender, "error", err)
		writeFault(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}
