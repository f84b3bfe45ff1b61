package api

import (
	"context"
	"net/http"

	"github.com/skymessage/skymessage/internal/ingest"
	"github.com/skymessage/skymessage/internal/log"
)

// Ingester runs the ingestion pipeline for one saint.
type Ingester interface {
	Run(ctx context.Context, slug string) (ingest.Result, error)
}

// IngestHandler handles the ingestion endpoint.
type IngestHandler struct {
	ingester Ingester
	logger   log.Logger
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(ingester Ingester, logger log.Logger) *IngestHandler {
	return &IngestHandler{ingester: ingester, logger: logger}
}

// RegisterRoutes registers ingest routes on the given mux. GET is kept
// for compatibility with the original deployment's trigger URLs.
func (h *IngestHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/ingest", h.run)
	mux.HandleFunc("GET /api/ingest", h.run)
}

// run re-chunks, re-embeds, and re-indexes one saint's raw documents.
// Responds 400 without a saintSlug and 404 when no raw documents exist.
func (h *IngestHandler) run(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("saintSlug")
	if slug == "" {
		writeError(w, http.StatusBadRequest, "missing_slug", "saintSlug query parameter is required")
		return
	}

	result, err := h.ingester.Run(r.Context(), slug)
	if err != nil {
		h.logger.Error("ingestion failed", "saint", slug, "error", err)
		writeFault(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
