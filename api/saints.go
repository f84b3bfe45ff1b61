package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/skymessage/skymessage/internal/catalog"
	"github.com/skymessage/skymessage/internal/log"
)

// PageFetcher turns a source URL into a staged raw document.
type PageFetcher interface {
	Document(ctx context.Context, saintSlug, rawURL, publisher string) (catalog.RawDocument, error)
}

// SaintsHandler handles catalog CRUD endpoints.
type SaintsHandler struct {
	store   catalog.Store
	fetcher PageFetcher
	logger  log.Logger
}

// NewSaintsHandler creates a new saints handler. fetcher may be nil,
// which disables URL-backed raw document creation.
func NewSaintsHandler(store catalog.Store, fetcher PageFetcher, logger log.Logger) *SaintsHandler {
	return &SaintsHandler{store: store, fetcher: fetcher, logger: logger}
}

// RegisterRoutes registers catalog routes on the given mux.
func (h *SaintsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/saints", h.list)
	mux.HandleFunc("POST /api/saints", h.create)
	mux.HandleFunc("GET /api/saints/{slug}", h.get)
	mux.HandleFunc("PUT /api/saints/{slug}", h.update)
	mux.HandleFunc("DELETE /api/saints/{slug}", h.delete)
	mux.HandleFunc("POST /api/saints/{slug}/raw", h.addRaw)
}

// list returns all catalog profiles, falling back to the seed roster
// when the catalog is empty or unreachable.
func (h *SaintsHandler) list(w http.ResponseWriter, r *http.Request) {
	saints := catalog.ListWithFallback(r.Context(), h.store)
	writeJSON(w, http.StatusOK, map[string]any{
		"saints": saints,
		"total":  len(saints),
	})
}

// create inserts a new profile. Responds 409 on a duplicate slug.
func (h *SaintsHandler) create(w http.ResponseWriter, r *http.Request) {
	var s catalog.Saint
	if err := decodeBody(w, r, &s); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if s.Slug == "" || s.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "slug and name are required")
		return
	}

	if err := h.store.CreateSaint(r.Context(), s); err != nil {
		h.logger.Error("create saint failed", "saint", s.Slug, "error", err)
		writeFault(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, s)
}

func (h *SaintsHandler) get(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.GetSaint(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// update replaces the profile named in the path. The body's slug is
// ignored in favor of the path.
func (h *SaintsHandler) update(w http.ResponseWriter, r *http.Request) {
	var s catalog.Saint
	if err := decodeBody(w, r, &s); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	s.Slug = r.PathValue("slug")
	if s.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "name is required")
		return
	}

	if err := h.store.UpdateSaint(r.Context(), s); err != nil {
		h.logger.Error("update saint failed", "saint", s.Slug, "error", err)
		writeFault(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s)
}

// delete removes the profile and its staged raw documents.
func (h *SaintsHandler) delete(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if err := h.store.DeleteSaint(r.Context(), slug); err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "slug": slug})
}

// rawDocumentRequest is the request body for staging a raw document.
// Either url (fetched and extracted server-side) or content (used
// verbatim) must be present.
type rawDocumentRequest struct {
	URL       string   `json:"url"`
	Publisher string   `json:"publisher"`
	Content   string   `json:"content"`
	Name      string   `json:"name"`
	FeastDay  string   `json:"feastDay"`
	Era       string   `json:"era"`
	Patronage []string `json:"patronage"`
}

// addRaw stages a raw document for the saint named in the path.
func (h *SaintsHandler) addRaw(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	var req rawDocumentRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	var doc catalog.RawDocument
	switch {
	case req.URL != "":
		if h.fetcher == nil {
			writeError(w, http.StatusBadRequest, "invalid_argument", "URL fetching is not enabled")
			return
		}
		fetched, err := h.fetcher.Document(r.Context(), slug, req.URL, req.Publisher)
		if err != nil {
			h.logger.Error("fetch raw document failed", "saint", slug, "url", req.URL, "error", err)
			writeFault(w, err)
			return
		}
		doc = fetched
	case req.Content != "":
		doc = catalog.RawDocument{
			ID:        uuid.New(),
			SaintSlug: slug,
			Publisher: req.Publisher,
			Content:   req.Content,
		}
	default:
		writeError(w, http.StatusBadRequest, "invalid_argument", "either url or content is required")
		return
	}

	// Profile hints from the request enrich whatever the fetcher found.
	if req.Name != "" {
		doc.Name = req.Name
	}
	if req.FeastDay != "" {
		doc.FeastDay = req.FeastDay
	}
	if req.Era != "" {
		doc.Era = req.Era
	}
	if len(req.Patronage) > 0 {
		doc.Patronage = req.Patronage
	}

	if err := h.store.AddRawDocument(r.Context(), doc); err != nil {
		h.logger.Error("add raw document failed", "saint", slug, "error", err)
		writeFault(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}
