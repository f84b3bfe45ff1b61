package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skymessage/skymessage/internal/log"
)

// HealthHandler serves the liveness and readiness probes. Liveness
// only proves the process answers; readiness additionally pings the
// saint database, since every endpoint except /api/match is useless
// without it.
type HealthHandler struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

func NewHealthHandler(pool *pgxpool.Pool, logger log.Logger) *HealthHandler {
	return &HealthHandler{pool: pool, logger: logger}
}

func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	if h.pool == nil {
		writeError(w, http.StatusServiceUnavailable, "not_ready", "database pool not configured")
		return
	}
	if err := h.pool.Ping(r.Context()); err != nil {
		h.logger.Error("readiness ping failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "not_ready", "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
