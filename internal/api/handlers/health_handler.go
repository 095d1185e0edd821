package handlers

import (
	"net/http"

	"github.com/lektora/lektora/internal/core"
	"github.com/lektora/lektora/internal/core/jobs"
)

type HealthHandler struct {
	db   core.DbClient
	jobs *jobs.Manager
}

func NewHealthHandler(db core.DbClient, jm *jobs.Manager) *HealthHandler {
	return &HealthHandler{db: db, jobs: jm}
}

// Healthz handles GET /healthz: a database ping plus the job registry's
// per-status counts.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"error":  "database unreachable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"jobs":   h.jobs.Counts(),
	})
}
