package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lektora/lektora/internal/core"
	"github.com/lektora/lektora/internal/core/jobs"
	"github.com/lektora/lektora/internal/models"
)

type JobHandler struct {
	jobs *jobs.Manager
}

func NewJobHandler(jm *jobs.Manager) *JobHandler {
	return &JobHandler{jobs: jm}
}

// ListJobs handles GET /api/jobs with optional status and collection
// filters and a limit (default 100). Jobs come back newest first.
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	collection := r.URL.Query().Get("collection")
	limit := queryInt(r, "limit", 100)

	if status != "" && !models.ValidJobStatus(status) {
		writeError(w, &core.ValidationError{Reason: "Unknown job status '" + status + "'"})
		return
	}

	list := h.jobs.List(status, collection, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  list,
		"count": len(list),
	})
}

// GetJob handles GET /api/jobs/{job_id}. Per-document results are omitted
// here; they have their own endpoint.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(chi.URLParam(r, "job_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	job.Results = nil
	writeJSON(w, http.StatusOK, job)
}

// GetJobResults handles GET /api/jobs/{job_id}/results.
func (h *JobHandler) GetJobResults(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(chi.URLParam(r, "job_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":  job.ID,
		"status":  job.Status,
		"results": job.Results,
	})
}

// CancelJob handles DELETE /api/jobs/{job_id}. Cancellation is cooperative:
// a processing job stops after the document currently in flight.
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if err := h.jobs.Cancel(jobID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"job_id":  jobID,
		"message": "cancellation requested",
	})
}
