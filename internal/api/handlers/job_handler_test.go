package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lektora/lektora/internal/core/jobs"
	"github.com/lektora/lektora/internal/models"
)

func newJobRouter(jm *jobs.Manager) http.Handler {
	h := NewJobHandler(jm)
	r := chi.NewRouter()
	r.Get("/api/jobs", h.ListJobs)
	r.Get("/api/jobs/{job_id}", h.GetJob)
	r.Get("/api/jobs/{job_id}/results", h.GetJobResults)
	r.Delete("/api/jobs/{job_id}", h.CancelJob)
	return r
}

func TestGetJob(t *testing.T) {
	jm := jobs.NewManager(time.Hour)
	id := jm.Create("notes", 2)
	router := newJobRouter(jm)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var job models.BatchJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, id, job.ID)
	assert.Equal(t, models.JobQueued, job.Status)
	assert.Equal(t, 2, job.TotalDocuments)
}

func TestGetJob_NotFound(t *testing.T) {
	router := newJobRouter(jobs.NewManager(time.Hour))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListJobs_StatusFilter(t *testing.T) {
	jm := jobs.NewManager(time.Hour)
	jm.Create("notes", 1)
	id := jm.Create("notes", 1)
	jm.MarkProcessing(id)
	router := newJobRouter(jm)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs?status=processing", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Jobs  []models.BatchJob `json:"jobs"`
		Count int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs?status=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
}

func TestCancelJob(t *testing.T) {
	jm := jobs.NewManager(time.Hour)
	id := jm.Create("notes", 1)
	router := newJobRouter(jm)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/jobs/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	job, err := jm.Get(id)
	require.NoError(t, err)
	assert.Equal(t, models.JobCancelled, job.Status)

	// Cancelling a finished job conflicts.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/jobs/"+id, nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}
