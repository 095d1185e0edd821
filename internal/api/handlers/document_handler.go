package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lektora/lektora/internal/core"
	"github.com/lektora/lektora/internal/services"
)

type DocumentHandler struct {
	ingest *services.IngestService
	db     core.DbClient
}

func NewDocumentHandler(ingest *services.IngestService, db core.DbClient) *DocumentHandler {
	return &DocumentHandler{ingest: ingest, db: db}
}

type addDocumentsRequest struct {
	Documents []services.DocumentInput `json:"documents"`
}

type addDocumentsResponse struct {
	Collection string `json:"collection"`
	Results    any    `json:"results"`
}

// AddDocuments handles POST /api/collections/{name}/documents. Documents
// are ingested synchronously; the response carries one result per input.
func (h *DocumentHandler) AddDocuments(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req addDocumentsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	results, err := h.ingest.AddDocuments(r.Context(), name, req.Documents)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, addDocumentsResponse{Collection: name, Results: results})
}

// SubmitBatch handles POST /api/collections/{name}/documents/batch. The
// batch runs in the background; the response is the job to poll.
func (h *DocumentHandler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req addDocumentsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	jobID, err := h.ingest.SubmitBatch(r.Context(), name, req.Documents)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": "queued",
	})
}

// GetDocuments handles GET /api/collections/{name}/documents. Document IDs
// come comma-separated in the "ids" query parameter; without it the whole
// collection pages through limit/offset.
func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	ids := splitIDs(r.URL.Query().Get("ids"))
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	records, err := h.db.GetDocuments(r.Context(), name, ids, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection": name,
		"documents":  records,
		"count":      len(records),
	})
}

// DeleteDocuments handles DELETE /api/collections/{name}/documents.
func (h *DocumentHandler) DeleteDocuments(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	ids := splitIDs(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		writeError(w, &core.ValidationError{Reason: "Query parameter 'ids' is required"})
		return
	}

	deleted, err := h.db.DeleteDocuments(r.Context(), name, ids)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection":     name,
		"chunks_deleted": deleted,
	})
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
