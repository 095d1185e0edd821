package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lektora/lektora/internal/services"
)

type CollectionHandler struct {
	collections *services.CollectionService
}

func NewCollectionHandler(collections *services.CollectionService) *CollectionHandler {
	return &CollectionHandler{collections: collections}
}

type createCollectionRequest struct {
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	SearchLanguage string         `json:"search_language,omitempty"`
}

// CreateCollection handles POST /api/collections.
func (h *CollectionHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	col, err := h.collections.Create(r.Context(), req.Name, req.Description, req.Metadata, req.SearchLanguage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, col)
}

// ListCollections handles GET /api/collections.
func (h *CollectionHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := h.collections.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

// GetCollection handles GET /api/collections/{name}.
func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	stats, err := h.collections.Info(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// DeleteCollection handles DELETE /api/collections/{name}.
func (h *CollectionHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.collections.Delete(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "collection '" + name + "' deleted"})
}
