package handlers

import (
	"net/http"

	"github.com/lektora/lektora/internal/services"
)

type SearchHandler struct {
	search *services.SearchService
}

func NewSearchHandler(search *services.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Search handles POST /api/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req services.SearchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	results, err := h.search.Search(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection": req.Collection,
		"query":      req.Query,
		"results":    results,
		"count":      len(results),
	})
}
