package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/lektora/lektora/internal/core"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handlers: encode response: %v", err)
	}
}

// writeError maps the core error taxonomy onto HTTP statuses:
// validation/capacity 400, not-found 404, conflict/cancelled 409.
// Anything unrecognized is a 500 with a generic message so internals never
// leak.
func writeError(w http.ResponseWriter, err error) {
	var (
		validation  *core.ValidationError
		notFound    *core.NotFoundError
		conflict    *core.ConflictError
		capacity    *core.CapacityError
		cancelled   *core.CancelledError
		persistence *core.PersistenceError
	)

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation_error", Message: validation.Error()})
	case errors.As(err, &capacity):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "capacity_exceeded", Message: capacity.Error()})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: notFound.Error()})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: "conflict", Message: conflict.Error()})
	case errors.As(err, &cancelled):
		writeJSON(w, http.StatusConflict, errorBody{Error: "cancelled", Message: cancelled.Error()})
	case errors.As(err, &persistence):
		log.Printf("handlers: persistence error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "storage_error", Message: "storage operation failed"})
	default:
		log.Printf("handlers: unexpected error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal_error", Message: "internal server error"})
	}
}

// decodeBody parses a JSON request body into dst, rejecting unknown fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &core.ValidationError{Reason: "invalid JSON body: " + err.Error()}
	}
	return nil
}
