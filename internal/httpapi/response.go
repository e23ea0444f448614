package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("httpapi: failed to encode response body")
	}
}

// errorBody is the JSON shape returned on every non-2xx response.
type errorBody struct {
	Detail string `json:"detail"`
}

// writeValidationError, writeNotFound, writePrecondition and
// writeInternalError map spec.md §7's error kinds to their status codes.
// Validation, not-found and precondition errors are expected traffic and
// are not logged at error level; writeInternalError logs at error level.
func writeValidationError(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Detail: detail})
}

func writeNotFound(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusNotFound, errorBody{Detail: detail})
}

func writePrecondition(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: detail})
}

func writeInternalError(w http.ResponseWriter, context string, err error) {
	log.Error().Err(err).Str("context", context).Msg("httpapi: internal error")
	writeJSON(w, http.StatusInternalServerError, errorBody{Detail: "internal error"})
}
