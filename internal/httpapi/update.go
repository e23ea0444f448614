package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type updateRequest struct {
	Name *string  `json:"name"`
	Tags []string `json:"tags"`
}

// Update handles PATCH /images/{id}: an optional full replacement of
// name and/or tags.
func Update(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeValidationError(w, "invalid image id")
			return
		}

		var body updateRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeValidationError(w, "invalid request body: "+err.Error())
			return
		}

		tag, err := deps.DB.Exec(ctx, `
			UPDATE image
			SET name = COALESCE($2, name),
			    tags = COALESCE($3, tags),
			    updated_at = $4
			WHERE id = $1
		`, id, body.Name, body.Tags, time.Now())
		if err != nil {
			writeInternalError(w, "update image", err)
			return
		}
		if tag.RowsAffected() == 0 {
			writeNotFound(w, "image not found")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"image_id": id})
	}
}
