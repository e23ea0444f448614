package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Delete handles DELETE /images/{id}: deletes the row, which cascades
// to its serviceq jobs, then removes its on-disk artifacts (tolerating
// already-missing files).
func Delete(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeValidationError(w, "invalid image id")
			return
		}

		var path string
		var thumb *string
		err = deps.DB.QueryRow(ctx, `SELECT path, thumb FROM image WHERE id = $1`, id).Scan(&path, &thumb)
		if err != nil {
			writeNotFound(w, "image not found")
			return
		}

		if _, err := deps.DB.Exec(ctx, `DELETE FROM image WHERE id = $1`, id); err != nil {
			writeInternalError(w, "delete image row", err)
			return
		}

		if err := deps.Artifacts.Remove(path); err != nil {
			writeInternalError(w, "remove original artifact", err)
			return
		}
		if thumb != nil {
			if err := deps.Artifacts.Remove(*thumb); err != nil {
				writeInternalError(w, "remove thumb artifact", err)
				return
			}
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
