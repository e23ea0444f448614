package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sceneapp/scene/internal/store"
)

// Fetch handles GET /images/{id}/: streams the original file.
func Fetch(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeValidationError(w, "invalid image id")
			return
		}

		var path string
		if err := deps.DB.QueryRow(ctx, `SELECT path FROM image WHERE id = $1`, id).Scan(&path); err != nil {
			writeNotFound(w, "image not found")
			return
		}

		serveArtifact(w, r, deps, path)
	}
}

// FetchThumb handles GET /images/{id}/thumb: streams the thumbnail,
// falling back to the original if no thumbnail exists yet.
func FetchThumb(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeValidationError(w, "invalid image id")
			return
		}

		var path string
		var thumb *string
		if err := deps.DB.QueryRow(ctx, `SELECT path, thumb FROM image WHERE id = $1`, id).Scan(&path, &thumb); err != nil {
			writeNotFound(w, "image not found")
			return
		}

		served := path
		if thumb != nil && *thumb != "" {
			served = *thumb
		}
		serveArtifact(w, r, deps, served)
	}
}

func serveArtifact(w http.ResponseWriter, r *http.Request, deps *Deps, path string) {
	f, err := deps.Artifacts.Open(path)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(w, "artifact not found")
			return
		}
		writeInternalError(w, "open artifact", err)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		writeInternalError(w, "stat artifact", err)
		return
	}

	http.ServeContent(w, r, path, stat.ModTime(), f)
}
