package httpapi

import (
	"github.com/go-chi/chi/v5"

	"github.com/sceneapp/scene/internal/middleware"
)

// NewRouter assembles the chi router for the ingest/query HTTP surface
// described in spec.md §6.
func NewRouter(deps *Deps, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recover)
	r.Use(middleware.Logger)
	r.Use(middleware.CORSHandler(allowedOrigins))

	r.Route("/images", func(r chi.Router) {
		r.Post("/", Upload(deps))
		r.Get("/list", List(deps))
		r.Get("/search", Search(deps))
		r.Patch("/{id}", Update(deps))
		r.Delete("/{id}", Delete(deps))
		r.Get("/{id}/", Fetch(deps))
		r.Get("/{id}/thumb", FetchThumb(deps))
		r.Get("/{id}/similar", Similar(deps))
	})

	return r
}
