// Package httpapi implements the ingest/query HTTP surface described in
// spec.md §4.6/§6 — upload, list, update, delete, fetch, and the two
// pgvector-backed similarity searches.
package httpapi

import (
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sceneapp/scene/internal/encoder"
	"github.com/sceneapp/scene/internal/store"
)

// Deps are the collaborators every HTTP handler needs.
type Deps struct {
	DB                      *pgxpool.Pool
	Artifacts               *store.Store
	Encoder                 *encoder.Encoder
	SimilarityThreshold     float64
	TextSimilarityThreshold float64
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pagination parses and validates the page/page_size query parameters
// per spec.md §4.6 ("page ≥ 1", "1 ≤ page_size ≤ 100").
func pagination(r *http.Request) (page, pageSize int, err error) {
	page = 1
	pageSize = defaultPageSize

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, errInvalidPage
		}
	}

	if raw := r.URL.Query().Get("page_size"); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil || pageSize < 1 || pageSize > maxPageSize {
			return 0, 0, errInvalidPageSize
		}
	}

	return page, pageSize, nil
}

var (
	errInvalidPage     = pageError("page must be >= 1")
	errInvalidPageSize = pageError("page_size must be between 1 and 100")
)

type pageError string

func (e pageError) Error() string { return string(e) }
