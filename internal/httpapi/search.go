package httpapi

import (
	"context"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"
)

type searchItem struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Tags       []string  `json:"tags"`
	Similarity float64   `json:"similarity"`
}

func roundSimilarity(distance float64) float64 {
	return math.Round((1-distance)*10000) / 10000
}

func querySimilar(ctx context.Context, deps *Deps, vec []float32, threshold float64, page, pageSize int) ([]searchItem, error) {
	offset := (page - 1) * pageSize

	embedding := pgvector.NewVector(vec)
	rows, err := deps.DB.Query(ctx, `
		SELECT id, name, tags, embeddings <=> $1 AS distance
		FROM image
		WHERE embeddings IS NOT NULL
		  AND embeddings <=> $1 < $2
		ORDER BY distance ASC
		LIMIT $3 OFFSET $4
	`, embedding, threshold, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]searchItem, 0, pageSize)
	for rows.Next() {
		var item searchItem
		var distance float64
		if err := rows.Scan(&item.ID, &item.Name, &item.Tags, &distance); err != nil {
			return nil, err
		}
		item.Similarity = roundSimilarity(distance)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Search handles GET /images/search?query&page&page_size: text-to-image
// similarity search against TEXT_SIMILARITY_THRESHOLD.
func Search(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		if query == "" {
			writeValidationError(w, "query is required")
			return
		}

		vec, err := deps.Encoder.EncodeText(query)
		if err != nil {
			writeInternalError(w, "encode query text", err)
			return
		}

		page, pageSize, perr := pagination(r)
		if perr != nil {
			writeValidationError(w, perr.Error())
			return
		}

		items, err := querySimilar(r.Context(), deps, vec, deps.TextSimilarityThreshold, page, pageSize)
		if err != nil {
			writeInternalError(w, "text search query", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"page":      page,
			"page_size": pageSize,
			"count":     len(items),
			"items":     items,
		})
	}
}

// Similar handles GET /images/{id}/similar?page&page_size: image-to-image
// similarity search against SIMILARITY_THRESHOLD. The target image is
// itself eligible for inclusion (distance 0).
func Similar(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeValidationError(w, "invalid image id")
			return
		}

		var embeddings *pgvector.Vector
		err = deps.DB.QueryRow(ctx, `SELECT embeddings FROM image WHERE id = $1`, id).Scan(&embeddings)
		if err != nil {
			if err == pgx.ErrNoRows {
				writeNotFound(w, "image not found")
				return
			}
			writeInternalError(w, "load image", err)
			return
		}
		if embeddings == nil {
			writePrecondition(w, "image has no embedding yet")
			return
		}

		page, pageSize, perr := pagination(r)
		if perr != nil {
			writeValidationError(w, perr.Error())
			return
		}

		items, err := querySimilar(r.Context(), deps, embeddings.Slice(), deps.SimilarityThreshold, page, pageSize)
		if err != nil {
			writeInternalError(w, "similarity query", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"page":      page,
			"page_size": pageSize,
			"count":     len(items),
			"items":     items,
		})
	}
}
