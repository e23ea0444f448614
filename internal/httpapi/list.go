package httpapi

import (
	"net/http"

	"github.com/sceneapp/scene/internal/models"
)

type listItem struct {
	ID        any      `json:"id"`
	Name      string   `json:"name"`
	Tags      []string `json:"tags"`
	HasThumb  bool     `json:"has_thumb"`
	CreatedAt any      `json:"created_at"`
}

// List handles GET /images/list?page&page_size: a plain offset/limit
// page ordered by id ascending, per spec.md §4.6.
func List(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		page, pageSize, err := pagination(r)
		if err != nil {
			writeValidationError(w, err.Error())
			return
		}

		var count int
		if err := deps.DB.QueryRow(ctx, "SELECT count(*) FROM image").Scan(&count); err != nil {
			writeInternalError(w, "count images", err)
			return
		}

		offset := (page - 1) * pageSize
		rows, err := deps.DB.Query(ctx, `
			SELECT id, name, tags, thumb, created_at
			FROM image
			ORDER BY id ASC
			LIMIT $1 OFFSET $2
		`, pageSize, offset)
		if err != nil {
			writeInternalError(w, "list images", err)
			return
		}
		defer rows.Close()

		items := make([]listItem, 0, pageSize)
		for rows.Next() {
			var img models.Image
			if err := rows.Scan(&img.ID, &img.Name, &img.Tags, &img.Thumb, &img.CreatedAt); err != nil {
				writeInternalError(w, "scan image row", err)
				return
			}
			items = append(items, listItem{
				ID:        img.ID,
				Name:      img.Name,
				Tags:      img.Tags,
				HasThumb:  img.HasThumb(),
				CreatedAt: img.CreatedAt,
			})
		}
		if err := rows.Err(); err != nil {
			writeInternalError(w, "iterate image rows", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"page":      page,
			"page_size": pageSize,
			"count":     count,
			"items":     items,
		})
	}
}
