package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sceneapp/scene/internal/models"
	"github.com/sceneapp/scene/internal/queue"
)

const maxUploadSize = 50 * 1024 * 1024 // 50 MB

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/heic": true,
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// Upload handles POST /images/: a multipart upload that writes the
// original to disk and, in a single transaction, inserts the image row
// and its first THUMB job.
func Upload(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeValidationError(w, "invalid multipart form: "+err.Error())
			return
		}

		file, fh, err := r.FormFile("file")
		if err != nil {
			writeValidationError(w, "missing file field: "+err.Error())
			return
		}
		defer file.Close()

		contentType := fh.Header.Get("Content-Type")
		if !allowedContentTypes[contentType] {
			writeValidationError(w, "Invalid file type")
			return
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
		if !isAlpha(ext) {
			writeValidationError(w, "Invalid file type")
			return
		}

		id, err := uuid.NewV7()
		if err != nil {
			writeInternalError(w, "generate image id", err)
			return
		}
		filename := fmt.Sprintf("%s.%s", id.String(), ext)

		path, err := deps.Artifacts.SaveOriginal(filename, file)
		if err != nil {
			writeInternalError(w, "save upload", err)
			return
		}

		if err := insertImageAndThumbJob(ctx, deps, id, fh.Filename, path); err != nil {
			deps.Artifacts.Remove(path)
			writeInternalError(w, "insert image row", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"image_id": id,
			"path":     path,
		})
	}
}

func insertImageAndThumbJob(ctx context.Context, deps *Deps, id uuid.UUID, name, path string) error {
	tx, err := deps.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	now := time.Now()
	if _, err := tx.Exec(ctx, `
		INSERT INTO image (id, name, path, tags, created_at, updated_at)
		VALUES ($1, $2, $3, '{}', $4, $4)
	`, id, name, path, now); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("insert image: %w", err)
	}

	if _, err := queue.Enqueue(ctx, tx, id, models.ServiceTHUMB); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("enqueue thumb job: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
