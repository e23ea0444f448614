package handlers

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/sceneapp/scene/internal/models"
	"github.com/sceneapp/scene/internal/queue"
)

// handleVector encodes job's image thumbnail into a 512-dim joint
// embedding and stores it on the image row. Chaining to DETECTOR is
// reserved for a future extension and is explicitly optional, so this
// handler enqueues nothing further on completion.
func handleVector(ctx context.Context, deps *Deps, job *models.Job) error {
	img, err := loadImage(ctx, deps.DB, job.ImageID)
	if err != nil {
		return fail(ctx, deps, nil, job, "load image", err)
	}
	if img == nil {
		return fail(ctx, deps, nil, job, "image not found", nil)
	}
	if !img.HasThumb() {
		return fail(ctx, deps, nil, job, "thumbnail not ready", nil)
	}

	vec, err := deps.Encoder.EncodeImage(*img.Thumb)
	if err != nil {
		return fail(ctx, deps, nil, job, "encode image", err)
	}

	tx, err := deps.DB.Begin(ctx)
	if err != nil {
		return fail(ctx, deps, nil, job, "begin transaction", err)
	}

	embedding := pgvector.NewVector(vec)
	if _, err := tx.Exec(ctx, `
		UPDATE image SET embeddings = $1, updated_at = now() WHERE id = $2
	`, embedding, img.ID); err != nil {
		return fail(ctx, deps, tx, job, "update image embeddings", err)
	}

	if err := queue.CompleteWith(ctx, tx, job.ID); err != nil {
		return fail(ctx, deps, tx, job, "mark job complete", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fail(ctx, deps, nil, job, "commit transaction", err)
	}

	deps.notify(img.ID, job.ServiceType, true)
	logHandlerSuccess(job)
	return nil
}
