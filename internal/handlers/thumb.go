package handlers

import (
	"context"

	"github.com/sceneapp/scene/internal/models"
	"github.com/sceneapp/scene/internal/queue"
	"github.com/sceneapp/scene/internal/thumbnail"
)

// handleThumb generates the aspect-preserving thumbnail for job's
// image, then — in a single transaction — stores the thumbnail path on
// the image row, chain-enqueues the VECTOR job, and marks this job
// complete. Thumbnail generation is CPU-bound and runs before any
// transaction is opened, per spec.md §5's rule that handlers never
// hold a database transaction across blocking/CPU-bound work.
func handleThumb(ctx context.Context, deps *Deps, job *models.Job) error {
	img, err := loadImage(ctx, deps.DB, job.ImageID)
	if err != nil {
		return fail(ctx, deps, nil, job, "load image", err)
	}
	if img == nil {
		return fail(ctx, deps, nil, job, "image not found", nil)
	}

	thumbPath, err := thumbnail.Generate(img.Path, deps.Artifacts.ThumbDir())
	if err != nil {
		return fail(ctx, deps, nil, job, "generate thumbnail", err)
	}

	tx, err := deps.DB.Begin(ctx)
	if err != nil {
		return fail(ctx, deps, nil, job, "begin transaction", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE image SET thumb = $1, updated_at = now() WHERE id = $2
	`, thumbPath, img.ID); err != nil {
		return fail(ctx, deps, tx, job, "update image thumb", err)
	}

	if _, err := queue.Enqueue(ctx, tx, img.ID, models.ServiceVECTOR); err != nil {
		return fail(ctx, deps, tx, job, "chain-enqueue vector job", err)
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
