// Package handlers implements the per-service-type job handlers (THUMB,
// VECTOR, DETECTOR) described in spec.md §4.3. Each handler loads its
// required state, performs its external work, then commits the image
// row change, the job completion, and (for THUMB) the next stage's
// chain-enqueue in one transaction. On any error, handlers roll back
// the image-row change and mark the job failed using the queue's
// conditional fail semantics — never leaving serviceq in an
// inconsistent state.
package handlers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sceneapp/scene/internal/encoder"
	"github.com/sceneapp/scene/internal/models"
	"github.com/sceneapp/scene/internal/queue"
	"github.com/sceneapp/scene/internal/store"
	"github.com/sceneapp/scene/internal/thumbnail"
)

// CompletionEvent is published through OnComplete whenever a handler
// finishes a job, successfully or not. OnComplete is an optional
// extension seam (e.g. for tests or future notification channels);
// handlers never depend on it being set.
type CompletionEvent struct {
	ImageID     uuid.UUID
	ServiceType models.ServiceType
	Success     bool
}

// Deps are the collaborators every handler needs.
type Deps struct {
	DB         *pgxpool.Pool
	Artifacts  *store.Store
	Encoder    *encoder.Encoder
	OnComplete func(CompletionEvent)
}

func (d *Deps) notify(imageID uuid.UUID, serviceType models.ServiceType, success bool) {
	if d.OnComplete != nil {
		d.OnComplete(CompletionEvent{ImageID: imageID, ServiceType: serviceType, Success: success})
	}
}

// Dispatch returns a dispatcher.HandlerFunc-compatible function that
// routes a claimed job to its service-type handler.
func Dispatch(deps *Deps) func(ctx context.Context, job *models.Job) error {
	return func(ctx context.Context, job *models.Job) error {
		switch job.ServiceType {
		case models.ServiceTHUMB:
			return handleThumb(ctx, deps, job)
		case models.ServiceVECTOR:
			return handleVector(ctx, deps, job)
		case models.ServiceDETECTOR:
			return handleDetector(ctx, deps, job)
		default:
			return fmt.Errorf("unknown service_type %q for job %s", job.ServiceType, job.ID)
		}
	}
}

// loadImage fetches an image row by id.
func loadImage(ctx context.Context, db *pgxpool.Pool, imageID uuid.UUID) (*models.Image, error) {
	row := db.QueryRow(ctx, `
		SELECT id, name, path, thumb, tags, embeddings, created_at, updated_at, uploaded_by
		FROM image WHERE id = $1
	`, imageID)

	var img models.Image
	err := row.Scan(
		&img.ID, &img.Name, &img.Path, &img.Thumb, &img.Tags,
		&img.Embeddings, &img.CreatedAt, &img.UpdatedAt, &img.UploadedBy,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load image %s: %w", imageID, err)
	}
	return &img, nil
}

// fail rolls back the given (possibly nil) image-row tx, then applies
// the conditional fail transition in a fresh statement against the
// pool, and logs the failure with full context.
func fail(ctx context.Context, deps *Deps, tx pgx.Tx, job *models.Job, reason string, cause error) error {
	if tx != nil {
		_ = tx.Rollback(ctx)
	}
	if err := queue.FailWith(ctx, deps.DB, job.ID); err != nil {
		return fmt.Errorf("mark job %s failed (reason=%q, cause=%v): %w", job.ID, reason, cause, err)
	}
	deps.notify(job.ImageID, job.ServiceType, false)
	logHandlerFailure(job, reason, cause)
	return nil
}
