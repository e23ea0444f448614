package handlers

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/sceneapp/scene/internal/models"
	"github.com/sceneapp/scene/internal/queue"
)

// handleDetector is a deliberate no-op: object detection has no model
// wired up yet (spec.md §4.3 scopes DETECTOR as a stub). It just logs
// and completes the job so DETECTOR rows don't sit PENDING forever.
func handleDetector(ctx context.Context, deps *Deps, job *models.Job) error {
	log.Info().
		Str("job_id", job.ID.String()).
		Str("image_id", job.ImageID.String()).
		Msg("detector: no-op, marking complete")

	if err := queue.CompleteWith(ctx, deps.DB, job.ID); err != nil {
		return fail(ctx, deps, nil, job, "mark job complete", err)
	}

	deps.notify(job.ImageID, job.ServiceType, true)
	return nil
}
