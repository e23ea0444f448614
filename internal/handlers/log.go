package handlers

import (
	"github.com/rs/zerolog/log"

	"github.com/sceneapp/scene/internal/models"
)

func logHandlerFailure(job *models.Job, reason string, cause error) {
	ev := log.Error().
		Str("job_id", job.ID.String()).
		Str("image_id", job.ImageID.String()).
		Str("service_type", string(job.ServiceType)).
		Int("attempt", job.Attempts).
		Str("reason", reason)
	if cause != nil {
		ev = ev.Err(cause)
	}
	ev.Msg("handler: job failed")
}

func logHandlerSuccess(job *models.Job) {
	log.Info().
		Str("job_id", job.ID.String()).
		Str("image_id", job.ImageID.String()).
		Str("service_type", string(job.ServiceType)).
		Msg("handler: job completed")
}
