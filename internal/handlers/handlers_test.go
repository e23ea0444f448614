package handlers_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sceneapp/scene/internal/handlers"
	"github.com/sceneapp/scene/internal/models"
)

// Dispatch's routing and the CompletionEvent notification hook are the
// only pieces of this package exercisable without a live database — the
// THUMB/VECTOR/DETECTOR handlers themselves talk to *pgxpool.Pool
// directly and have no tests here (the queue package's integration
// suite covers only the claim/complete/fail statements).

func TestDispatchRejectsUnknownServiceType(t *testing.T) {
	deps := &handlers.Deps{}
	handle := handlers.Dispatch(deps)

	job := &models.Job{
		ID:          uuid.Must(uuid.NewV7()),
		ImageID:     uuid.Must(uuid.NewV7()),
		ServiceType: models.ServiceType("BOGUS"),
	}

	err := handle(context.Background(), job)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown service_type")
}

func TestOnCompleteHookReceivesEvent(t *testing.T) {
	var got handlers.CompletionEvent
	calls := 0
	deps := &handlers.Deps{
		OnComplete: func(ev handlers.CompletionEvent) {
			calls++
			got = ev
		},
	}

	imageID := uuid.Must(uuid.NewV7())
	handlers.Dispatch(deps) // ensure Dispatch doesn't itself notify

	deps.OnComplete(handlers.CompletionEvent{
		ImageID:     imageID,
		ServiceType: models.ServiceTHUMB,
		Success:     true,
	})

	require.Equal(t, 1, calls)
	require.Equal(t, imageID, got.ImageID)
	require.Equal(t, models.ServiceTHUMB, got.ServiceType)
	require.True(t, got.Success)
}
