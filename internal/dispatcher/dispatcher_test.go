package dispatcher_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sceneapp/scene/internal/dispatcher"
	"github.com/sceneapp/scene/internal/models"
	"github.com/sceneapp/scene/internal/queue"
)

// memStore is an in-memory fake implementing queue.Store, used to
// exercise dispatcher concurrency and shutdown behavior without a live
// database.
type memStore struct {
	mu      sync.Mutex
	pending []*models.Job
}

var _ queue.Store = (*memStore)(nil)

func newMemStore(n int) *memStore {
	jobs := make([]*models.Job, n)
	for i := range jobs {
		jobs[i] = &models.Job{
			ID:          uuid.Must(uuid.NewV7()),
			ImageID:     uuid.Must(uuid.NewV7()),
			ServiceType: models.ServiceTHUMB,
			Status:      models.StatusPending,
			MaxAttempts: models.DefaultMaxAttempts,
		}
	}
	return &memStore{pending: jobs}
}

func (s *memStore) Claim(ctx context.Context) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil, nil
	}
	job := s.pending[0]
	s.pending = s.pending[1:]
	job.Status = models.StatusRunning
	job.Attempts++
	return job, nil
}

func (s *memStore) Complete(ctx context.Context, jobID uuid.UUID) error { return nil }
func (s *memStore) Fail(ctx context.Context, jobID uuid.UUID) error    { return nil }

func TestDispatcherRespectsConcurrencyCap(t *testing.T) {
	const jobCount = 10
	const maxConcurrent = 2

	store := newMemStore(jobCount)

	var inFlight int32
	var maxSeen int32
	var mu sync.Mutex
	release := make(chan struct{})

	handle := func(ctx context.Context, job *models.Job) error {
		cur := atomic.AddInt32(&inFlight, 1)
		mu.Lock()
		if cur > maxSeen {
			maxSeen = cur
		}
		mu.Unlock()
		<-release
		atomic.AddInt32(&inFlight, -1)
		return nil
	}

	d := dispatcher.New(store, handle, maxConcurrent, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	// Let the dispatcher saturate its concurrency budget.
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	seen := maxSeen
	mu.Unlock()
	require.LessOrEqual(t, int(seen), maxConcurrent)
	require.Equal(t, int32(maxConcurrent), atomic.LoadInt32(&inFlight))

	close(release)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not shut down in time")
	}
}

func TestDispatcherDrainsInFlightOnShutdown(t *testing.T) {
	store := newMemStore(1)

	started := make(chan struct{})
	finished := make(chan struct{})
	release := make(chan struct{})

	handle := func(ctx context.Context, job *models.Job) error {
		close(started)
		<-release
		close(finished)
		return nil
	}

	d := dispatcher.New(store, handle, 1, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	runDone := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(runDone)
	}()

	<-started
	cancel() // cancel while the handler is still running

	select {
	case <-runDone:
		t.Fatal("dispatcher returned before draining the in-flight handler")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)

	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not return after handler finished")
	}

	select {
	case <-finished:
	default:
		t.Fatal("handler did not run to completion")
	}
}

func TestDispatcherSleepsWhenQueueEmpty(t *testing.T) {
	store := newMemStore(0)

	var calls int32
	handle := func(ctx context.Context, job *models.Job) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}

	d := dispatcher.New(store, handle, 2, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not shut down in time")
	}

	require.Equal(t, int32(0), atomic.LoadInt32(&calls))
}
