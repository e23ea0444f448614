// Package dispatcher runs the worker control loop: it claims jobs from
// the queue, bounds how many run concurrently with a semaphore, and
// drains in-flight handlers on shutdown instead of cancelling them
// mid-flight.
package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sceneapp/scene/internal/models"
	"github.com/sceneapp/scene/internal/queue"
)

// HandlerFunc runs a claimed job to completion. It never returns an
// error to the dispatcher for propagation — any business failure is
// captured, logged, and reflected in the job's status by the handler
// itself (per spec.md §7, the worker never propagates handler errors
// out of handle_job). The returned error is only used here for an
// extra dispatcher-level log line covering catastrophic failures (e.g.
// the handler couldn't even reach the database to mark the job
// failed).
type HandlerFunc func(ctx context.Context, job *models.Job) error

// Dispatcher is the bounded-concurrency poll loop described in
// spec.md §4.2 and §5.
type Dispatcher struct {
	store        queue.Store
	handle       HandlerFunc
	pollInterval time.Duration
	sem          chan struct{}
	wg           sync.WaitGroup
}

// New constructs a Dispatcher with the given concurrency cap and poll
// interval.
func New(store queue.Store, handle HandlerFunc, maxConcurrent int, pollInterval time.Duration) *Dispatcher {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Dispatcher{
		store:        store,
		handle:       handle,
		pollInterval: pollInterval,
		sem:          make(chan struct{}, maxConcurrent),
	}
}

// Run executes the control loop until ctx is cancelled. On
// cancellation it stops polling, awaits every in-flight handler task to
// finish its current job, and returns. It is the caller's
// responsibility to invoke Run in its own goroutine and wait for it to
// return during shutdown.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Info().Int("max_concurrent", cap(d.sem)).Dur("poll_interval", d.pollInterval).Msg("dispatcher started")

	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case d.sem <- struct{}{}:
		}

		job, err := d.store.Claim(ctx)
		if err != nil {
			log.Error().Err(err).Msg("dispatcher: claim failed")
			<-d.sem
			if d.sleepOrDone(ctx) {
				d.drain()
				return
			}
			continue
		}

		if job == nil {
			<-d.sem
			if d.sleepOrDone(ctx) {
				d.drain()
				return
			}
			continue
		}

		d.wg.Add(1)
		go func(job *models.Job) {
			defer d.wg.Done()
			defer func() { <-d.sem }()
			d.runHandler(context.WithoutCancel(ctx), job)
		}(job)
	}
}

func (d *Dispatcher) runHandler(ctx context.Context, job *models.Job) {
	log.Debug().
		Str("job_id", job.ID.String()).
		Str("image_id", job.ImageID.String()).
		Str("service_type", string(job.ServiceType)).
		Int("attempt", job.Attempts).
		Msg("dispatcher: handling job")

	if err := d.handle(ctx, job); err != nil {
		log.Error().
			Err(err).
			Str("job_id", job.ID.String()).
			Str("service_type", string(job.ServiceType)).
			Msg("dispatcher: handler returned a dispatcher-level error")
	}
}

// drain waits for every in-flight handler task to finish its current
// job. Handlers are never interrupted mid-flight so that the
// transactional discipline in spec.md §4.3 always runs to completion.
func (d *Dispatcher) drain() {
	log.Info().Msg("dispatcher: draining in-flight jobs")
	d.wg.Wait()
	log.Info().Msg("dispatcher: shut down cleanly")
}

// sleepOrDone sleeps for the poll interval, returning early (true) if
// ctx is cancelled first.
func (d *Dispatcher) sleepOrDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-time.After(d.pollInterval):
		return false
	}
}
