// Package queue implements the SQL-backed claim/complete/fail protocol
// against the `serviceq` table. The claim statement is a single CTE
// using FOR UPDATE SKIP LOCKED so that concurrent dispatchers — on the
// same process or different ones — never claim the same job twice.
package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sceneapp/scene/internal/models"
)

// Execer is satisfied by both *pgxpool.Pool and pgx.Tx, letting
// Enqueue/CompleteWith/FailWith run either standalone or as part of a
// caller-owned transaction (for the chain-enqueue discipline in
// internal/handlers).
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const claimSQL = `
WITH next_job AS (
	SELECT id FROM serviceq
	WHERE status = 'PENDING'
	  AND attempts < max_attempts
	ORDER BY created_at ASC
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
UPDATE serviceq
SET status = 'RUNNING',
    attempts = attempts + 1,
    updated_at = now()
FROM next_job
WHERE serviceq.id = next_job.id
RETURNING serviceq.id, serviceq.image_id, serviceq.service_type,
          serviceq.status, serviceq.attempts, serviceq.max_attempts,
          serviceq.created_at, serviceq.updated_at
`

// Store is the claim/complete/fail protocol surface the dispatcher
// depends on. *Queue is the real, pgx-backed implementation; tests may
// substitute an in-memory fake to exercise dispatcher concurrency and
// shutdown behavior without a live database.
type Store interface {
	Claim(ctx context.Context) (*models.Job, error)
	Complete(ctx context.Context, jobID uuid.UUID) error
	Fail(ctx context.Context, jobID uuid.UUID) error
}

// Queue wraps a pgxpool.Pool and implements the claim/complete/fail
// protocol. Each method call acquires and releases its own pool
// connection, so a slow handler never starves the dispatcher's next
// claim.
type Queue struct {
	pool *pgxpool.Pool
}

var _ Store = (*Queue)(nil)

// New wraps pool in a Queue.
func New(pool *pgxpool.Pool) *Queue {
	return &Queue{pool: pool}
}

// Claim atomically selects and locks the oldest eligible PENDING job,
// transitions it to RUNNING, and returns it. Returns (nil, nil) if no
// job currently qualifies.
func (q *Queue) Claim(ctx context.Context) (*models.Job, error) {
	row := q.pool.QueryRow(ctx, claimSQL)

	var job models.Job
	err := row.Scan(
		&job.ID, &job.ImageID, &job.ServiceType,
		&job.Status, &job.Attempts, &job.MaxAttempts,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return &job, nil
}

// Complete marks jobID COMPLETED using the pool directly (outside any
// caller transaction).
func (q *Queue) Complete(ctx context.Context, jobID uuid.UUID) error {
	return CompleteWith(ctx, q.pool, jobID)
}

// Fail applies the conditional fail transition using the pool directly.
func (q *Queue) Fail(ctx context.Context, jobID uuid.UUID) error {
	return FailWith(ctx, q.pool, jobID)
}

// Enqueue inserts a new PENDING job for imageID against exec — either
// the pool, or a transaction the caller wants the insert to be part of
// (the chain-enqueue discipline in spec.md §4.3/§5 requires this).
func Enqueue(ctx context.Context, exec Execer, imageID uuid.UUID, serviceType models.ServiceType) (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate job id: %w", err)
	}
	_, err = exec.Exec(ctx, `
		INSERT INTO serviceq (id, image_id, service_type, status, attempts, max_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, 'PENDING', 0, $4, now(), now())
	`, id, imageID, serviceType, models.DefaultMaxAttempts)
	if err != nil {
		return uuid.Nil, fmt.Errorf("enqueue %s job: %w", serviceType, err)
	}
	return id, nil
}

// CompleteWith marks jobID COMPLETED against exec.
func CompleteWith(ctx context.Context, exec Execer, jobID uuid.UUID) error {
	_, err := exec.Exec(ctx, `
		UPDATE serviceq SET status = 'COMPLETED', updated_at = now() WHERE id = $1
	`, jobID)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

// FailWith applies the conditional fail transition against exec: the
// job moves to FAILED if its attempts have reached max_attempts,
// otherwise back to PENDING so it is eligible for another claim. The
// decision is made by the same statement that reads attempts, so it
// always reflects the post-claim attempt count.
func FailWith(ctx context.Context, exec Execer, jobID uuid.UUID) error {
	_, err := exec.Exec(ctx, `
		UPDATE serviceq
		SET status = CASE WHEN attempts >= max_attempts THEN 'FAILED' ELSE 'PENDING' END,
		    updated_at = now()
		WHERE id = $1
	`, jobID)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return nil
}
