package models

import (
	"time"

	"github.com/google/uuid"
)

// ServiceType identifies which handler a ServiceQ row is dispatched to.
type ServiceType string

const (
	ServiceTHUMB    ServiceType = "THUMB"
	ServiceVECTOR   ServiceType = "VECTOR"
	ServiceDETECTOR ServiceType = "DETECTOR"
)

// Valid reports whether s is one of the known service types.
func (s ServiceType) Valid() bool {
	switch s {
	case ServiceTHUMB, ServiceVECTOR, ServiceDETECTOR:
		return true
	default:
		return false
	}
}

// JobStatus is the lifecycle state of a ServiceQ row.
type JobStatus string

const (
	StatusPending   JobStatus = "PENDING"
	StatusRunning   JobStatus = "RUNNING"
	StatusCompleted JobStatus = "COMPLETED"
	StatusFailed    JobStatus = "FAILED"
)

// DefaultMaxAttempts is the default retry budget for a new job.
const DefaultMaxAttempts = 3

// Job is a row of the `serviceq` table.
type Job struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	ImageID     uuid.UUID   `db:"image_id" json:"image_id"`
	ServiceType ServiceType `db:"service_type" json:"service_type"`
	Status      JobStatus   `db:"status" json:"status"`
	Attempts    int         `db:"attempts" json:"attempts"`
	MaxAttempts int         `db:"max_attempts" json:"max_attempts"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether the job has reached a status it can never
// transition out of.
func (j *Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}
