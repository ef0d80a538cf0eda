package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// InsightJobStatus tracks an insight-generation job through its lifecycle.
type InsightJobStatus string

// Insight job states. QUEUED and RUNNING count as active for the
// single-concurrent-job-per-user invariant.
const (
	InsightJobQueued    InsightJobStatus = "QUEUED"
	InsightJobRunning   InsightJobStatus = "RUNNING"
	InsightJobCompleted InsightJobStatus = "COMPLETED"
	InsightJobFailed    InsightJobStatus = "FAILED"
)

// ErrInvalidJobStatus is returned for status values outside the lifecycle.
var ErrInvalidJobStatus = errors.New("invalid insight job status")

// InsightJob is the richer domain record behind an insights-generate task.
// The task record references it through its JobID column.
type InsightJob struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Status    InsightJobStatus
	Model     string
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewInsightJob creates a QUEUED job for the given user.
func NewInsightJob(userID uuid.UUID) *InsightJob {
	now := time.Now().UTC()
	return &InsightJob{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    InsightJobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Active reports whether the job still occupies the user's single
// concurrent job slot.
func (j *InsightJob) Active() bool {
	return j.Status == InsightJobQueued || j.Status == InsightJobRunning
}
