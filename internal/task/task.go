package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a task record.
type Status string

// Possible task record states. Transitions are monotonic:
// PENDING -> DISPATCHED -> {SUCCEEDED | FAILED}. A FAILED attempt that has
// retries remaining is re-armed to PENDING by the outcome reporting path
// only; producers never touch status after insert.
const (
	StatusPending    Status = "PENDING"
	StatusDispatched Status = "DISPATCHED"
	StatusSucceeded  Status = "SUCCEEDED"
	StatusFailed     Status = "FAILED"
)

// Logical queue names. Each producer writes to exactly one queue.
const (
	QueueInsightsGenerate      = "insights-generate"
	QueueNotificationsDispatch = "notifications-dispatch"
	QueueWearableSync          = "wearable-sync"
)

// Record is one persisted unit of asynchronous work. The row is created by
// a producer and mutated exclusively by the dispatcher afterwards. TaskName
// is the idempotency key: globally unique and immutable.
type Record struct {
	ID             uuid.UUID
	TaskName       string
	Queue          string
	Status         Status
	JobID          *uuid.UUID
	Payload        json.RawMessage
	ScheduleTime   *time.Time
	FirstAttemptAt *time.Time
	LastAttemptAt  *time.Time
	AttemptCount   int
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Eligible reports whether the record may be claimed at the given instant.
func (r *Record) Eligible(now time.Time) bool {
	if r.Status != StatusPending {
		return false
	}
	return r.ScheduleTime == nil || !r.ScheduleTime.After(now)
}

// RecordStore defines persistence for task records. The unique constraint
// on task_name is the only concurrency-control primitive the enqueue
// protocol relies on; claiming semantics for dispatch live in ClaimDue.
type RecordStore interface {
	// Insert persists a new record. A unique violation on TaskName is
	// reported as store.ErrTaskNameExists so callers can treat it as
	// "already enqueued".
	Insert(ctx context.Context, rec *Record) error

	// GetByName retrieves a record by its idempotency key.
	GetByName(ctx context.Context, taskName string) (*Record, error)

	// GetByID retrieves a record by its opaque identifier.
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)

	// ClaimDue atomically transitions up to limit eligible PENDING records
	// (schedule_time elapsed or null) to DISPATCHED, stamping attempt
	// bookkeeping, and returns the claimed rows. Safe to call from
	// concurrent dispatcher processes.
	ClaimDue(ctx context.Context, queue string, now time.Time, limit int) ([]*Record, error)

	// MarkSucceeded sets terminal SUCCEEDED status and clears the error
	// message.
	MarkSucceeded(ctx context.Context, id uuid.UUID) error

	// MarkFailed sets terminal FAILED status with the last error detail.
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error

	// Reschedule re-arms a record to PENDING with a future schedule time
	// after a transient failure.
	Reschedule(ctx context.Context, id uuid.UUID, at time.Time, errMsg string) error

	// ListRecentByQueue returns records in the queue created at or after
	// since, newest first. Used by the historical rate limiter.
	ListRecentByQueue(ctx context.Context, queue string, since time.Time) ([]*Record, error)

	// QueueDepths returns, per queue, the count of records still in flight
	// (PENDING or DISPATCHED) and the eligibility instant of the oldest
	// such record.
	QueueDepths(ctx context.Context) ([]QueueDepth, error)

	// WithTx returns a RecordStore bound to the given transaction so an
	// enqueue can commit or roll back together with the domain write that
	// triggered it.
	WithTx(tx *sql.Tx) RecordStore
}

// QueueDepth is the raw per-queue aggregate behind a health snapshot.
type QueueDepth struct {
	Queue     string
	InFlight  int
	OldestAt  time.Time
	HasOldest bool
}
