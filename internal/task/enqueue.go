package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pulsehealth/pulse-api/internal/platform/logger"
	"github.com/pulsehealth/pulse-api/internal/store"
)

// Enqueue validation errors.
var (
	ErrEmptyQueue   = errors.New("queue name cannot be empty")
	ErrNilPayload   = errors.New("payload cannot be nil")
	ErrEmptySubject = errors.New("subject cannot be empty when task name is derived")
)

// Envelope is the opaque document persisted in the payload column. It
// carries the producer's typed payload alongside the retry policy snapshot
// active at enqueue time.
type Envelope struct {
	Payload json.RawMessage `json:"payload"`
	Retry   RetryPolicy     `json:"retry"`
}

// EnqueueOptions tunes a single enqueue call.
type EnqueueOptions struct {
	// TaskName overrides the derived idempotency key. Callers that need
	// strict idempotency across retried requests must set it explicitly.
	TaskName string

	// Subject feeds the derived task name when TaskName is unset.
	Subject string

	// ScheduleTime defers eligibility; nil means eligible immediately.
	ScheduleTime *time.Time

	// JobID links the record to a richer domain job row, when one exists.
	JobID *uuid.UUID

	// Now substitutes the clock, for tests. Zero means time.Now.
	Now time.Time
}

// Enqueue inserts a task record with fire-and-forget semantics: the single
// insert is the only side effect, and the store is the only channel to the
// dispatcher. A second enqueue with the same task name is a no-op that
// returns the existing record; it never aborts the caller's transaction.
//
// Pass a store bound to the caller's transaction (RecordStore.WithTx) when
// the enqueue must commit or roll back together with a domain write.
func Enqueue(ctx context.Context, s RecordStore, queue string, payload any, opts EnqueueOptions) (*Record, error) {
	log := logger.FromContext(ctx)

	if queue == "" {
		return nil, ErrEmptyQueue
	}
	if payload == nil {
		return nil, ErrNilPayload
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	taskName := opts.TaskName
	if taskName == "" {
		if opts.Subject == "" {
			return nil, ErrEmptySubject
		}
		taskName = DeriveTaskName(queue, opts.Subject, now)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task payload: %w", err)
	}

	envelope, err := json.Marshal(Envelope{
		Payload: data,
		Retry:   PolicyForQueue(queue),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload envelope: %w", err)
	}

	rec := &Record{
		ID:           uuid.New(),
		TaskName:     taskName,
		Queue:        queue,
		Status:       StatusPending,
		JobID:        opts.JobID,
		Payload:      envelope,
		ScheduleTime: opts.ScheduleTime,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Insert(ctx, rec)
	if err == nil {
		log.Debug("task enqueued",
			"queue", queue,
			"task_name", taskName,
			"task_id", rec.ID)
		return rec, nil
	}

	// A duplicate task name is the idempotency mechanism working, not a
	// failure: hand back the record already in the store.
	if errors.Is(err, store.ErrTaskNameExists) {
		existing, getErr := s.GetByName(ctx, taskName)
		if getErr != nil {
			return nil, fmt.Errorf("task %q already enqueued but could not be loaded: %w", taskName, getErr)
		}
		log.Debug("task already enqueued, returning existing record",
			"queue", queue,
			"task_name", taskName,
			"task_id", existing.ID)
		return existing, nil
	}

	return nil, fmt.Errorf("failed to enqueue task on %q: %w", queue, err)
}

// DeriveTaskName builds the default idempotency key from the queue, a
// stable subject identifier, and a coarse (second-resolution) creation
// timestamp, so retried requests for the same subject within the same
// second collapse to one record.
func DeriveTaskName(queue, subject string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%d", queue, subject, at.Unix())
}

// OpenEnvelope splits a persisted payload column back into the producer
// payload and the retry policy snapshot recorded at enqueue time.
func OpenEnvelope(raw json.RawMessage) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload envelope: %w", err)
	}
	if env.Retry.MaxAttempts <= 0 {
		return nil, fmt.Errorf("payload envelope missing retry policy snapshot")
	}
	return &env, nil
}
