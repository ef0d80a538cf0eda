package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pulsehealth/pulse-api/internal/redact"
)

// DeadLetterEvent is the alert event name fired exactly once when a task
// exhausts its retry budget.
const DeadLetterEvent = "task.dead_letter"

// Alerter is the external alerting collaborator invoked on permanent
// dead-letter.
type Alerter interface {
	Notify(ctx context.Context, event string, payload map[string]any)
}

// ErrNilRecord is returned when an outcome is reported for a nil record.
var ErrNilRecord = errors.New("task record cannot be nil")

// Outcomes applies dispatcher-reported results to the record store,
// honoring the retry policy snapshot embedded in each record's payload:
// transient failures re-arm the row with exponential backoff until the
// attempt budget is spent, then the row is dead-lettered.
type Outcomes struct {
	store   RecordStore
	alerter Alerter
	logger  *slog.Logger
	now     func() time.Time
}

// NewOutcomes builds an outcome reporter. The alerter may be nil, in which
// case dead-letters are only logged.
func NewOutcomes(s RecordStore, alerter Alerter, log *slog.Logger) *Outcomes {
	return &Outcomes{
		store:   s,
		alerter: alerter,
		logger:  log.With("component", "task_outcomes"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock substitutes the clock, for tests.
func (o *Outcomes) WithClock(now func() time.Time) *Outcomes {
	o.now = now
	return o
}

// ReportSuccess marks the record SUCCEEDED and clears its error message.
func (o *Outcomes) ReportSuccess(ctx context.Context, rec *Record) error {
	if rec == nil {
		return ErrNilRecord
	}
	if err := o.store.MarkSucceeded(ctx, rec.ID); err != nil {
		return fmt.Errorf("failed to mark task %q succeeded: %w", rec.TaskName, err)
	}
	o.logger.Info("task succeeded",
		"queue", rec.Queue,
		"task_name", rec.TaskName,
		"attempt", rec.AttemptCount)
	return nil
}

// ReportFailure records one failed attempt. If the retry policy still has
// budget, the record is returned to PENDING with its schedule time advanced
// by the policy's backoff for this attempt; otherwise it is marked FAILED
// permanently and the dead-letter alert fires once.
//
// rec.AttemptCount must already reflect the attempt that just failed (the
// claim path increments it).
func (o *Outcomes) ReportFailure(ctx context.Context, rec *Record, taskErr error) error {
	if rec == nil {
		return ErrNilRecord
	}

	// Messages are persisted and alerted on; scrub credentials and
	// addresses a provider error may carry.
	errMsg := "unknown error"
	if taskErr != nil {
		errMsg = redact.Error(taskErr)
	}

	env, err := OpenEnvelope(rec.Payload)
	if err != nil {
		// A record whose envelope cannot be read cannot be retried safely.
		return o.deadLetter(ctx, rec, fmt.Sprintf("unreadable payload envelope: %v (last error: %s)", err, errMsg))
	}

	if env.Retry.Exhausted(rec.AttemptCount) {
		return o.deadLetter(ctx, rec, errMsg)
	}

	delay := env.Retry.Backoff(rec.AttemptCount)
	at := o.now().Add(delay)
	if err := o.store.Reschedule(ctx, rec.ID, at, errMsg); err != nil {
		return fmt.Errorf("failed to reschedule task %q: %w", rec.TaskName, err)
	}

	o.logger.Warn("task attempt failed, rescheduled",
		"queue", rec.Queue,
		"task_name", rec.TaskName,
		"attempt", rec.AttemptCount,
		"max_attempts", env.Retry.MaxAttempts,
		"retry_in", delay.String(),
		"error", errMsg)
	return nil
}

func (o *Outcomes) deadLetter(ctx context.Context, rec *Record, errMsg string) error {
	if err := o.store.MarkFailed(ctx, rec.ID, errMsg); err != nil {
		return fmt.Errorf("failed to mark task %q failed: %w", rec.TaskName, err)
	}

	o.logger.Error("task dead-lettered",
		"queue", rec.Queue,
		"task_name", rec.TaskName,
		"attempts", rec.AttemptCount,
		"error", errMsg)

	if o.alerter != nil {
		o.alerter.Notify(ctx, DeadLetterEvent, map[string]any{
			"queue":     rec.Queue,
			"task_name": rec.TaskName,
			"attempts":  rec.AttemptCount,
			"error":     errMsg,
		})
	}
	return nil
}
