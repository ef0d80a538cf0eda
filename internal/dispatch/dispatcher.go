// Package dispatch is the thin worker that drains the task queues: it
// claims due PENDING records, executes the matching handler, and reports
// outcomes back through the task core. It owns no scheduling of its own;
// an external scheduler (cron in-process, or an ops endpoint) invokes
// RunOnce.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pulsehealth/pulse-api/internal/task"
)

// Handler executes one claimed task. Returning nil marks the record
// SUCCEEDED; returning an error counts one failed attempt under the
// record's retry policy.
type Handler interface {
	Handle(ctx context.Context, rec *task.Record, env *task.Envelope) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, rec *task.Record, env *task.Envelope) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, rec *task.Record, env *task.Envelope) error {
	return f(ctx, rec, env)
}

// DefaultBatchSize bounds how many records one RunOnce claims per queue.
const DefaultBatchSize = 25

// Dispatcher drains registered queues against the record store.
type Dispatcher struct {
	records   task.RecordStore
	outcomes  *task.Outcomes
	handlers  map[string]Handler
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

// NewDispatcher builds a dispatcher. batchSize <= 0 selects
// DefaultBatchSize.
func NewDispatcher(records task.RecordStore, outcomes *task.Outcomes, batchSize int, log *slog.Logger) *Dispatcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Dispatcher{
		records:   records,
		outcomes:  outcomes,
		handlers:  make(map[string]Handler),
		batchSize: batchSize,
		logger:    log.With("component", "dispatcher"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock substitutes the clock, for tests.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Register binds a handler to a queue. Registering a queue twice is a
// wiring bug and panics at startup.
func (d *Dispatcher) Register(queue string, h Handler) {
	if _, dup := d.handlers[queue]; dup {
		panic(fmt.Sprintf("dispatch: handler already registered for queue %q", queue))
	}
	d.handlers[queue] = h
}

// RunOnce claims and executes one batch per registered queue, returning
// how many records were processed. Handler failures are reported as task
// outcomes, not returned; only claim/report infrastructure errors surface.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	processed := 0
	for queue, handler := range d.handlers {
		n, err := d.drainQueue(ctx, queue, handler)
		processed += n
		if err != nil {
			return processed, fmt.Errorf("failed to drain queue %q: %w", queue, err)
		}
	}
	return processed, nil
}

func (d *Dispatcher) drainQueue(ctx context.Context, queue string, handler Handler) (int, error) {
	claimed, err := d.records.ClaimDue(ctx, queue, d.now(), d.batchSize)
	if err != nil {
		return 0, err
	}
	if len(claimed) == 0 {
		return 0, nil
	}

	d.logger.Debug("claimed task batch", "queue", queue, "count", len(claimed))

	for i, rec := range claimed {
		if err := ctx.Err(); err != nil {
			// Records before i already ran; the count must reflect them.
			return i, err
		}
		d.execute(ctx, rec, handler)
	}
	return len(claimed), nil
}

func (d *Dispatcher) execute(ctx context.Context, rec *task.Record, handler Handler) {
	log := d.logger.With(
		"queue", rec.Queue,
		"task_name", rec.TaskName,
		"attempt", rec.AttemptCount)

	env, err := task.OpenEnvelope(rec.Payload)
	if err != nil {
		// Unreadable envelopes go straight to the outcome path, which
		// dead-letters them.
		if repErr := d.outcomes.ReportFailure(ctx, rec, err); repErr != nil {
			log.Error("failed to report envelope failure", "error", repErr)
		}
		return
	}

	if err := handler.Handle(ctx, rec, env); err != nil {
		if repErr := d.outcomes.ReportFailure(ctx, rec, err); repErr != nil {
			log.Error("failed to report task failure", "error", repErr)
		}
		return
	}

	if err := d.outcomes.ReportSuccess(ctx, rec); err != nil {
		log.Error("failed to report task success", "error", err)
	}
}
