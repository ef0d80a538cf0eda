package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pulsehealth/pulse-api/internal/platform/logger"
	"github.com/pulsehealth/pulse-api/internal/store"
	"github.com/pulsehealth/pulse-api/internal/task"
)

// WearableService is the producer for the wearable-sync queue. Manual
// retries and the periodic scheduler sweep enqueue the same payload shape,
// distinguished only by the reason tag.
type WearableService struct {
	records      task.RecordStore
	integrations store.WearableIntegrationStore

	// staleness is how long an integration may go without a completed sync
	// before the scheduled sweep picks it up.
	staleness time.Duration

	now func() time.Time
}

// NewWearableService builds the wearable-sync producer.
func NewWearableService(records task.RecordStore, integrations store.WearableIntegrationStore, staleness time.Duration) *WearableService {
	return &WearableService{
		records:      records,
		integrations: integrations,
		staleness:    staleness,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock substitutes the clock, for tests.
func (s *WearableService) WithClock(now func() time.Time) *WearableService {
	s.now = now
	return s
}

// RequestSync enqueues a sync task for the integration. Manual retries
// always enqueue; scheduled requests are dropped with ErrIntegrationFresh
// when the integration synced within the staleness threshold.
func (s *WearableService) RequestSync(ctx context.Context, integrationID uuid.UUID, reason task.SyncReason) (*task.Record, error) {
	log := logger.FromContext(ctx)

	integ, err := s.integrations.GetByID(ctx, integrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve wearable integration: %w", err)
	}

	now := s.now()
	if reason == task.SyncReasonScheduled && !integ.Stale(now, s.staleness) {
		return nil, ErrIntegrationFresh
	}

	payload := task.WearableSyncPayload{
		IntegrationID:   integ.ID,
		Provider:        integ.Provider,
		RemoteAccountID: integ.RemoteAccountID,
		Reason:          reason,
	}
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sync payload: %w", err)
	}

	rec, err := task.Enqueue(ctx, s.records, task.QueueWearableSync, payload, task.EnqueueOptions{
		Subject: integ.RemoteAccountID,
		Now:     now,
	})
	if err != nil {
		return nil, err
	}

	log.Info("wearable sync requested",
		"integration_id", integ.ID,
		"provider", integ.Provider,
		"reason", reason,
		"task_name", rec.TaskName)
	return rec, nil
}

// SweepDue enqueues scheduled syncs for every integration past the
// staleness threshold. Returns how many tasks were enqueued. Called by the
// periodic scheduler.
func (s *WearableService) SweepDue(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	staleBefore := s.now().Add(-s.staleness)
	due, err := s.integrations.ListSyncDue(ctx, staleBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to list sync-due integrations: %w", err)
	}

	enqueued := 0
	for _, integ := range due {
		if _, err := s.RequestSync(ctx, integ.ID, task.SyncReasonScheduled); err != nil {
			// One bad integration must not starve the rest of the sweep.
			log.Error("failed to enqueue scheduled sync",
				"integration_id", integ.ID, "error", err)
			continue
		}
		enqueued++
	}

	log.Info("wearable sync sweep finished", "due", len(due), "enqueued", enqueued)
	return enqueued, nil
}
