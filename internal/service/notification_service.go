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

// NotificationService is the producer for the notifications-dispatch
// queue: it resolves the recipient, enforces the historical per-type rate
// limit, and enqueues a typed payload.
type NotificationService struct {
	records  task.RecordStore
	profiles store.ProfileStore
	limiter  *historyLimiter
	now      func() time.Time
}

// NewNotificationService builds the notification producer.
func NewNotificationService(records task.RecordStore, profiles store.ProfileStore) *NotificationService {
	now := func() time.Time { return time.Now().UTC() }
	return &NotificationService{
		records:  records,
		profiles: profiles,
		limiter:  &historyLimiter{records: records, now: now},
		now:      now,
	}
}

// WithClock substitutes the clock, for tests.
func (s *NotificationService) WithClock(now func() time.Time) *NotificationService {
	s.now = now
	s.limiter.now = now
	return s
}

// Schedule enqueues one notification. The payload's recipient fields are
// filled from the resolved profile; SendAt, when set, becomes the task's
// schedule time for deferred delivery.
func (s *NotificationService) Schedule(ctx context.Context, payload task.NotificationPayload) (*task.Record, error) {
	log := logger.FromContext(ctx)

	profile, err := s.profiles.GetByID(ctx, payload.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve notification recipient: %w", err)
	}
	payload.RecipientName = profile.DisplayName

	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("invalid notification payload: %w", err)
	}

	if err := s.limiter.enforce(ctx, payload.RecipientID, payload.Type); err != nil {
		return nil, err
	}

	rec, err := task.Enqueue(ctx, s.records, task.QueueNotificationsDispatch, payload, task.EnqueueOptions{
		Subject:      fmt.Sprintf("%s-%s", payload.Type, payload.RecipientID),
		ScheduleTime: payload.SendAt,
		Now:          s.now(),
	})
	if err != nil {
		return nil, err
	}

	log.Info("notification scheduled",
		"type", payload.Type,
		"recipient_id", payload.RecipientID,
		"task_name", rec.TaskName,
		"deferred", payload.SendAt != nil)
	return rec, nil
}

// ScheduleInsightAlert notifies a recipient that a new insight is ready.
func (s *NotificationService) ScheduleInsightAlert(ctx context.Context, recipientID, insightID uuid.UUID) (*task.Record, error) {
	return s.Schedule(ctx, task.NotificationPayload{
		Type:        task.NotificationInsightAlert,
		RecipientID: recipientID,
		InsightID:   &insightID,
	})
}

// ScheduleModerationNotice notifies a recipient of a moderation action in
// a community room.
func (s *NotificationService) ScheduleModerationNotice(ctx context.Context, recipientID, roomID uuid.UUID, reason string) (*task.Record, error) {
	return s.Schedule(ctx, task.NotificationPayload{
		Type:        task.NotificationModerationNotice,
		RecipientID: recipientID,
		RoomID:      &roomID,
		Reason:      reason,
	})
}

// ScheduleStreakNudge nudges a recipient about their tracking streak,
// optionally deferred to sendAt.
func (s *NotificationService) ScheduleStreakNudge(ctx context.Context, recipientID uuid.UUID, streakDays int, sendAt *time.Time) (*task.Record, error) {
	return s.Schedule(ctx, task.NotificationPayload{
		Type:        task.NotificationStreakNudge,
		RecipientID: recipientID,
		StreakDays:  streakDays,
		SendAt:      sendAt,
	})
}
