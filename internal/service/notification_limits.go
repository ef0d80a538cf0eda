package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pulsehealth/pulse-api/internal/platform/logger"
	"github.com/pulsehealth/pulse-api/internal/task"
)

// NotificationLimit caps deliveries of one notification type per recipient
// within a rolling window.
type NotificationLimit struct {
	Limit         int
	WindowMinutes int
}

// notificationLimits is the static per-type policy table. Types absent
// from the table are ungoverned: they are internal traffic the product
// does not throttle (BIOMARKER_REMINDER today).
var notificationLimits = map[task.NotificationType]NotificationLimit{
	task.NotificationInsightAlert:     {Limit: 3, WindowMinutes: 60},
	task.NotificationModerationNotice: {Limit: 5, WindowMinutes: 1440},
	task.NotificationStreakNudge:      {Limit: 2, WindowMinutes: 120},
	task.NotificationWeeklyDigest:     {Limit: 1, WindowMinutes: 10080},
}

// LimitFor returns the limit configured for the type, if any.
func LimitFor(t task.NotificationType) (NotificationLimit, bool) {
	l, ok := notificationLimits[t]
	return l, ok
}

// historyLimiter rate-limits notification enqueues by reconstructing
// recent activity from the task record store instead of keeping a
// dedicated counter table.
//
// The scan is O(rows in window) over the whole notifications queue, not
// just the one recipient's rows: acceptable at current per-type volumes,
// but the cost grows with overall queue traffic. Two concurrent requests
// can also both observe count == limit-1 and both pass, overshooting the
// cap by one. Both properties are part of the documented contract (this
// is a courtesy ceiling, not a hard bound) so neither gets "fixed" here.
type historyLimiter struct {
	records task.RecordStore
	now     func() time.Time
}

// enforce fails with a RateLimitError when the recipient has already
// reached the type's cap inside the rolling window. Unknown types pass
// untouched. A store failure fails the request: the task record store is
// authoritative, and if it is down the whole producer path is unusable
// anyway.
func (h *historyLimiter) enforce(ctx context.Context, recipientID uuid.UUID, nType task.NotificationType) error {
	limit, governed := LimitFor(nType)
	if !governed {
		return nil
	}

	log := logger.FromContext(ctx)
	now := h.now()
	since := now.Add(-time.Duration(limit.WindowMinutes) * time.Minute)

	recent, err := h.records.ListRecentByQueue(ctx, task.QueueNotificationsDispatch, since)
	if err != nil {
		return fmt.Errorf("failed to query notification history: %w", err)
	}

	count := 0
	for _, rec := range recent {
		payload, err := openNotificationPayload(rec.Payload)
		if err != nil {
			// A row this producer cannot read is someone else's bug, not a
			// reason to block this recipient.
			log.Warn("skipping unreadable notification payload in history scan",
				"task_name", rec.TaskName, "error", err)
			continue
		}
		if payload.Type == nType && payload.RecipientID == recipientID {
			count++
		}
	}

	if count >= limit.Limit {
		log.Warn("notification rate limit reached",
			"type", nType,
			"recipient_id", recipientID,
			"limit", limit.Limit,
			"window_minutes", limit.WindowMinutes)
		return &RateLimitError{
			Code:          "NOTIFICATION_RATE_LIMITED",
			Type:          string(nType),
			RecipientID:   recipientID.String(),
			Limit:         limit.Limit,
			WindowMinutes: limit.WindowMinutes,
		}
	}
	return nil
}

// openNotificationPayload unwraps a task record's envelope and validates
// the notification payload it carries.
func openNotificationPayload(raw json.RawMessage) (*task.NotificationPayload, error) {
	env, err := task.OpenEnvelope(raw)
	if err != nil {
		return nil, err
	}
	var payload task.NotificationPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return &payload, nil
}
