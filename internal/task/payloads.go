package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotificationType discriminates the notification payload union. Adding a
// type means extending the switch in Validate and every consumer that
// interprets payloads, which the compiler's exhaustiveness conventions keep
// honest.
type NotificationType string

// The five notification variants carried on the notifications-dispatch
// queue.
const (
	NotificationInsightAlert      NotificationType = "INSIGHT_ALERT"
	NotificationModerationNotice  NotificationType = "MODERATION_NOTICE"
	NotificationStreakNudge       NotificationType = "STREAK_NUDGE"
	NotificationWeeklyDigest      NotificationType = "WEEKLY_DIGEST"
	NotificationBiomarkerReminder NotificationType = "BIOMARKER_REMINDER"
)

// Payload validation errors.
var (
	ErrUnknownNotificationType = errors.New("unknown notification type")
	ErrMissingRecipient        = errors.New("notification payload missing recipient")
	ErrMissingUser             = errors.New("payload missing user id")
	ErrMissingJob              = errors.New("payload missing job id")
	ErrEmptyModelPipeline      = errors.New("insight payload needs at least one model")
	ErrMissingIntegration      = errors.New("sync payload missing integration id")
	ErrInvalidSyncReason       = errors.New("invalid sync reason")
)

// InsightGenerationPayload is the insights-generate queue payload. Models
// is the ordered provider pipeline: the dispatcher tries each model in
// turn, so provider failover never needs a second enqueue.
type InsightGenerationPayload struct {
	JobID  uuid.UUID `json:"jobId"`
	UserID uuid.UUID `json:"userId"`
	Models []string  `json:"models"`
}

// Validate checks the payload shape at the persistence boundary.
func (p InsightGenerationPayload) Validate() error {
	if p.JobID == uuid.Nil {
		return ErrMissingJob
	}
	if p.UserID == uuid.Nil {
		return ErrMissingUser
	}
	if len(p.Models) == 0 {
		return ErrEmptyModelPipeline
	}
	return nil
}

// NotificationPayload is the tagged union carried on the
// notifications-dispatch queue. Type selects the variant; the optional
// fields belong to specific variants and are ignored by the rest.
type NotificationPayload struct {
	Type          NotificationType `json:"type"`
	RecipientID   uuid.UUID        `json:"recipientId"`
	RecipientName string           `json:"recipientName"`

	// SendAt defers delivery; nil means deliver on dispatch.
	SendAt *time.Time `json:"sendAt,omitempty"`

	// InsightID accompanies INSIGHT_ALERT.
	InsightID *uuid.UUID `json:"insightId,omitempty"`

	// RoomID and Reason accompany MODERATION_NOTICE.
	RoomID *uuid.UUID `json:"roomId,omitempty"`
	Reason string     `json:"reason,omitempty"`

	// StreakDays accompanies STREAK_NUDGE.
	StreakDays int `json:"streakDays,omitempty"`

	// PeriodStart accompanies WEEKLY_DIGEST.
	PeriodStart *time.Time `json:"periodStart,omitempty"`

	// BiomarkerName accompanies BIOMARKER_REMINDER.
	BiomarkerName string `json:"biomarkerName,omitempty"`
}

// Validate checks the payload shape at the persistence boundary. The
// switch is exhaustive over NotificationType: a new variant fails here
// until it is wired through.
func (p NotificationPayload) Validate() error {
	if p.RecipientID == uuid.Nil {
		return ErrMissingRecipient
	}
	switch p.Type {
	case NotificationInsightAlert:
		if p.InsightID == nil || *p.InsightID == uuid.Nil {
			return fmt.Errorf("INSIGHT_ALERT payload missing insight id")
		}
	case NotificationModerationNotice:
		if p.RoomID == nil || *p.RoomID == uuid.Nil {
			return fmt.Errorf("MODERATION_NOTICE payload missing room id")
		}
	case NotificationStreakNudge:
		if p.StreakDays <= 0 {
			return fmt.Errorf("STREAK_NUDGE payload needs a positive streak length")
		}
	case NotificationWeeklyDigest:
		if p.PeriodStart == nil {
			return fmt.Errorf("WEEKLY_DIGEST payload missing period start")
		}
	case NotificationBiomarkerReminder:
		if p.BiomarkerName == "" {
			return fmt.Errorf("BIOMARKER_REMINDER payload missing biomarker name")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownNotificationType, p.Type)
	}
	return nil
}

// SyncReason tags how a wearable sync was triggered.
type SyncReason string

const (
	SyncReasonManualRetry SyncReason = "manual-retry"
	SyncReasonScheduled   SyncReason = "scheduled"
)

// WearableSyncPayload is the wearable-sync queue payload. Manual retries
// and scheduler sweeps produce the same shape, distinguished only by
// Reason.
type WearableSyncPayload struct {
	IntegrationID   uuid.UUID  `json:"integrationId"`
	Provider        string     `json:"provider"`
	RemoteAccountID string     `json:"remoteAccountId"`
	Reason          SyncReason `json:"reason"`
}

// Validate checks the payload shape at the persistence boundary.
func (p WearableSyncPayload) Validate() error {
	if p.IntegrationID == uuid.Nil {
		return ErrMissingIntegration
	}
	if p.RemoteAccountID == "" {
		return fmt.Errorf("sync payload missing remote account id")
	}
	switch p.Reason {
	case SyncReasonManualRetry, SyncReasonScheduled:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSyncReason, p.Reason)
	}
}
