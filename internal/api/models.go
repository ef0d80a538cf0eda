package api

import (
	"time"

	"github.com/google/uuid"
)

// GenerateInsightsRequest asks for an insight-generation job.
type GenerateInsightsRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// GenerateInsightsResponse reports the created job.
type GenerateInsightsResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
}

// ScheduleNotificationRequest asks for one notification delivery.
type ScheduleNotificationRequest struct {
	Type        string     `json:"type"         validate:"required"`
	RecipientID uuid.UUID  `json:"recipient_id" validate:"required"`
	SendAt      *time.Time `json:"send_at,omitempty"`

	InsightID     *uuid.UUID `json:"insight_id,omitempty"`
	RoomID        *uuid.UUID `json:"room_id,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	StreakDays    int        `json:"streak_days,omitempty"`
	PeriodStart   *time.Time `json:"period_start,omitempty"`
	BiomarkerName string     `json:"biomarker_name,omitempty"`
}

// TaskResponse reports an enqueued task.
type TaskResponse struct {
	TaskID   uuid.UUID `json:"task_id"`
	TaskName string    `json:"task_name"`
	Queue    string    `json:"queue"`
	Status   string    `json:"status"`
}

// DispatchRunResponse reports one drain pass.
type DispatchRunResponse struct {
	Processed int `json:"processed"`
}
