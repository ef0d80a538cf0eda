package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pulsehealth/pulse-api/internal/api/shared"
	"github.com/pulsehealth/pulse-api/internal/domain"
	"github.com/pulsehealth/pulse-api/internal/task"
)

// InsightRequester is the slice of the insight service the handler needs.
type InsightRequester interface {
	RequestGeneration(ctx context.Context, userID uuid.UUID) (*domain.InsightJob, error)
}

// NotificationScheduler is the slice of the notification service the
// handler needs.
type NotificationScheduler interface {
	Schedule(ctx context.Context, payload task.NotificationPayload) (*task.Record, error)
}

// SyncRequester is the slice of the wearable service the handler needs.
type SyncRequester interface {
	RequestSync(ctx context.Context, integrationID uuid.UUID, reason task.SyncReason) (*task.Record, error)
}

// DispatchRunner is the slice of the dispatcher the handler needs.
type DispatchRunner interface {
	RunOnce(ctx context.Context) (int, error)
}

// InsightsHandler serves the insight-generation producer.
type InsightsHandler struct {
	insights InsightRequester
	validate *validator.Validate
}

// NewInsightsHandler creates the handler.
func NewInsightsHandler(insights InsightRequester) *InsightsHandler {
	return &InsightsHandler{insights: insights, validate: validator.New()}
}

// GenerateInsights handles POST /insights/generations.
func (h *InsightsHandler) GenerateInsights(w http.ResponseWriter, r *http.Request) {
	var req GenerateInsightsRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	job, err := h.insights.RequestGeneration(r.Context(), req.UserID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, GenerateInsightsResponse{
		JobID:  job.ID,
		Status: string(job.Status),
	})
}

// NotificationsHandler serves the notification producer.
type NotificationsHandler struct {
	notifications NotificationScheduler
	validate      *validator.Validate
}

// NewNotificationsHandler creates the handler.
func NewNotificationsHandler(notifications NotificationScheduler) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications, validate: validator.New()}
}

// ScheduleNotification handles POST /notifications.
func (h *NotificationsHandler) ScheduleNotification(w http.ResponseWriter, r *http.Request) {
	var req ScheduleNotificationRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	rec, err := h.notifications.Schedule(r.Context(), task.NotificationPayload{
		Type:          task.NotificationType(req.Type),
		RecipientID:   req.RecipientID,
		SendAt:        req.SendAt,
		InsightID:     req.InsightID,
		RoomID:        req.RoomID,
		Reason:        req.Reason,
		StreakDays:    req.StreakDays,
		PeriodStart:   req.PeriodStart,
		BiomarkerName: req.BiomarkerName,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, taskResponse(rec))
}

// WearablesHandler serves the wearable-sync producer's manual-retry path.
type WearablesHandler struct {
	wearables SyncRequester
}

// NewWearablesHandler creates the handler.
func NewWearablesHandler(wearables SyncRequester) *WearablesHandler {
	return &WearablesHandler{wearables: wearables}
}

// RequestSync handles POST /integrations/{integrationID}/sync.
func (h *WearablesHandler) RequestSync(w http.ResponseWriter, r *http.Request) {
	integrationID, err := uuid.Parse(chi.URLParam(r, "integrationID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid integration id", "BAD_REQUEST")
		return
	}

	rec, err := h.wearables.RequestSync(r.Context(), integrationID, task.SyncReasonManualRetry)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, taskResponse(rec))
}

// HealthHandler serves queue health for liveness probes.
type HealthHandler struct {
	reporter *task.HealthReporter
}

// NewHealthHandler creates the handler.
func NewHealthHandler(reporter *task.HealthReporter) *HealthHandler {
	return &HealthHandler{reporter: reporter}
}

// Healthz handles GET /healthz. A degraded snapshot still answers 200:
// the process is alive even when the depth query is not.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.reporter.Snapshot(r.Context()))
}

// DispatchHandler exposes the drain entry point the external scheduler
// calls.
type DispatchHandler struct {
	runner DispatchRunner
}

// NewDispatchHandler creates the handler.
func NewDispatchHandler(runner DispatchRunner) *DispatchHandler {
	return &DispatchHandler{runner: runner}
}

// Run handles POST /internal/dispatch/run.
func (h *DispatchHandler) Run(w http.ResponseWriter, r *http.Request) {
	processed, err := h.runner.RunOnce(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, DispatchRunResponse{Processed: processed})
}

func taskResponse(rec *task.Record) TaskResponse {
	return TaskResponse{
		TaskID:   rec.ID,
		TaskName: rec.TaskName,
		Queue:    rec.Queue,
		Status:   string(rec.Status),
	}
}

// decodeAndValidate decodes the JSON body into dst and applies struct
// validation, writing the error response itself on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	if err := v.Struct(dst); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error(), "VALIDATION_FAILED")
		return false
	}
	return true
}
