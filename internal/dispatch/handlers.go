package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pulsehealth/pulse-api/internal/domain"
	"github.com/pulsehealth/pulse-api/internal/generation"
	"github.com/pulsehealth/pulse-api/internal/store"
	"github.com/pulsehealth/pulse-api/internal/task"
)

// SummarySource supplies the recent health summary an insight is
// generated from. Owned by the biomarker CRUD layer, external to this
// subsystem.
type SummarySource interface {
	RecentSummary(ctx context.Context, userID uuid.UUID) (string, error)
}

// Mailer delivers a rendered notification. Transactional email is an
// external collaborator; the handler only renders and hands off.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// ProviderClient pulls wearable data from a remote provider account.
type ProviderClient interface {
	Sync(ctx context.Context, provider, remoteAccountID string) error
}

// InsightHandler executes insights-generate tasks: it runs the generator
// over the payload's model pipeline and finishes the linked job row.
type InsightHandler struct {
	jobs      store.InsightJobStore
	generator generation.Generator
	summaries SummarySource
	logger    *slog.Logger
}

// NewInsightHandler builds the insights-generate handler.
func NewInsightHandler(jobs store.InsightJobStore, gen generation.Generator, summaries SummarySource, log *slog.Logger) *InsightHandler {
	return &InsightHandler{
		jobs:      jobs,
		generator: gen,
		summaries: summaries,
		logger:    log.With("component", "insight_handler"),
	}
}

// Handle generates the insight and moves the job to its terminal state.
func (h *InsightHandler) Handle(ctx context.Context, rec *task.Record, env *task.Envelope) error {
	var payload task.InsightGenerationPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal insight payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	if err := h.jobs.UpdateStatus(ctx, payload.JobID, domain.InsightJobRunning, "", ""); err != nil {
		return fmt.Errorf("failed to mark insight job running: %w", err)
	}

	summary, err := h.summaries.RecentSummary(ctx, payload.UserID)
	if err != nil {
		return h.fail(ctx, payload.JobID, fmt.Errorf("failed to load health summary: %w", err))
	}

	insight, err := h.generator.Generate(ctx, generation.InsightRequest{
		UserID:  payload.UserID,
		Summary: summary,
		Models:  payload.Models,
	})
	if err != nil {
		return h.fail(ctx, payload.JobID, err)
	}

	if err := h.jobs.UpdateStatus(ctx, payload.JobID, domain.InsightJobCompleted, insight.Model, ""); err != nil {
		return fmt.Errorf("failed to mark insight job completed: %w", err)
	}

	h.logger.InfoContext(ctx, "insight job completed",
		"job_id", payload.JobID,
		"user_id", payload.UserID,
		"model", insight.Model)
	return nil
}

// fail records the job failure and returns the task error so the retry
// policy takes over. A retried attempt re-arms the job to RUNNING.
func (h *InsightHandler) fail(ctx context.Context, jobID uuid.UUID, cause error) error {
	if err := h.jobs.UpdateStatus(ctx, jobID, domain.InsightJobFailed, "", cause.Error()); err != nil {
		h.logger.ErrorContext(ctx, "failed to record insight job failure",
			"job_id", jobID, "error", err)
	}
	return cause
}

// NotificationHandler executes notifications-dispatch tasks: it renders
// the typed payload and hands it to the mailer. Deferred payloads whose
// send time has not arrived are a scheduling bug upstream, not this
// handler's concern: the claim query already filtered on schedule time.
type NotificationHandler struct {
	mailer Mailer
	logger *slog.Logger
}

// NewNotificationHandler builds the notifications-dispatch handler.
func NewNotificationHandler(mailer Mailer, log *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		mailer: mailer,
		logger: log.With("component", "notification_handler"),
	}
}

// Handle renders and sends one notification.
func (h *NotificationHandler) Handle(ctx context.Context, rec *task.Record, env *task.Envelope) error {
	var payload task.NotificationPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal notification payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	subject, body := renderNotification(payload)
	if err := h.mailer.Send(ctx, payload.RecipientID.String(), subject, body); err != nil {
		return fmt.Errorf("failed to send %s notification: %w", payload.Type, err)
	}

	h.logger.InfoContext(ctx, "notification delivered",
		"type", payload.Type,
		"recipient_id", payload.RecipientID)
	return nil
}

// renderNotification maps each payload variant to its template. The switch
// is exhaustive over the union; Validate has already rejected unknown
// types.
func renderNotification(p task.NotificationPayload) (subject, body string) {
	switch p.Type {
	case task.NotificationInsightAlert:
		return "A new insight is ready",
			fmt.Sprintf("Hi %s, we spotted something new in your data. Insight: %s", p.RecipientName, p.InsightID)
	case task.NotificationModerationNotice:
		return "About your recent community post",
			fmt.Sprintf("Hi %s, a moderator reviewed activity in one of your rooms: %s", p.RecipientName, p.Reason)
	case task.NotificationStreakNudge:
		return fmt.Sprintf("Keep your %d-day streak going", p.StreakDays),
			fmt.Sprintf("Hi %s, you're on a %d-day tracking streak. One quick log keeps it alive.", p.RecipientName, p.StreakDays)
	case task.NotificationWeeklyDigest:
		return "Your week in review",
			fmt.Sprintf("Hi %s, here's how your week starting %s went.", p.RecipientName, p.PeriodStart.Format("Jan 2"))
	case task.NotificationBiomarkerReminder:
		return fmt.Sprintf("Time to log your %s", p.BiomarkerName),
			fmt.Sprintf("Hi %s, it's been a while since your last %s entry.", p.RecipientName, p.BiomarkerName)
	default:
		return "Notification", fmt.Sprintf("Hi %s, you have a new notification.", p.RecipientName)
	}
}

// WearableHandler executes wearable-sync tasks: it pulls from the provider
// and records the completed sync on the integration.
type WearableHandler struct {
	client       ProviderClient
	integrations store.WearableIntegrationStore
	logger       *slog.Logger
	now          func() time.Time
}

// NewWearableHandler builds the wearable-sync handler.
func NewWearableHandler(client ProviderClient, integrations store.WearableIntegrationStore, log *slog.Logger) *WearableHandler {
	return &WearableHandler{
		client:       client,
		integrations: integrations,
		logger:       log.With("component", "wearable_handler"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Handle runs one provider sync.
func (h *WearableHandler) Handle(ctx context.Context, rec *task.Record, env *task.Envelope) error {
	var payload task.WearableSyncPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal sync payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	if err := h.client.Sync(ctx, payload.Provider, payload.RemoteAccountID); err != nil {
		return fmt.Errorf("provider sync failed for %s: %w", payload.Provider, err)
	}

	if err := h.integrations.TouchSynced(ctx, payload.IntegrationID, h.now()); err != nil {
		return fmt.Errorf("failed to record completed sync: %w", err)
	}

	h.logger.InfoContext(ctx, "wearable sync completed",
		"integration_id", payload.IntegrationID,
		"provider", payload.Provider,
		"reason", payload.Reason)
	return nil
}
