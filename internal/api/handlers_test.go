package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsehealth/pulse-api/internal/api"
	"github.com/pulsehealth/pulse-api/internal/api/shared"
	"github.com/pulsehealth/pulse-api/internal/domain"
	"github.com/pulsehealth/pulse-api/internal/mocks"
	"github.com/pulsehealth/pulse-api/internal/service"
	"github.com/pulsehealth/pulse-api/internal/task"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubInsights struct {
	job *domain.InsightJob
	err error
}

func (s *stubInsights) RequestGeneration(ctx context.Context, userID uuid.UUID) (*domain.InsightJob, error) {
	return s.job, s.err
}

type stubNotifications struct {
	rec *task.Record
	err error
}

func (s *stubNotifications) Schedule(ctx context.Context, payload task.NotificationPayload) (*task.Record, error) {
	return s.rec, s.err
}

type stubWearables struct {
	rec *task.Record
	err error
}

func (s *stubWearables) RequestSync(ctx context.Context, integrationID uuid.UUID, reason task.SyncReason) (*task.Record, error) {
	return s.rec, s.err
}

type stubRunner struct {
	processed int
	err       error
}

func (s *stubRunner) RunOnce(ctx context.Context) (int, error) {
	return s.processed, s.err
}

func postJSON(t *testing.T, h http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) shared.ErrorDetail {
	t.Helper()
	var body shared.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestInsightsHandler_GenerateInsights(t *testing.T) {
	t.Parallel()

	job := domain.NewInsightJob(uuid.New())
	h := api.NewInsightsHandler(&stubInsights{job: job})

	rr := postJSON(t, h.GenerateInsights, "/api/insights/generations",
		api.GenerateInsightsRequest{UserID: job.UserID})
	require.Equal(t, http.StatusAccepted, rr.Code)

	var resp api.GenerateInsightsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, job.ID, resp.JobID)
	assert.Equal(t, string(domain.InsightJobQueued), resp.Status)
}

func TestInsightsHandler_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"active job conflict", service.ErrJobAlreadyActive, http.StatusConflict, "JOB_ALREADY_ACTIVE"},
		{"daily cap", service.ErrDailyJobCapReached, http.StatusTooManyRequests, "INSIGHTS_DAILY_CAP_REACHED"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := api.NewInsightsHandler(&stubInsights{err: tt.err})
			rr := postJSON(t, h.GenerateInsights, "/api/insights/generations",
				api.GenerateInsightsRequest{UserID: uuid.New()})
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rr).Code)
		})
	}
}

func TestInsightsHandler_BadRequest(t *testing.T) {
	t.Parallel()

	h := api.NewInsightsHandler(&stubInsights{})

	req := httptest.NewRequest(http.MethodPost, "/api/insights/generations", bytes.NewReader([]byte("{")))
	rr := httptest.NewRecorder()
	h.GenerateInsights(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Missing user id fails struct validation.
	rr = postJSON(t, h.GenerateInsights, "/api/insights/generations", api.GenerateInsightsRequest{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_FAILED", decodeError(t, rr).Code)
}

func TestNotificationsHandler_ScheduleNotification(t *testing.T) {
	t.Parallel()

	rec := &task.Record{
		ID:       uuid.New(),
		TaskName: "notifications-dispatch-x",
		Queue:    task.QueueNotificationsDispatch,
		Status:   task.StatusPending,
	}
	h := api.NewNotificationsHandler(&stubNotifications{rec: rec})

	insightID := uuid.New()
	rr := postJSON(t, h.ScheduleNotification, "/api/notifications", api.ScheduleNotificationRequest{
		Type:        string(task.NotificationInsightAlert),
		RecipientID: uuid.New(),
		InsightID:   &insightID,
	})
	require.Equal(t, http.StatusAccepted, rr.Code)

	var resp api.TaskResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, rec.ID, resp.TaskID)
	assert.Equal(t, rec.TaskName, resp.TaskName)
	assert.Equal(t, string(task.StatusPending), resp.Status)
}

func TestNotificationsHandler_RateLimited(t *testing.T) {
	t.Parallel()

	rle := &service.RateLimitError{
		Code:          "NOTIFICATION_RATE_LIMITED",
		Type:          string(task.NotificationInsightAlert),
		RecipientID:   uuid.New().String(),
		Limit:         3,
		WindowMinutes: 60,
	}
	h := api.NewNotificationsHandler(&stubNotifications{err: rle})

	insightID := uuid.New()
	rr := postJSON(t, h.ScheduleNotification, "/api/notifications", api.ScheduleNotificationRequest{
		Type:        string(task.NotificationInsightAlert),
		RecipientID: uuid.New(),
		InsightID:   &insightID,
	})
	require.Equal(t, http.StatusTooManyRequests, rr.Code)

	detail := decodeError(t, rr)
	assert.Equal(t, "NOTIFICATION_RATE_LIMITED", detail.Code)
	require.NotNil(t, detail.Details)
}

func TestWearablesHandler_RequestSync(t *testing.T) {
	t.Parallel()

	integrationID := uuid.New()
	rec := &task.Record{
		ID:       uuid.New(),
		TaskName: "wearable-sync-acct",
		Queue:    task.QueueWearableSync,
		Status:   task.StatusPending,
	}

	router := chi.NewRouter()
	h := api.NewWearablesHandler(&stubWearables{rec: rec})
	router.Post("/api/integrations/{integrationID}/sync", h.RequestSync)

	req := httptest.NewRequest(http.MethodPost, "/api/integrations/"+integrationID.String()+"/sync", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusAccepted, rr.Code)

	var resp api.TaskResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, task.QueueWearableSync, resp.Queue)
}

func TestWearablesHandler_InvalidID(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()
	h := api.NewWearablesHandler(&stubWearables{})
	router.Post("/api/integrations/{integrationID}/sync", h.RequestSync)

	req := httptest.NewRequest(http.MethodPost, "/api/integrations/not-a-uuid/sync", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWearablesHandler_SyncNotDue(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()
	h := api.NewWearablesHandler(&stubWearables{err: service.ErrIntegrationFresh})
	router.Post("/api/integrations/{integrationID}/sync", h.RequestSync)

	req := httptest.NewRequest(http.MethodPost, "/api/integrations/"+uuid.NewString()+"/sync", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "SYNC_NOT_DUE", decodeError(t, rr).Code)
}

func TestHealthHandler_Healthz(t *testing.T) {
	t.Parallel()

	t.Run("healthy", func(t *testing.T) {
		t.Parallel()
		h := api.NewHealthHandler(task.NewHealthReporter(mocks.NewRecordStore(), discardLogger()))
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()
		h.Healthz(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var snap task.HealthSnapshot
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
		assert.False(t, snap.Degraded)
	})

	t.Run("degraded store still answers 200", func(t *testing.T) {
		t.Parallel()
		s := mocks.NewRecordStore()
		s.DepthsErr = errors.New("connection refused")

		h := api.NewHealthHandler(task.NewHealthReporter(s, discardLogger()))
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()
		h.Healthz(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var snap task.HealthSnapshot
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
		assert.True(t, snap.Degraded)
	})
}

func TestDispatchHandler_Run(t *testing.T) {
	t.Parallel()

	h := api.NewDispatchHandler(&stubRunner{processed: 7})
	req := httptest.NewRequest(http.MethodPost, "/api/internal/dispatch/run", nil)
	rr := httptest.NewRecorder()
	h.Run(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp api.DispatchRunResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.Processed)
}

func TestDispatchHandler_RunFailure(t *testing.T) {
	t.Parallel()

	h := api.NewDispatchHandler(&stubRunner{err: errors.New("claim failed")})
	req := httptest.NewRequest(http.MethodPost, "/api/internal/dispatch/run", nil)
	rr := httptest.NewRecorder()
	h.Run(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
