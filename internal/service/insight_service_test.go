package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsehealth/pulse-api/internal/domain"
	"github.com/pulsehealth/pulse-api/internal/mocks"
	"github.com/pulsehealth/pulse-api/internal/service"
	"github.com/pulsehealth/pulse-api/internal/task"
)

type insightFixture struct {
	svc     *service.InsightService
	jobs    *mocks.InsightJobStore
	records *mocks.RecordStore
	now     time.Time
}

func newInsightFixture(t *testing.T, cfg service.InsightConfig) *insightFixture {
	t.Helper()
	f := &insightFixture{
		jobs:    mocks.NewInsightJobStore(),
		records: mocks.NewRecordStore(),
		now:     time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	db := mocks.NewTxDB()
	t.Cleanup(func() { _ = db.Close() })
	f.svc = service.NewInsightService(db, f.jobs, f.records, cfg).
		WithClock(func() time.Time { return f.now })
	return f
}

func defaultInsightConfig() service.InsightConfig {
	return service.InsightConfig{
		Models:      []string{"gemini-2.0-flash", "gemini-1.5-flash"},
		DailyJobCap: 5,
	}
}

func TestInsightService_RequestGeneration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newInsightFixture(t, defaultInsightConfig())

	userID := uuid.New()
	job, err := f.svc.RequestGeneration(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, domain.InsightJobQueued, job.Status)
	assert.Equal(t, userID, job.UserID)

	stored, err := f.jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InsightJobQueued, stored.Status)

	// One task on the insights queue, linked to the job and carrying the
	// model pipeline.
	recs := f.records.Snapshot()
	require.Len(t, recs, 1)
	assert.Equal(t, task.QueueInsightsGenerate, recs[0].Queue)
	require.NotNil(t, recs[0].JobID)
	assert.Equal(t, job.ID, *recs[0].JobID)

	env, err := task.OpenEnvelope(recs[0].Payload)
	require.NoError(t, err)
	var payload task.InsightGenerationPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, job.ID, payload.JobID)
	assert.Equal(t, userID, payload.UserID)
	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-1.5-flash"}, payload.Models)
}

func TestInsightService_SingleActiveJobPerUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newInsightFixture(t, defaultInsightConfig())

	userID := uuid.New()
	_, err := f.svc.RequestGeneration(ctx, userID)
	require.NoError(t, err)

	_, err = f.svc.RequestGeneration(ctx, userID)
	assert.ErrorIs(t, err, service.ErrJobAlreadyActive)
}

func TestInsightService_FinishedJobFreesSlot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newInsightFixture(t, defaultInsightConfig())

	userID := uuid.New()
	job, err := f.svc.RequestGeneration(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, f.jobs.UpdateStatus(ctx, job.ID, domain.InsightJobCompleted, "gemini-2.0-flash", ""))

	f.now = f.now.Add(time.Minute)
	_, err = f.svc.RequestGeneration(ctx, userID)
	assert.NoError(t, err)
}

func TestInsightService_DailyJobCap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newInsightFixture(t, service.InsightConfig{
		Models:      []string{"gemini-2.0-flash"},
		DailyJobCap: 3,
	})

	userID := uuid.New()

	// Three finished jobs created inside the rolling day.
	for i := 0; i < 3; i++ {
		f.jobs.Seed(&domain.InsightJob{
			ID:        uuid.New(),
			UserID:    userID,
			Status:    domain.InsightJobCompleted,
			CreatedAt: f.now.Add(-time.Duration(i+1) * time.Hour),
		})
	}

	_, err := f.svc.RequestGeneration(ctx, userID)
	assert.ErrorIs(t, err, service.ErrDailyJobCapReached)

	// Jobs older than 24 hours stop counting.
	f.now = f.now.Add(25 * time.Hour)
	_, err = f.svc.RequestGeneration(ctx, userID)
	assert.NoError(t, err)
}

func TestInsightService_EmptyUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newInsightFixture(t, defaultInsightConfig())

	_, err := f.svc.RequestGeneration(ctx, uuid.Nil)
	assert.Error(t, err)
}

func TestInsightService_StoreFailureSurfaces(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newInsightFixture(t, defaultInsightConfig())

	f.jobs.QueryErr = errors.New("connection refused")
	_, err := f.svc.RequestGeneration(ctx, uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "active insight job")
}
