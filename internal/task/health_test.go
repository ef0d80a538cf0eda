package task_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsehealth/pulse-api/internal/mocks"
	"github.com/pulsehealth/pulse-api/internal/task"
)

func TestHealthReporter_Snapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	s := mocks.NewRecordStore()

	// Two backlogged notifications, the older created 42 seconds before
	// "now", and one insight task.
	_, err := task.Enqueue(ctx, s, task.QueueNotificationsDispatch, testPayload{}, task.EnqueueOptions{
		Subject: "old", Now: base,
	})
	require.NoError(t, err)
	_, err = task.Enqueue(ctx, s, task.QueueNotificationsDispatch, testPayload{}, task.EnqueueOptions{
		Subject: "new", Now: base.Add(30 * time.Second),
	})
	require.NoError(t, err)
	_, err = task.Enqueue(ctx, s, task.QueueInsightsGenerate, testPayload{}, task.EnqueueOptions{
		Subject: "job", Now: base.Add(40 * time.Second),
	})
	require.NoError(t, err)

	now := base.Add(42 * time.Second)
	h := task.NewHealthReporter(s, discardLogger()).WithClock(func() time.Time { return now })

	snap := h.Snapshot(ctx)
	assert.False(t, snap.Degraded)
	require.Len(t, snap.Queues, 2)

	byQueue := make(map[string]task.QueueHealth)
	for _, q := range snap.Queues {
		byQueue[q.Queue] = q
	}

	notifs := byQueue[task.QueueNotificationsDispatch]
	assert.Equal(t, 2, notifs.Pending)
	assert.Equal(t, int64(42), notifs.OldestLagSeconds)

	insights := byQueue[task.QueueInsightsGenerate]
	assert.Equal(t, 1, insights.Pending)
	assert.Equal(t, int64(2), insights.OldestLagSeconds)
}

func TestHealthReporter_FutureScheduleClampsToZero(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	sendAt := now.Add(time.Hour)

	s := mocks.NewRecordStore()
	_, err := task.Enqueue(ctx, s, task.QueueNotificationsDispatch, testPayload{}, task.EnqueueOptions{
		Subject:      "deferred",
		ScheduleTime: &sendAt,
		Now:          now,
	})
	require.NoError(t, err)

	h := task.NewHealthReporter(s, discardLogger()).WithClock(func() time.Time { return now })
	snap := h.Snapshot(ctx)
	require.Len(t, snap.Queues, 1)
	assert.Zero(t, snap.Queues[0].OldestLagSeconds)
}

func TestHealthReporter_TerminalRecordsExcluded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	s := mocks.NewRecordStore()
	rec, err := task.Enqueue(ctx, s, task.QueueWearableSync, testPayload{}, task.EnqueueOptions{
		Subject: "done", Now: now,
	})
	require.NoError(t, err)
	require.NoError(t, s.MarkSucceeded(ctx, rec.ID))

	h := task.NewHealthReporter(s, discardLogger())
	snap := h.Snapshot(ctx)
	assert.False(t, snap.Degraded)
	assert.Empty(t, snap.Queues)
}

func TestHealthReporter_DegradedOnStoreFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := mocks.NewRecordStore()
	s.DepthsErr = errors.New("connection refused")

	h := task.NewHealthReporter(s, discardLogger())
	snap := h.Snapshot(ctx)
	assert.True(t, snap.Degraded)
	assert.Empty(t, snap.Queues)
}
