package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pulsehealth/pulse-api/internal/store"
	"github.com/pulsehealth/pulse-api/internal/task"
)

// RecordStore is an in-memory task.RecordStore. Insert enforces the
// task-name uniqueness the real store gets from its constraint, and
// ClaimDue applies the same eligibility and transition rules as the SQL
// claim query.
type RecordStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*task.Record
	byName  map[string]uuid.UUID

	// Error overrides, applied before any state change.
	InsertErr     error
	GetErr        error
	ClaimErr      error
	MarkErr       error
	RescheduleErr error
	ListErr       error
	DepthsErr     error
}

// NewRecordStore creates an empty in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[uuid.UUID]*task.Record),
		byName:  make(map[string]uuid.UUID),
	}
}

// Insert implements task.RecordStore.
func (m *RecordStore) Insert(ctx context.Context, rec *task.Record) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byName[rec.TaskName]; exists {
		return store.ErrTaskNameExists
	}
	cp := *rec
	m.records[rec.ID] = &cp
	m.byName[rec.TaskName] = rec.ID
	return nil
}

// GetByName implements task.RecordStore.
func (m *RecordStore) GetByName(ctx context.Context, taskName string) (*task.Record, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byName[taskName]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *m.records[id]
	return &cp, nil
}

// GetByID implements task.RecordStore.
func (m *RecordStore) GetByID(ctx context.Context, id uuid.UUID) (*task.Record, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *rec
	return &cp, nil
}

// ClaimDue implements task.RecordStore.
func (m *RecordStore) ClaimDue(ctx context.Context, queue string, now time.Time, limit int) ([]*task.Record, error) {
	if m.ClaimErr != nil {
		return nil, m.ClaimErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	eligible := make([]*task.Record, 0)
	for _, rec := range m.records {
		if rec.Queue == queue && rec.Eligible(now) {
			eligible = append(eligible, rec)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}

	claimed := make([]*task.Record, 0, len(eligible))
	for _, rec := range eligible {
		rec.Status = task.StatusDispatched
		rec.AttemptCount++
		at := now
		if rec.FirstAttemptAt == nil {
			rec.FirstAttemptAt = &at
		}
		rec.LastAttemptAt = &at
		rec.UpdatedAt = now
		cp := *rec
		claimed = append(claimed, &cp)
	}
	return claimed, nil
}

// MarkSucceeded implements task.RecordStore.
func (m *RecordStore) MarkSucceeded(ctx context.Context, id uuid.UUID) error {
	if m.MarkErr != nil {
		return m.MarkErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	rec.Status = task.StatusSucceeded
	rec.ErrorMessage = ""
	return nil
}

// MarkFailed implements task.RecordStore.
func (m *RecordStore) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	if m.MarkErr != nil {
		return m.MarkErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	rec.Status = task.StatusFailed
	rec.ErrorMessage = errMsg
	return nil
}

// Reschedule implements task.RecordStore.
func (m *RecordStore) Reschedule(ctx context.Context, id uuid.UUID, at time.Time, errMsg string) error {
	if m.RescheduleErr != nil {
		return m.RescheduleErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	sched := at
	rec.Status = task.StatusPending
	rec.ScheduleTime = &sched
	rec.ErrorMessage = errMsg
	return nil
}

// ListRecentByQueue implements task.RecordStore.
func (m *RecordStore) ListRecentByQueue(ctx context.Context, queue string, since time.Time) ([]*task.Record, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*task.Record, 0)
	for _, rec := range m.records {
		if rec.Queue == queue && !rec.CreatedAt.Before(since) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// QueueDepths implements task.RecordStore.
func (m *RecordStore) QueueDepths(ctx context.Context) ([]task.QueueDepth, error) {
	if m.DepthsErr != nil {
		return nil, m.DepthsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	byQueue := make(map[string]*task.QueueDepth)
	for _, rec := range m.records {
		if rec.Status != task.StatusPending && rec.Status != task.StatusDispatched {
			continue
		}
		d, ok := byQueue[rec.Queue]
		if !ok {
			d = &task.QueueDepth{Queue: rec.Queue}
			byQueue[rec.Queue] = d
		}
		d.InFlight++

		oldest := rec.CreatedAt
		if rec.ScheduleTime != nil {
			oldest = *rec.ScheduleTime
		}
		if !d.HasOldest || oldest.Before(d.OldestAt) {
			d.OldestAt = oldest
			d.HasOldest = true
		}
	}

	out := make([]task.QueueDepth, 0, len(byQueue))
	for _, d := range byQueue {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Queue < out[j].Queue })
	return out, nil
}

// WithTx implements task.RecordStore. The fake has no transactions; it
// returns itself so transactional call sites still exercise their logic.
func (m *RecordStore) WithTx(tx *sql.Tx) task.RecordStore {
	return m
}

// Snapshot returns a copy of all records, for assertions.
func (m *RecordStore) Snapshot() []*task.Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*task.Record, 0, len(m.records))
	for _, rec := range m.records {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
