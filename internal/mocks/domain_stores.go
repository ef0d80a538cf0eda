package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pulsehealth/pulse-api/internal/domain"
	"github.com/pulsehealth/pulse-api/internal/store"
)

// InsightJobStore is an in-memory store.InsightJobStore.
type InsightJobStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*domain.InsightJob

	CreateErr error
	QueryErr  error
	UpdateErr error
}

// NewInsightJobStore creates an empty in-memory job store.
func NewInsightJobStore() *InsightJobStore {
	return &InsightJobStore{jobs: make(map[uuid.UUID]*domain.InsightJob)}
}

// Seed adds a job directly, for test setup.
func (m *InsightJobStore) Seed(job *domain.InsightJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
}

// Create implements store.InsightJobStore.
func (m *InsightJobStore) Create(ctx context.Context, job *domain.InsightJob) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

// GetByID implements store.InsightJobStore.
func (m *InsightJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.InsightJob, error) {
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, store.ErrInsightJobNotFound
	}
	cp := *job
	return &cp, nil
}

// HasActiveJob implements store.InsightJobStore.
func (m *InsightJobStore) HasActiveJob(ctx context.Context, userID uuid.UUID) (bool, error) {
	if m.QueryErr != nil {
		return false, m.QueryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.UserID == userID && job.Active() {
			return true, nil
		}
	}
	return false, nil
}

// CountCreatedSince implements store.InsightJobStore.
func (m *InsightJobStore) CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	if m.QueryErr != nil {
		return 0, m.QueryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, job := range m.jobs {
		if job.UserID == userID && !job.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// UpdateStatus implements store.InsightJobStore.
func (m *InsightJobStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InsightJobStatus, model, errMsg string) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return store.ErrInsightJobNotFound
	}
	job.Status = status
	if model != "" {
		job.Model = model
	}
	job.Error = errMsg
	return nil
}

// WithTx implements store.InsightJobStore.
func (m *InsightJobStore) WithTx(tx *sql.Tx) store.InsightJobStore {
	return m
}

// ProfileStore is an in-memory store.ProfileStore.
type ProfileStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*domain.Profile

	GetErr error
}

// NewProfileStore creates an empty in-memory profile store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[uuid.UUID]*domain.Profile)}
}

// Seed adds a profile directly, for test setup.
func (m *ProfileStore) Seed(p *domain.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profiles[p.ID] = &cp
}

// GetByID implements store.ProfileStore.
func (m *ProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, store.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

// WearableIntegrationStore is an in-memory store.WearableIntegrationStore.
type WearableIntegrationStore struct {
	mu           sync.Mutex
	integrations map[uuid.UUID]*domain.WearableIntegration

	GetErr   error
	ListErr  error
	TouchErr error
}

// NewWearableIntegrationStore creates an empty in-memory integration
// store.
func NewWearableIntegrationStore() *WearableIntegrationStore {
	return &WearableIntegrationStore{integrations: make(map[uuid.UUID]*domain.WearableIntegration)}
}

// Seed adds an integration directly, for test setup.
func (m *WearableIntegrationStore) Seed(w *domain.WearableIntegration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *w
	m.integrations[w.ID] = &cp
}

// GetByID implements store.WearableIntegrationStore.
func (m *WearableIntegrationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.WearableIntegration, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.integrations[id]
	if !ok {
		return nil, store.ErrIntegrationNotFound
	}
	cp := *w
	return &cp, nil
}

// ListSyncDue implements store.WearableIntegrationStore.
func (m *WearableIntegrationStore) ListSyncDue(ctx context.Context, staleBefore time.Time) ([]*domain.WearableIntegration, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.WearableIntegration, 0)
	for _, w := range m.integrations {
		if w.LastSyncedAt == nil || w.LastSyncedAt.Before(staleBefore) {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// TouchSynced implements store.WearableIntegrationStore.
func (m *WearableIntegrationStore) TouchSynced(ctx context.Context, id uuid.UUID, at time.Time) error {
	if m.TouchErr != nil {
		return m.TouchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.integrations[id]
	if !ok {
		return store.ErrIntegrationNotFound
	}
	synced := at
	w.LastSyncedAt = &synced
	return nil
}
