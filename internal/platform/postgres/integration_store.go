package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pulsehealth/pulse-api/internal/domain"
	"github.com/pulsehealth/pulse-api/internal/store"
)

// WearableIntegrationStore implements store.WearableIntegrationStore
// against PostgreSQL.
type WearableIntegrationStore struct {
	db store.DBTX
}

// NewWearableIntegrationStore creates a new WearableIntegrationStore.
func NewWearableIntegrationStore(db store.DBTX) *WearableIntegrationStore {
	return &WearableIntegrationStore{db: db}
}

// GetByID retrieves an integration by its identifier.
func (s *WearableIntegrationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.WearableIntegration, error) {
	query := `
		SELECT id, user_id, provider, remote_account_id, last_synced_at, created_at, updated_at
		FROM wearable_integrations WHERE id = $1
	`
	w, err := scanIntegration(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrIntegrationNotFound
		}
		return nil, fmt.Errorf("failed to get wearable integration: %w", MapError(err))
	}
	return w, nil
}

// ListSyncDue returns integrations that have never synced or last synced
// before staleBefore.
func (s *WearableIntegrationStore) ListSyncDue(ctx context.Context, staleBefore time.Time) ([]*domain.WearableIntegration, error) {
	query := `
		SELECT id, user_id, provider, remote_account_id, last_synced_at, created_at, updated_at
		FROM wearable_integrations
		WHERE last_synced_at IS NULL OR last_synced_at < $1
		ORDER BY last_synced_at ASC NULLS FIRST
	`
	rows, err := s.db.QueryContext(ctx, query, staleBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync-due integrations: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var due []*domain.WearableIntegration
	for rows.Next() {
		w, err := scanIntegration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wearable integration: %w", err)
		}
		due = append(due, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wearable integrations: %w", err)
	}
	return due, nil
}

// TouchSynced records a completed sync at the given instant.
func (s *WearableIntegrationStore) TouchSynced(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE wearable_integrations
		SET last_synced_at = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, at, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to record integration sync: %w", MapError(err))
	}
	return CheckRowsAffected(result, "wearable integration")
}

func scanIntegration(row rowScanner) (*domain.WearableIntegration, error) {
	var w domain.WearableIntegration
	var lastSynced sql.NullTime
	err := row.Scan(&w.ID, &w.UserID, &w.Provider, &w.RemoteAccountID,
		&lastSynced, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastSynced.Valid {
		t := lastSynced.Time
		w.LastSyncedAt = &t
	}
	return &w, nil
}
