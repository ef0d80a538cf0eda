package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pulsehealth/pulse-api/internal/domain"
)

// WearableIntegrationStore persists wearable integration freshness state.
type WearableIntegrationStore interface {
	// GetByID retrieves an integration by its identifier. Returns
	// ErrIntegrationNotFound when no such integration exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WearableIntegration, error)

	// ListSyncDue returns integrations whose last completed sync is older
	// than staleBefore (or that have never synced), candidates for the
	// scheduled sweep.
	ListSyncDue(ctx context.Context, staleBefore time.Time) ([]*domain.WearableIntegration, error)

	// TouchSynced records a completed sync at the given instant.
	TouchSynced(ctx context.Context, id uuid.UUID, at time.Time) error
}
