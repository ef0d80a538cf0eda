package domain

import (
	"time"

	"github.com/google/uuid"
)

// WearableIntegration links a member to a remote wearable account. OAuth
// token exchange is an external collaborator; this subsystem only reads
// the identifiers it needs to scope a sync task and the freshness state
// that gates scheduled syncs.
type WearableIntegration struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Provider        string
	RemoteAccountID string
	LastSyncedAt    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Stale reports whether the integration has gone longer than maxAge
// without a completed sync at the given instant. Never-synced
// integrations are always stale.
func (w *WearableIntegration) Stale(now time.Time, maxAge time.Duration) bool {
	if w.LastSyncedAt == nil {
		return true
	}
	return now.Sub(*w.LastSyncedAt) > maxAge
}
