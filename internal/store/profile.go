package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/pulsehealth/pulse-api/internal/domain"
)

// ProfileStore resolves recipients for notification producers.
type ProfileStore interface {
	// GetByID retrieves a profile by its identifier. Returns
	// ErrProfileNotFound when no such profile exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
}
