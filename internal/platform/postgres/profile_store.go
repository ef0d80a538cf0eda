package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pulsehealth/pulse-api/internal/domain"
	"github.com/pulsehealth/pulse-api/internal/store"
)

// ProfileStore implements store.ProfileStore against PostgreSQL.
type ProfileStore struct {
	db store.DBTX
}

// NewProfileStore creates a new ProfileStore.
func NewProfileStore(db store.DBTX) *ProfileStore {
	return &ProfileStore{db: db}
}

// GetByID retrieves a profile by its identifier.
func (s *ProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	query := `
		SELECT id, display_name, email, created_at, updated_at
		FROM profiles WHERE id = $1
	`
	var p domain.Profile
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.DisplayName, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", MapError(err))
	}
	return &p, nil
}
