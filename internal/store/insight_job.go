package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pulsehealth/pulse-api/internal/domain"
)

// InsightJobStore persists insight-generation job records.
type InsightJobStore interface {
	// Create inserts a new job row.
	Create(ctx context.Context, job *domain.InsightJob) error

	// GetByID retrieves a job by its identifier. Returns
	// ErrInsightJobNotFound when no such job exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InsightJob, error)

	// HasActiveJob reports whether the user already has a job in QUEUED or
	// RUNNING state.
	HasActiveJob(ctx context.Context, userID uuid.UUID) (bool, error)

	// CountCreatedSince counts jobs the user created at or after the given
	// instant, for the rolling daily creation cap.
	CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)

	// UpdateStatus moves a job through its lifecycle, recording the model
	// that served it and the last error, if any.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InsightJobStatus, model, errMsg string) error

	// WithTx returns an InsightJobStore bound to the given transaction.
	WithTx(tx *sql.Tx) InsightJobStore
}
