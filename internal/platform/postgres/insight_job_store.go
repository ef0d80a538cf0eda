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

// InsightJobStore implements store.InsightJobStore against PostgreSQL.
type InsightJobStore struct {
	db store.DBTX
}

// NewInsightJobStore creates a new InsightJobStore.
func NewInsightJobStore(db store.DBTX) *InsightJobStore {
	return &InsightJobStore{db: db}
}

// WithTx returns an InsightJobStore bound to the given transaction.
func (s *InsightJobStore) WithTx(tx *sql.Tx) store.InsightJobStore {
	return &InsightJobStore{db: tx}
}

// Create inserts a new job row.
func (s *InsightJobStore) Create(ctx context.Context, job *domain.InsightJob) error {
	query := `
		INSERT INTO insight_jobs (id, user_id, status, model, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		job.ID, job.UserID, job.Status, job.Model, job.Error, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create insight job: %w", MapError(err))
	}
	return nil
}

// GetByID retrieves a job by its identifier.
func (s *InsightJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.InsightJob, error) {
	query := `
		SELECT id, user_id, status, model, error, created_at, updated_at
		FROM insight_jobs WHERE id = $1
	`
	var job domain.InsightJob
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.Status, &job.Model, &job.Error,
		&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrInsightJobNotFound
		}
		return nil, fmt.Errorf("failed to get insight job: %w", MapError(err))
	}
	return &job, nil
}

// HasActiveJob reports whether the user already has a QUEUED or RUNNING
// job.
func (s *InsightJobStore) HasActiveJob(ctx context.Context, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM insight_jobs
			WHERE user_id = $1 AND status IN ($2, $3)
		)
	`
	var exists bool
	err := s.db.QueryRowContext(ctx, query, userID,
		domain.InsightJobQueued, domain.InsightJobRunning).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for active insight job: %w", MapError(err))
	}
	return exists, nil
}

// CountCreatedSince counts jobs the user created at or after the given
// instant.
func (s *InsightJobStore) CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM insight_jobs WHERE user_id = $1 AND created_at >= $2`
	var count int
	if err := s.db.QueryRowContext(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count insight jobs: %w", MapError(err))
	}
	return count, nil
}

// UpdateStatus moves a job through its lifecycle.
func (s *InsightJobStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InsightJobStatus, model, errMsg string) error {
	query := `
		UPDATE insight_jobs
		SET status = $1, model = $2, error = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(ctx, query, status, model, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update insight job status: %w", MapError(err))
	}
	return CheckRowsAffected(result, "insight job")
}
