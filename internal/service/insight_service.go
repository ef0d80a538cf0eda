package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pulsehealth/pulse-api/internal/domain"
	"github.com/pulsehealth/pulse-api/internal/platform/logger"
	"github.com/pulsehealth/pulse-api/internal/store"
	"github.com/pulsehealth/pulse-api/internal/task"
)

// InsightConfig carries the insight producer's static policy: the ordered
// model pipeline embedded in every payload and the rolling daily cap on
// job creation per user.
type InsightConfig struct {
	// Models is the ordered provider pipeline [primary, fallback, ...].
	Models []string

	// DailyJobCap bounds job creation per user per rolling 24 hours.
	DailyJobCap int
}

// InsightService is the producer for the insights-generate queue. The job
// row and the task row are written in one transaction so they commit or
// roll back together.
type InsightService struct {
	db      *sql.DB
	jobs    store.InsightJobStore
	records task.RecordStore
	cfg     InsightConfig
	now     func() time.Time
}

// NewInsightService builds the insight producer.
func NewInsightService(db *sql.DB, jobs store.InsightJobStore, records task.RecordStore, cfg InsightConfig) *InsightService {
	return &InsightService{
		db:      db,
		jobs:    jobs,
		records: records,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock substitutes the clock, for tests.
func (s *InsightService) WithClock(now func() time.Time) *InsightService {
	s.now = now
	return s
}

// RequestGeneration creates an insight-generation job for the user and
// enqueues its task. Two gates run first, both scoped to the job table
// rather than the time-windowed limiters: at most one QUEUED/RUNNING job
// per user, and a rolling daily cap on job creation.
func (s *InsightService) RequestGeneration(ctx context.Context, userID uuid.UUID) (*domain.InsightJob, error) {
	log := logger.FromContext(ctx)

	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id cannot be empty")
	}
	if len(s.cfg.Models) == 0 {
		return nil, fmt.Errorf("insight model pipeline is not configured")
	}

	active, err := s.jobs.HasActiveJob(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for active insight job: %w", err)
	}
	if active {
		return nil, ErrJobAlreadyActive
	}

	now := s.now()
	created, err := s.jobs.CountCreatedSince(ctx, userID, now.Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to count recent insight jobs: %w", err)
	}
	if created >= s.cfg.DailyJobCap {
		return nil, ErrDailyJobCapReached
	}

	job := domain.NewInsightJob(userID)

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.jobs.WithTx(tx).Create(ctx, job); err != nil {
			return fmt.Errorf("failed to create insight job: %w", err)
		}

		payload := task.InsightGenerationPayload{
			JobID:  job.ID,
			UserID: userID,
			Models: s.cfg.Models,
		}
		if err := payload.Validate(); err != nil {
			return err
		}

		_, err := task.Enqueue(ctx, s.records.WithTx(tx), task.QueueInsightsGenerate, payload, task.EnqueueOptions{
			Subject: userID.String(),
			JobID:   &job.ID,
			Now:     now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info("insight generation requested",
		"user_id", userID,
		"job_id", job.ID,
		"primary_model", s.cfg.Models[0])
	return job, nil
}
