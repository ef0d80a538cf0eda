package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pulsehealth/pulse-api/internal/platform/logger"
	"github.com/pulsehealth/pulse-api/internal/store"
	"github.com/pulsehealth/pulse-api/internal/task"
)

// taskRecordColumns is the column list shared by every SELECT/RETURNING in
// this store.
const taskRecordColumns = `id, task_name, queue, status, job_id, payload,
	schedule_time, first_attempt_at, last_attempt_at, attempt_count,
	error_message, created_at, updated_at`

// TaskRecordStore implements task.RecordStore against PostgreSQL.
type TaskRecordStore struct {
	db store.DBTX
}

// NewTaskRecordStore creates a new TaskRecordStore.
func NewTaskRecordStore(db store.DBTX) *TaskRecordStore {
	return &TaskRecordStore{db: db}
}

// WithTx returns a RecordStore bound to the given transaction.
func (s *TaskRecordStore) WithTx(tx *sql.Tx) task.RecordStore {
	return &TaskRecordStore{db: tx}
}

// Insert persists a new task record. Unique violations on the task name
// surface as store.ErrTaskNameExists via MapError.
func (s *TaskRecordStore) Insert(ctx context.Context, rec *task.Record) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO task_records
			(id, task_name, queue, status, job_id, payload, schedule_time,
			 attempt_count, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.TaskName,
		rec.Queue,
		rec.Status,
		rec.JobID,
		[]byte(rec.Payload),
		rec.ScheduleTime,
		rec.AttemptCount,
		rec.ErrorMessage,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		if !store.IsDuplicateError(mapped) {
			log.Error("failed to insert task record",
				"queue", rec.Queue,
				"task_name", rec.TaskName,
				"error", err)
		}
		return mapped
	}
	return nil
}

// GetByName retrieves a record by its idempotency key.
func (s *TaskRecordStore) GetByName(ctx context.Context, taskName string) (*task.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM task_records WHERE task_name = $1`, taskRecordColumns)
	rec, err := scanTaskRecord(s.db.QueryRowContext(ctx, query, taskName))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task record by name: %w", MapError(err))
	}
	return rec, nil
}

// GetByID retrieves a record by its opaque identifier.
func (s *TaskRecordStore) GetByID(ctx context.Context, id uuid.UUID) (*task.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM task_records WHERE id = $1`, taskRecordColumns)
	rec, err := scanTaskRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task record by id: %w", MapError(err))
	}
	return rec, nil
}

// ClaimDue atomically transitions up to limit eligible PENDING records to
// DISPATCHED and returns them. SKIP LOCKED keeps concurrent dispatcher
// processes from claiming the same rows.
func (s *TaskRecordStore) ClaimDue(ctx context.Context, queue string, now time.Time, limit int) ([]*task.Record, error) {
	log := logger.FromContext(ctx)

	query := fmt.Sprintf(`
		UPDATE task_records SET
			status = $1,
			attempt_count = attempt_count + 1,
			first_attempt_at = COALESCE(first_attempt_at, $2),
			last_attempt_at = $2,
			updated_at = $2
		WHERE id IN (
			SELECT id FROM task_records
			WHERE queue = $3
			  AND status = $4
			  AND (schedule_time IS NULL OR schedule_time <= $2)
			ORDER BY COALESCE(schedule_time, created_at) ASC
			LIMIT $5
			FOR UPDATE SKIP LOCKED
		)
		RETURNING %s
	`, taskRecordColumns)

	rows, err := s.db.QueryContext(ctx, query,
		task.StatusDispatched, now, queue, task.StatusPending, limit)
	if err != nil {
		log.Error("failed to claim due task records", "queue", queue, "error", err)
		return nil, fmt.Errorf("failed to claim due task records: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var claimed []*task.Record
	for rows.Next() {
		rec, err := scanTaskRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claimed task record: %w", err)
		}
		claimed = append(claimed, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating claimed task records: %w", err)
	}
	return claimed, nil
}

// MarkSucceeded sets terminal SUCCEEDED status and clears the error
// message.
func (s *TaskRecordStore) MarkSucceeded(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE task_records
		SET status = $1, error_message = '', updated_at = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, task.StatusSucceeded, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark task record succeeded: %w", MapError(err))
	}
	return CheckRowsAffected(result, "task record")
}

// MarkFailed sets terminal FAILED status with the last error detail.
func (s *TaskRecordStore) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	query := `
		UPDATE task_records
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, task.StatusFailed, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark task record failed: %w", MapError(err))
	}
	return CheckRowsAffected(result, "task record")
}

// Reschedule re-arms a record to PENDING with a future schedule time after
// a transient failure.
func (s *TaskRecordStore) Reschedule(ctx context.Context, id uuid.UUID, at time.Time, errMsg string) error {
	query := `
		UPDATE task_records
		SET status = $1, schedule_time = $2, error_message = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(ctx, query, task.StatusPending, at, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to reschedule task record: %w", MapError(err))
	}
	return CheckRowsAffected(result, "task record")
}

// ListRecentByQueue returns records in the queue created at or after
// since, newest first. The scan is O(rows in window) across all recipients
// in the queue; the historical rate limiter accepts that cost.
func (s *TaskRecordStore) ListRecentByQueue(ctx context.Context, queue string, since time.Time) ([]*task.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM task_records
		WHERE queue = $1 AND created_at >= $2
		ORDER BY created_at DESC
	`, taskRecordColumns)

	rows, err := s.db.QueryContext(ctx, query, queue, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent task records: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var recent []*task.Record
	for rows.Next() {
		rec, err := scanTaskRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task record: %w", err)
		}
		recent = append(recent, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task records: %w", err)
	}
	return recent, nil
}

// QueueDepths aggregates in-flight counts and the oldest eligibility
// instant per queue, for health snapshots.
func (s *TaskRecordStore) QueueDepths(ctx context.Context) ([]task.QueueDepth, error) {
	query := `
		SELECT queue, COUNT(*), MIN(COALESCE(schedule_time, created_at))
		FROM task_records
		WHERE status IN ($1, $2)
		GROUP BY queue
		ORDER BY queue
	`

	rows, err := s.db.QueryContext(ctx, query, task.StatusPending, task.StatusDispatched)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue depths: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var depths []task.QueueDepth
	for rows.Next() {
		var d task.QueueDepth
		var oldest sql.NullTime
		if err := rows.Scan(&d.Queue, &d.InFlight, &oldest); err != nil {
			return nil, fmt.Errorf("failed to scan queue depth row: %w", err)
		}
		if oldest.Valid {
			d.OldestAt = oldest.Time
			d.HasOldest = true
		}
		depths = append(depths, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue depth rows: %w", err)
	}
	return depths, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTaskRecord(row rowScanner) (*task.Record, error) {
	var rec task.Record
	var jobID uuid.NullUUID
	var payload []byte
	var scheduleTime, firstAttemptAt, lastAttemptAt sql.NullTime
	var errorMessage sql.NullString

	err := row.Scan(
		&rec.ID,
		&rec.TaskName,
		&rec.Queue,
		&rec.Status,
		&jobID,
		&payload,
		&scheduleTime,
		&firstAttemptAt,
		&lastAttemptAt,
		&rec.AttemptCount,
		&errorMessage,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if jobID.Valid {
		rec.JobID = &jobID.UUID
	}
	rec.Payload = payload
	if scheduleTime.Valid {
		t := scheduleTime.Time
		rec.ScheduleTime = &t
	}
	if firstAttemptAt.Valid {
		t := firstAttemptAt.Time
		rec.FirstAttemptAt = &t
	}
	if lastAttemptAt.Valid {
		t := lastAttemptAt.Time
		rec.LastAttemptAt = &t
	}
	rec.ErrorMessage = errorMessage.String
	return &rec, nil
}
