package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pulsehealth/pulse-api/internal/store"
)

// PostgreSQL error codes this package cares about.
const (
	// uniqueViolationCode is the SQLSTATE for unique constraint violations.
	uniqueViolationCode = "23505"

	// foreignKeyViolationCode is the SQLSTATE for foreign key violations.
	foreignKeyViolationCode = "23503"

	// checkViolationCode is the SQLSTATE for check constraint violations.
	checkViolationCode = "23514"
)

// taskNameConstraint is the unique index backing the idempotency key.
const taskNameConstraint = "task_records_task_name_key"

// MapError maps a database error to the matching store sentinel, wrapping
// the original error to keep driver context for debugging. A unique
// violation on the task name constraint maps to store.ErrTaskNameExists so
// the enqueue protocol can treat it as "already enqueued".
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			if pgErr.ConstraintName == taskNameConstraint {
				return fmt.Errorf("%w: %v", store.ErrTaskNameExists, err)
			}
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case foreignKeyViolationCode:
			return fmt.Errorf("%w: foreign key violation (%s): %v",
				store.ErrInvalidEntity, pgErr.ConstraintName, err)
		case checkViolationCode:
			return fmt.Errorf("%w: check constraint violation (%s): %v",
				store.ErrInvalidEntity, pgErr.ConstraintName, err)
		}
	}

	return err
}

// IsUniqueViolation checks whether the error is a PostgreSQL unique
// constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// CheckRowsAffected returns store.ErrNotFound when an UPDATE or DELETE
// touched no rows, which normally means the target record does not exist.
func CheckRowsAffected(result sql.Result, entityName string) error {
	if result == nil {
		return fmt.Errorf("nil result provided to CheckRowsAffected")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		if entityName == "" {
			return store.ErrNotFound
		}
		return fmt.Errorf("%w: %s not found", store.ErrNotFound, entityName)
	}
	return nil
}
