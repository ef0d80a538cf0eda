package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in
	// the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation or a
	// non-unique constraint before being stored.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or an operation within it fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors.

	// ErrTaskNotFound indicates the requested task record does not exist.
	ErrTaskNotFound = fmt.Errorf("%w: task record", ErrNotFound)

	// ErrProfileNotFound indicates the requested profile does not exist.
	ErrProfileNotFound = fmt.Errorf("%w: profile", ErrNotFound)

	// ErrInsightJobNotFound indicates the requested insight job does not exist.
	ErrInsightJobNotFound = fmt.Errorf("%w: insight job", ErrNotFound)

	// ErrIntegrationNotFound indicates the requested wearable integration
	// does not exist.
	ErrIntegrationNotFound = fmt.Errorf("%w: wearable integration", ErrNotFound)

	// ErrTaskNameExists indicates a task record with the given task name is
	// already enqueued. This is the idempotent-enqueue success path: callers
	// load and return the existing record instead of failing.
	ErrTaskNameExists = fmt.Errorf("%w: task name", ErrDuplicate)
)

// IsNotFoundError checks whether the error is any kind of "not found"
// error, generic or entity-specific.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks whether the error is any kind of "duplicate"
// error, generic or entity-specific.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
