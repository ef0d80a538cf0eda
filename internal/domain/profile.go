package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the slice of a member's account this subsystem needs:
// identity resolution for notification payloads. The full profile schema
// lives with the CRUD layer, which is an external collaborator here.
type Profile struct {
	ID          uuid.UUID
	DisplayName string
	Email       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
