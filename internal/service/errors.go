package service

import (
	"errors"
	"fmt"
)

// Service-level errors surfaced to API handlers.
var (
	// ErrJobAlreadyActive is returned when a user already has an insight
	// job in QUEUED or RUNNING state.
	ErrJobAlreadyActive = errors.New("an insight generation job is already active for this user")

	// ErrDailyJobCapReached is returned when a user has hit the rolling
	// daily insight job creation cap.
	ErrDailyJobCapReached = errors.New("daily insight generation cap reached")

	// ErrIntegrationFresh is returned when a scheduled sync is requested
	// for an integration that synced recently.
	ErrIntegrationFresh = errors.New("integration synced recently, sync not due")
)

// RateLimitError is the structured throttling rejection for the historical
// limiter. It is an expected, user-visible outcome, not a systemic
// failure, and handlers must surface it distinctly (429 with the code and
// details below) from real errors.
type RateLimitError struct {
	Code          string `json:"code"`
	Type          string `json:"type"`
	RecipientID   string `json:"recipientId"`
	Limit         int    `json:"limit"`
	WindowMinutes int    `json:"windowMinutes"`
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: %d per %d minutes for recipient %s",
		e.Code, e.Limit, e.WindowMinutes, e.RecipientID)
}

// IsRateLimitError extracts a RateLimitError from an error chain.
func IsRateLimitError(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}
