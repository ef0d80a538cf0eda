package api

import (
	"errors"
	"net/http"

	"github.com/pulsehealth/pulse-api/internal/api/shared"
	"github.com/pulsehealth/pulse-api/internal/service"
	"github.com/pulsehealth/pulse-api/internal/store"
)

// respondServiceError maps service-layer errors onto HTTP responses.
// Throttling rejections are expected outcomes and carry their structured
// details; everything else collapses to a sanitized envelope.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if rle, ok := service.IsRateLimitError(err); ok {
		shared.RespondWithErrorDetail(w, r, http.StatusTooManyRequests, shared.ErrorDetail{
			Message: "notification rate limit reached",
			Code:    rle.Code,
			Details: rle,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrJobAlreadyActive):
		shared.RespondWithError(w, r, http.StatusConflict,
			"an insight generation job is already running", "JOB_ALREADY_ACTIVE")
	case errors.Is(err, service.ErrDailyJobCapReached):
		shared.RespondWithErrorDetail(w, r, http.StatusTooManyRequests, shared.ErrorDetail{
			Message: "daily insight generation cap reached",
			Code:    "INSIGHTS_DAILY_CAP_REACHED",
		})
	case errors.Is(err, service.ErrIntegrationFresh):
		shared.RespondWithError(w, r, http.StatusConflict,
			"integration synced recently", "SYNC_NOT_DUE")
	case store.IsNotFoundError(err):
		shared.RespondWithError(w, r, http.StatusNotFound, "not found", "NOT_FOUND")
	default:
		shared.RespondWithError(w, r, http.StatusInternalServerError,
			"internal server error", "INTERNAL")
	}
}
