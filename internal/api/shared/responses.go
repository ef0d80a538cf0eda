package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the standard JSON error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable parts of an error response.
type ErrorDetail struct {
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
	Scope      string `json:"scope,omitempty"`
	Details    any    `json:"details,omitempty"`
	TraceID    string `json:"traceId,omitempty"`
}

// RespondWithJSON writes a JSON response with the given status code.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err, "path", r.URL.Path)
	}
}

// RespondWithError writes the standard error envelope with the given
// status, message, and machine code.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message, code string) {
	RespondWithErrorDetail(w, r, status, ErrorDetail{Message: message, Code: code})
}

// RespondWithErrorDetail writes the standard error envelope from a fully
// populated detail. 5xx responses are logged at ERROR, 429 at WARN, other
// 4xx at DEBUG.
func RespondWithErrorDetail(w http.ResponseWriter, r *http.Request, status int, detail ErrorDetail) {
	detail.TraceID = GetTraceID(r.Context())

	level := slog.LevelDebug
	switch {
	case status >= http.StatusInternalServerError:
		level = slog.LevelError
	case status == http.StatusTooManyRequests:
		level = slog.LevelWarn
	}
	slog.Log(r.Context(), level, "API error response",
		"status_code", status,
		"code", detail.Code,
		"message", detail.Message,
		"trace_id", detail.TraceID,
		"path", r.URL.Path,
		"method", r.Method)

	RespondWithJSON(w, r, status, ErrorBody{Error: detail})
}
