package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsehealth/pulse-api/internal/api/middleware"
	"github.com/pulsehealth/pulse-api/internal/api/shared"
	"github.com/pulsehealth/pulse-api/internal/ratelimit"
)

type failingCounter struct{ err error }

func (c *failingCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	return 0, c.err
}

func newLimitedHandler(t *testing.T, opts middleware.RateLimitOptions) http.Handler {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return middleware.RateLimit(opts)(next)
}

func doRequest(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/notifications", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimit_HeadersAndRejection(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	counter := ratelimit.NewMemoryCounter().WithClock(func() time.Time { return now })

	h := newLimitedHandler(t, middleware.RateLimitOptions{
		Limit:   3,
		Window:  time.Minute,
		Scope:   "producers",
		Counter: counter,
	})

	for i, wantRemaining := range []string{"2", "1", "0"} {
		rr := doRequest(h, "10.0.0.9:1234")
		require.Equal(t, http.StatusOK, rr.Code, "request %d should pass", i+1)
		assert.Equal(t, "3", rr.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, wantRemaining, rr.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "60", rr.Header().Get("X-RateLimit-Reset"))
	}

	rr := doRequest(h, "10.0.0.9:1234")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	var body shared.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMITED", body.Error.Code)
	assert.Equal(t, "producers", body.Error.Scope)
	assert.Equal(t, 60, body.Error.RetryAfter)

	// A different client key has its own budget.
	rr = doRequest(h, "10.0.0.10:1234")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimit_WindowReset(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	counter := ratelimit.NewMemoryCounter().WithClock(func() time.Time { return now })

	h := newLimitedHandler(t, middleware.RateLimitOptions{
		Limit:   1,
		Window:  time.Minute,
		Scope:   "producers",
		Counter: counter,
	})

	require.Equal(t, http.StatusOK, doRequest(h, "10.0.0.9:1234").Code)
	require.Equal(t, http.StatusTooManyRequests, doRequest(h, "10.0.0.9:1234").Code)

	now = now.Add(61 * time.Second)
	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.9:1234").Code)
}

func TestRateLimit_FailsOpenOnCounterError(t *testing.T) {
	t.Parallel()

	h := newLimitedHandler(t, middleware.RateLimitOptions{
		Limit:   1,
		Window:  time.Minute,
		Scope:   "producers",
		Counter: &failingCounter{err: errors.New("connection refused")},
	})

	// Store down: requests proceed rather than being blocked.
	for i := 0; i < 5; i++ {
		rr := doRequest(h, "10.0.0.9:1234")
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestRateLimit_FailsOpenOnKeyError(t *testing.T) {
	t.Parallel()

	h := newLimitedHandler(t, middleware.RateLimitOptions{
		Limit:   1,
		Window:  time.Minute,
		Scope:   "producers",
		Counter: ratelimit.NewMemoryCounter(),
		Key: func(r *http.Request) (string, error) {
			return "", errors.New("no client identity on request")
		},
	})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.9:1234").Code)
	}
}

func TestClientKey(t *testing.T) {
	t.Parallel()

	t.Run("bearer token subject", func(t *testing.T) {
		t.Parallel()
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-77"})
		signed, err := token.SignedString([]byte("test-secret"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		req.RemoteAddr = "10.0.0.9:1234"

		key, err := middleware.ClientKey(req)
		require.NoError(t, err)
		assert.Equal(t, "user:user-77", key)
	})

	t.Run("falls back to remote ip", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.9:1234"

		key, err := middleware.ClientKey(req)
		require.NoError(t, err)
		assert.Equal(t, "ip:10.0.0.9", key)
	})

	t.Run("garbage token falls back to ip", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		req.RemoteAddr = "10.0.0.9:1234"

		key, err := middleware.ClientKey(req)
		require.NoError(t, err)
		assert.Equal(t, "ip:10.0.0.9", key)
	})

	t.Run("no identity at all", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ""

		_, err := middleware.ClientKey(req)
		assert.Error(t, err)
	})
}
