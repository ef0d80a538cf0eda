package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pulsehealth/pulse-api/internal/api/shared"
	"github.com/pulsehealth/pulse-api/internal/platform/logger"
	"github.com/pulsehealth/pulse-api/internal/ratelimit"
)

// KeyFunc derives the rate-limit key for a request.
type KeyFunc func(r *http.Request) (string, error)

// RateLimitOptions configures one rate-limited route group.
type RateLimitOptions struct {
	// Limit is the maximum number of requests per key per window.
	Limit int

	// Window is the rolling window length.
	Window time.Duration

	// Scope names the limited surface in keys, headers, and error bodies.
	Scope string

	// Counter is the windowed counter backend (redis or in-process).
	Counter ratelimit.Counter

	// Key derives the client key. Defaults to ClientKey.
	Key KeyFunc
}

// RateLimit returns middleware enforcing a windowed request cap per
// client key. Counter failures and key-derivation failures fail open: the
// request proceeds and the failure is logged loudly, because availability
// of the feature outranks strict throttling.
func RateLimit(opts RateLimitOptions) func(http.Handler) http.Handler {
	if opts.Key == nil {
		opts.Key = ClientKey
	}
	windowSeconds := int(opts.Window.Seconds())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.FromContext(r.Context())

			key, err := opts.Key(r)
			if err != nil {
				log.Warn("rate limit key derivation failed, failing open",
					"scope", opts.Scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			count, err := opts.Counter.Incr(r.Context(), opts.Scope+":"+key, opts.Window)
			if err != nil {
				log.Warn("rate limit store unavailable, failing open",
					"scope", opts.Scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			remaining := int64(opts.Limit) - count
			if remaining < 0 {
				remaining = 0
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(opts.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(windowSeconds))

			if count > int64(opts.Limit) {
				w.Header().Set("Retry-After", strconv.Itoa(windowSeconds))
				shared.RespondWithErrorDetail(w, r, http.StatusTooManyRequests, shared.ErrorDetail{
					Message:    "rate limit exceeded",
					Code:       "RATE_LIMITED",
					RetryAfter: windowSeconds,
					Scope:      opts.Scope,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey keys requests by the bearer token's subject claim when one is
// present, falling back to the remote IP. The token is decoded, not
// verified; authentication happens upstream, this only needs a stable
// per-client identity.
func ClientKey(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		claims := jwt.MapClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
			if sub, err := claims.GetSubject(); err == nil && sub != "" {
				return "user:" + sub, nil
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr == "" {
			return "", fmt.Errorf("no client identity on request")
		}
		host = r.RemoteAddr
	}
	return "ip:" + host, nil
}
