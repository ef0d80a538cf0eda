package task

import (
	"time"
)

// RetryPolicy bounds how many times a task may be attempted and how far
// apart retries are scheduled. A snapshot of the policy active at enqueue
// time travels inside the payload envelope so replay does not depend on
// code still matching the policy that was in force when the row was
// written.
type RetryPolicy struct {
	MaxAttempts       int `json:"maxAttempts"`
	MinBackoffSeconds int `json:"minBackoffSeconds"`
	MaxBackoffSeconds int `json:"maxBackoffSeconds"`
}

// Static per-queue retry configuration. Attempt bounds are deliberately
// small: every side effect behind these queues is idempotent, so the cost
// of a retry is a duplicate-suppressed call, not duplicated work.
var (
	InsightsGenerateRetryConfig = RetryPolicy{
		MaxAttempts:       5,
		MinBackoffSeconds: 30,
		MaxBackoffSeconds: 600,
	}

	NotificationsDispatchRetryConfig = RetryPolicy{
		MaxAttempts:       3,
		MinBackoffSeconds: 10,
		MaxBackoffSeconds: 300,
	}

	WearableSyncRetryConfig = RetryPolicy{
		MaxAttempts:       4,
		MinBackoffSeconds: 60,
		MaxBackoffSeconds: 1800,
	}
)

// PolicyForQueue returns the retry policy enqueued with new tasks on the
// given queue. Unknown queues get the notification policy, the most
// conservative of the three.
func PolicyForQueue(queue string) RetryPolicy {
	switch queue {
	case QueueInsightsGenerate:
		return InsightsGenerateRetryConfig
	case QueueWearableSync:
		return WearableSyncRetryConfig
	default:
		return NotificationsDispatchRetryConfig
	}
}

// Backoff computes the delay before the given attempt is retried:
// min(maxBackoff, minBackoff * 2^(attempt-1)), clamped to the policy's
// bounds. attempt is 1-based (the attempt that just failed).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	minb := time.Duration(p.MinBackoffSeconds) * time.Second
	maxb := time.Duration(p.MaxBackoffSeconds) * time.Second
	if maxb < minb {
		maxb = minb
	}

	delay := minb
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxb {
			return maxb
		}
	}
	if delay > maxb {
		return maxb
	}
	return delay
}

// Exhausted reports whether the given attempt count has consumed the
// policy's attempt budget.
func (p RetryPolicy) Exhausted(attemptCount int) bool {
	return attemptCount >= p.MaxAttempts
}
