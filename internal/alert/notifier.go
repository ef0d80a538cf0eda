// Package alert is the dead-letter alerting boundary. The task core calls
// Notify exactly once per permanently failed task; what happens downstream
// (paging, Slack, email) is the collaborator's business.
package alert

import (
	"context"
	"log/slog"
	"sync"
)

// Notifier receives operational alert events.
type Notifier interface {
	Notify(ctx context.Context, event string, payload map[string]any)
}

// LogNotifier writes alert events to the structured log at ERROR level.
// It is the default sink when no external alerting is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: log.With("component", "alert_notifier")}
}

// Notify logs the event with its payload flattened into attributes.
func (n *LogNotifier) Notify(ctx context.Context, event string, payload map[string]any) {
	attrs := make([]any, 0, 2+len(payload)*2)
	attrs = append(attrs, "event", event)
	for k, v := range payload {
		attrs = append(attrs, k, v)
	}
	n.logger.ErrorContext(ctx, "alert raised", attrs...)
}

// CapturingNotifier records events in memory. Tests use it to assert that
// a dead-letter alert fired exactly once.
type CapturingNotifier struct {
	mu     sync.Mutex
	events []CapturedEvent
}

// CapturedEvent is one recorded Notify call.
type CapturedEvent struct {
	Event   string
	Payload map[string]any
}

// NewCapturingNotifier creates an in-memory notifier.
func NewCapturingNotifier() *CapturingNotifier {
	return &CapturingNotifier{}
}

// Notify records the event.
func (n *CapturingNotifier) Notify(_ context.Context, event string, payload map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, CapturedEvent{Event: event, Payload: payload})
}

// Events returns a copy of the recorded events.
func (n *CapturingNotifier) Events() []CapturedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]CapturedEvent, len(n.events))
	copy(out, n.events)
	return out
}
