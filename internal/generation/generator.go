// Package generation defines the AI insight generation boundary consumed
// by the dispatch worker. Implementations live under platform (Gemini
// today); the interface keeps the worker testable without network access.
package generation

import (
	"context"

	"github.com/google/uuid"
)

// InsightRequest asks for one generated insight. Models is the ordered
// provider pipeline snapshot carried in the task payload: implementations
// try each model in turn and serve from the first that answers.
type InsightRequest struct {
	UserID  uuid.UUID
	Summary string
	Models  []string
}

// Insight is one generated insight and the model that produced it.
type Insight struct {
	Model string
	Text  string
}

// Generator produces insights from a member's recent health summary.
type Generator interface {
	Generate(ctx context.Context, req InsightRequest) (*Insight, error)
}
