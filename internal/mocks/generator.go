package mocks

import (
	"context"
	"sync"

	"github.com/pulsehealth/pulse-api/internal/generation"
)

// Generator implements generation.Generator for tests. GenerateFn
// overrides behavior per test; otherwise Result and Err are returned
// as-is.
type Generator struct {
	GenerateFn func(ctx context.Context, req generation.InsightRequest) (*generation.Insight, error)

	Result *generation.Insight
	Err    error

	mu       sync.Mutex
	requests []generation.InsightRequest
}

// Generate implements generation.Generator.
func (m *Generator) Generate(ctx context.Context, req generation.InsightRequest) (*generation.Insight, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return &generation.Insight{Model: "mock-model", Text: "mock insight"}, nil
}

// Requests returns a copy of every request seen, for assertions.
func (m *Generator) Requests() []generation.InsightRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]generation.InsightRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
