// Package gemini implements the insight generation boundary using
// Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pulsehealth/pulse-api/internal/generation"
	"google.golang.org/genai"
)

// insightPrompt frames the member's recent health summary for the model.
const insightPrompt = `You are a health companion. From the tracking summary below,
write one short, encouraging insight (2-3 sentences) about a trend worth the
member's attention. Plain language, no medical advice.

Summary:
%s`

// InsightGenerator implements generation.Generator over the Gemini API.
// It walks the request's model pipeline in order and serves from the
// first model that answers with usable content, so a provider outage on
// the primary model degrades to the fallback without a second enqueue.
type InsightGenerator struct {
	client *genai.Client
	logger *slog.Logger
}

// NewInsightGenerator creates a generator from an API key.
func NewInsightGenerator(ctx context.Context, apiKey string, log *slog.Logger) (*InsightGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if log == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &InsightGenerator{
		client: client,
		logger: log.With("component", "gemini_insight_generator"),
	}, nil
}

// Generate tries each model in the request's pipeline in order.
func (g *InsightGenerator) Generate(ctx context.Context, req generation.InsightRequest) (*generation.Insight, error) {
	if strings.TrimSpace(req.Summary) == "" || len(req.Models) == 0 {
		return nil, generation.ErrEmptyRequest
	}

	prompt := fmt.Sprintf(insightPrompt, req.Summary)

	var lastErr error
	for _, model := range req.Models {
		text, err := g.generateWithModel(ctx, model, prompt)
		if err != nil {
			g.logger.WarnContext(ctx, "model failed, trying next in pipeline",
				"model", model,
				"user_id", req.UserID,
				"error", err)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		g.logger.InfoContext(ctx, "insight generated",
			"model", model,
			"user_id", req.UserID,
			"length", len(text))
		return &generation.Insight{Model: model, Text: text}, nil
	}

	return nil, fmt.Errorf("%w: %v", generation.ErrAllModelsFailed, lastErr)
}

func (g *InsightGenerator) generateWithModel(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini call failed: %w", err)
	}
	if resp == nil {
		return "", generation.ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", generation.ErrEmptyResponse
	}
	return text, nil
}

// IsPermanent reports whether a generation error is not worth retrying on
// the same attempt. Pipeline exhaustion stays transient; config errors do
// not occur post-startup.
func IsPermanent(err error) bool {
	return errors.Is(err, generation.ErrEmptyRequest)
}
