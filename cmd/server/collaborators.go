package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pulsehealth/pulse-api/internal/store"
)

// The dispatch handlers depend on collaborators owned by other services:
// the biomarker summary source, the transactional mailer, and the wearable
// provider gateway. This binary ships logging stand-ins so the queue runs
// end to end in environments where those services are not wired; real
// deployments substitute their clients here.

// profileSummarySource resolves the member and produces the summary text
// fed to the insight generator. The biomarker aggregation lives with the
// CRUD layer; until its client is wired this reports the profile identity
// only.
type profileSummarySource struct {
	profiles store.ProfileStore
}

func (s *profileSummarySource) RecentSummary(ctx context.Context, userID uuid.UUID) (string, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve profile for summary: %w", err)
	}
	return fmt.Sprintf("Recent health tracking summary for %s.", profile.DisplayName), nil
}

// logMailer records deliveries instead of sending them.
type logMailer struct {
	logger *slog.Logger
}

func (m *logMailer) Send(ctx context.Context, recipient, subject, body string) error {
	m.logger.InfoContext(ctx, "notification delivery",
		"recipient", recipient,
		"subject", subject,
		"body_length", len(body))
	return nil
}

// logProviderClient records sync requests instead of calling a provider.
type logProviderClient struct {
	logger *slog.Logger
}

func (c *logProviderClient) Sync(ctx context.Context, provider, remoteAccountID string) error {
	c.logger.InfoContext(ctx, "wearable provider sync",
		"provider", provider,
		"remote_account_id", remoteAccountID)
	return nil
}
