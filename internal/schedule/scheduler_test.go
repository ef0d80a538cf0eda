package schedule

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noopJob(ctx context.Context) (int, error) { return 0, nil }

func TestNew(t *testing.T) {
	t.Parallel()

	s, err := New("@every 1m", "@every 30m", noopJob, noopJob, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, s)

	s.Start()
	s.Stop()
}

func TestNew_InvalidSchedules(t *testing.T) {
	t.Parallel()

	_, err := New("not a schedule", "@every 30m", noopJob, noopJob, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatch schedule")

	_, err = New("@every 1m", "whenever", noopJob, noopJob, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sweep schedule")
}
