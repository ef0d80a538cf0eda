// Package schedule runs the periodic jobs the queue core expects an
// external scheduler to drive: the dispatch drain and the wearable sync
// sweep.
package schedule

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// SweepFunc enqueues scheduled syncs and reports how many were enqueued.
type SweepFunc func(ctx context.Context) (int, error)

// DrainFunc runs one dispatch pass and reports how many tasks ran.
type DrainFunc func(ctx context.Context) (int, error)

// Scheduler owns the cron runner.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New builds a scheduler with the dispatch drain and wearable sweep
// registered at the given cron schedules (robfig/cron syntax, @every
// shorthand included).
func New(drainSchedule, sweepSchedule string, drain DrainFunc, sweep SweepFunc, log *slog.Logger) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{cron: c, logger: log.With("component", "scheduler")}

	if _, err := c.AddFunc(drainSchedule, func() {
		if _, err := drain(context.Background()); err != nil {
			s.logger.Error("scheduled dispatch drain failed", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid dispatch schedule %q: %w", drainSchedule, err)
	}

	if _, err := c.AddFunc(sweepSchedule, func() {
		if _, err := sweep(context.Background()); err != nil {
			s.logger.Error("scheduled wearable sweep failed", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", sweepSchedule, err)
	}

	return s, nil
}

// Start begins running scheduled jobs in their own goroutines.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
