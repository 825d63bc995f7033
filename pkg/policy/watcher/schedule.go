package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule triggers a redistribution on a cron expression.
type Schedule struct {
	expr    string
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewSchedule creates a schedule for a standard five-field cron expression.
func NewSchedule(expr string, logger *slog.Logger) (*Schedule, error) {
	if _, err := cron.ParseStandard(expr); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Schedule{
		expr:   expr,
		cron:   cron.New(),
		logger: logger.With("component", "policy.schedule"),
	}, nil
}

// Start calls trigger at every scheduled time until ctx is done or Stop is
// called. A trigger still running when the next time arrives delays that
// run rather than overlapping it.
func (s *Schedule) Start(ctx context.Context, trigger Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("schedule already running")
	}

	job := cron.NewChain(cron.DelayIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		s.logger.Info("scheduled distribution", "schedule", s.expr)
		trigger(ctx, "schedule")
	}))
	if _, err := s.cron.AddJob(s.expr, job); err != nil {
		return fmt.Errorf("failed to schedule distribution: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("distribution schedule started", "schedule", s.expr)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the schedule and waits for a running trigger to return.
func (s *Schedule) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("distribution schedule stopped")
	}
}

// IsRunning returns true if the schedule is running.
func (s *Schedule) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled time, or nil when not started.
func (s *Schedule) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
