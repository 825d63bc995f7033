package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner deletes entries older than a cutoff.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Time) (int, error)
}

// Scheduler prunes the ledger on a cron schedule, keeping RetentionDays of
// history.
type Scheduler struct {
	pruner        Pruner
	schedule      string
	retentionDays int
	cron          *cron.Cron
	mu            sync.Mutex
	logger        *slog.Logger
	running       bool
	now           func() time.Time
}

// NewScheduler creates a retention scheduler. A nil logger uses
// slog.Default.
func NewScheduler(pruner Pruner, schedule string, retentionDays int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		pruner:        pruner,
		schedule:      schedule,
		retentionDays: retentionDays,
		cron:          cron.New(),
		logger:        logger.With("component", "ledger.scheduler"),
		now:           time.Now,
	}
}

// Start begins scheduled pruning. It does nothing when the schedule is
// empty or retention is unlimited. The scheduler stops when ctx is done.
//
// Common cron expressions:
//   - "0 3 * * *"    - Daily at 3 AM
//   - "0 */6 * * *"  - Every 6 hours
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" || s.retentionDays <= 0 {
		s.logger.Info("ledger retention not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("ledger retention scheduler started",
		"schedule", s.schedule,
		"retention_days", s.retentionDays,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce prunes entries older than the retention window and returns the
// number deleted.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	cutoff := s.now().AddDate(0, 0, -s.retentionDays)

	deleted, err := s.pruner.Prune(ctx, cutoff)
	if err != nil {
		s.logger.Error("ledger pruning failed", "error", err)
		return 0
	}

	if deleted > 0 {
		s.logger.Info("ledger pruning completed", "deleted_count", deleted, "cutoff", cutoff)
	} else {
		s.logger.Debug("ledger pruning completed, no entries deleted")
	}
	return deleted
}

// Stop stops the scheduler and waits for a running prune to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("ledger retention scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled pruning time, or nil.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
