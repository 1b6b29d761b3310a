package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerConfig configures automatic retention pruning.
type SchedulerConfig struct {
	// Schedule is a standard cron expression, e.g. "0 3 * * *" for daily
	// at 3 AM. Empty disables the scheduler.
	Schedule string `yaml:"schedule"`

	// Retention is how long records are kept. Records older than this are
	// pruned on each run. Default: 30 days.
	Retention time.Duration `yaml:"retention"`
}

// Scheduler prunes old usage records on a cron schedule.
type Scheduler struct {
	recorder *Recorder
	config   SchedulerConfig
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a retention scheduler for the recorder.
func NewScheduler(recorder *Recorder, config SchedulerConfig) *Scheduler {
	if config.Retention <= 0 {
		config.Retention = 30 * 24 * time.Hour
	}

	return &Scheduler{
		recorder: recorder,
		config:   config,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "history.scheduler"),
	}
}

// Start begins scheduled pruning. If no schedule is configured the
// scheduler does nothing. The scheduler stops when the context is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.Schedule == "" {
		s.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.config.Schedule, err)
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runPruning(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started",
		"schedule", s.config.Schedule,
		"retention", s.config.Retention,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts scheduled pruning. Safe to call multiple times.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cron.Stop()
	s.running = false
	s.logger.Info("retention scheduler stopped")
}

// runPruning executes one pruning cycle.
func (s *Scheduler) runPruning(ctx context.Context) {
	cutoff := time.Now().Add(-s.config.Retention)

	deleted, err := s.recorder.Prune(ctx, cutoff)
	if err != nil {
		s.logger.Error("scheduled pruning failed", "error", err)
		return
	}

	if deleted > 0 {
		s.logger.Info("scheduled pruning completed",
			"deleted_count", deleted,
			"cutoff", cutoff,
		)
	}
}
