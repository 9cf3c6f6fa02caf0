package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ScheduledPublisher/internal/logging"
	"ScheduledPublisher/internal/ports"
)

// Sweeper runs one scheduled publishing sweep.
type Sweeper interface {
	RunSweep(ctx context.Context) (int, error)
}

// Scheduler wires the cron-like driver with the publishing sweep.
type Scheduler struct {
	driver   ports.Scheduler
	sweeper  Sweeper
	notifier ports.Notifier
	logger   *slog.Logger

	// running guards against overlapping sweeps.
	running sync.Mutex
}

// NewScheduler returns a helper to start/stop recurring sweeps. notifier may be nil.
func NewScheduler(driver ports.Scheduler, sweeper Sweeper, notifier ports.Notifier, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scheduler{driver: driver, sweeper: sweeper, notifier: notifier, logger: logger}
}

// Start registers the sweep with the provided scheduler. Sweeps started by the
// driver do not observe cancellation of ctx; Stop waits for them instead.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.sweeper == nil {
		return nil
	}

	sweepCtx := context.WithoutCancel(ctx)
	job := func(trigger time.Time) {
		if _, err := s.trigger(sweepCtx, trigger); err != nil {
			s.logger.Error("scheduled sweep failed", "trigger", trigger, "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// RunOnce performs a single sweep synchronously.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	if s.sweeper == nil {
		return 0, nil
	}
	return s.trigger(ctx, time.Now())
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

func (s *Scheduler) trigger(ctx context.Context, trigger time.Time) (int, error) {
	if !s.running.TryLock() {
		s.logger.Warn("previous sweep still running, skipping", "trigger", trigger)
		return 0, nil
	}
	defer s.running.Unlock()

	start := time.Now()
	count, err := s.sweeper.RunSweep(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("sweep completed", "transitions", count, "took", time.Since(start))

	if count > 0 && s.notifier != nil {
		digest := fmt.Sprintf("Scheduled publishing: %d item(s) published or unpublished at %s",
			count, trigger.Format(time.RFC3339))
		if err := s.notifier.PublishDigest(ctx, digest); err != nil {
			s.logger.Warn("cannot send sweep summary", "error", err)
		}
	}
	return count, nil
}
