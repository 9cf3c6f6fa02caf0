package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ScheduledPublisher/internal/logging"
	"ScheduledPublisher/internal/ports"
)

// CronScheduler triggers jobs on a cron expression using robfig/cron.
type CronScheduler struct {
	spec   string
	loc    *time.Location
	logger *slog.Logger
	parser cron.Parser

	mu sync.Mutex
	c  *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
// Both 5-field and 6-field (with seconds) specs are accepted, as are
// descriptors like "@every 1m".
func NewCronScheduler(spec string, loc *time.Location, logger *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &CronScheduler{
		spec:   spec,
		loc:    loc,
		logger: logger,
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Validate reports whether the configured expression parses.
func (c *CronScheduler) Validate() error {
	if _, err := c.parser.Parse(c.spec); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", c.spec, err)
	}
	return nil
}

// Start registers job and begins triggering it. Calling Start on a running
// scheduler is a no-op. The scheduler keeps running until Stop is called.
func (c *CronScheduler) Start(_ context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.c != nil {
		return nil
	}

	cl := cronLogger{logger: c.logger}
	runner := cron.New(
		cron.WithParser(c.parser),
		cron.WithLocation(c.loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl)),
	)

	if _, err := runner.AddFunc(c.spec, func() { job(time.Now().In(c.loc)) }); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", c.spec, err)
	}

	runner.Start()
	c.c = runner
	c.logger.Info("scheduler started", "spec", c.spec, "tz", c.loc.String())

	return nil
}

// Stop halts triggering and waits for a running job to finish or ctx to expire.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	runner := c.c
	c.c = nil
	c.mu.Unlock()

	if runner == nil {
		return nil
	}

	select {
	case <-runner.Stop().Done():
		c.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for running sweep: %w", ctx.Err())
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
