package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"ScheduledPublisher/internal/config"
	"ScheduledPublisher/internal/infrastructure/scheduler"
	"ScheduledPublisher/internal/infrastructure/storage"
	"ScheduledPublisher/internal/infrastructure/telegram"
	"ScheduledPublisher/internal/logging"
	"ScheduledPublisher/internal/ports"
	"ScheduledPublisher/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	db        *sql.DB
	scheduler *usecase.Scheduler
	logger    *slog.Logger
}

// New opens storage, applies migrations and builds the sweep scheduler.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(db, cfg.Database.Driver); err != nil {
		_ = db.Close()
		return nil, err
	}

	publisher := usecase.NewScheduledPublisher(usecase.PublisherDeps{
		Repository: storage.NewContentRepository(db, cfg.Database.Driver, nil),
		Profiles:   storage.NewProfileRepository(db, cfg.Database.Driver),
		Logger:     baseLogger.With("component", "publisher"),
	})

	driver := scheduler.NewCronScheduler(
		cfg.Scheduler.CronExpression,
		cfg.Scheduler.Location(),
		baseLogger.With("component", "cron"),
	)
	if err := driver.Validate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	sched := usecase.NewScheduler(driver, publisher, notifier, baseLogger.With("component", "scheduler"))

	return &Application{cfg: cfg, db: db, scheduler: sched, logger: baseLogger}, nil
}

// Run starts the recurring sweep and blocks until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	return nil
}

// RunOnce performs a single sweep and returns its transition count.
func (a *Application) RunOnce(ctx context.Context) (int, error) {
	defer a.close()

	return a.scheduler.RunOnce(ctx)
}

func (a *Application) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("close database", "error", err)
	}
}
