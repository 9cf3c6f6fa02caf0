package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"ScheduledPublisher/internal/domain"
	"ScheduledPublisher/internal/logging"
	"ScheduledPublisher/internal/ports"
)

// PublisherDeps wires the driven adapters into the scheduled publisher.
type PublisherDeps struct {
	Repository ports.ContentRepository
	Profiles   ports.ProfileResolver
	Logger     *slog.Logger
}

// ScheduledPublisher publishes content whose release date has arrived and
// unpublishes content whose expiry date has arrived.
//
// It holds no state between sweeps. Callers must not run two sweeps at once.
type ScheduledPublisher struct {
	repository ports.ContentRepository
	profiles   ports.ProfileResolver
	logger     *slog.Logger
}

// NewScheduledPublisher constructs the sweep use case.
func NewScheduledPublisher(deps PublisherDeps) *ScheduledPublisher {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &ScheduledPublisher{
		repository: deps.Repository,
		profiles:   deps.Profiles,
		logger:     logger,
	}
}

// RunSweep processes all content due for release, then all content due for
// expiry, and returns the number of successful transitions.
//
// A rejected transition is logged and skipped. A failing repository call
// aborts the sweep: the error is returned and no later item is attempted.
func (p *ScheduledPublisher) RunSweep(ctx context.Context) (int, error) {
	logger := p.logger.With("sweep_id", uuid.NewString())

	released, err := p.releaseDue(ctx, logger)
	if err != nil {
		return 0, err
	}

	expired, err := p.expireDue(ctx, logger, released)
	if err != nil {
		return 0, err
	}

	return released + expired, nil
}

func (p *ScheduledPublisher) releaseDue(ctx context.Context, logger *slog.Logger) (int, error) {
	items, err := p.repository.ListDueForRelease(ctx)
	if err != nil {
		logger.Error("cannot list content for release", "error", err)
		return 0, fmt.Errorf("list content for release: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}
	logger.Debug("content needs to be published", "count", len(items))

	counter := 0
	for i := range items {
		item := &items[i]
		ok, err := p.release(ctx, logger, item)
		if err != nil {
			logger.Error("error publishing content", "content_id", item.ID, "completed", counter, "error", err)
			return counter, fmt.Errorf("publish content %d: %w", item.ID, err)
		}
		if ok {
			counter++
		}
	}
	return counter, nil
}

func (p *ScheduledPublisher) release(ctx context.Context, logger *slog.Logger, item *domain.Content) (bool, error) {
	item.ReleaseDate = nil

	writer, err := p.profiles.WriterProfile(ctx, *item)
	if err != nil {
		return false, fmt.Errorf("resolve writer %d: %w", item.WriterID, err)
	}

	outcome, err := p.repository.PublishWithOutcome(ctx, item, writer.ID)
	if err != nil {
		return false, err
	}
	if outcome.Success {
		return true, nil
	}

	if outcome.Err != nil {
		logger.Error("could not publish content on its scheduled release",
			"content_id", item.ID, "status", outcome.Status, "error", outcome.Err)
	} else {
		logger.Warn("could not publish content on its scheduled release",
			"content_id", item.ID, "status", outcome.Status)
	}
	return false, nil
}

func (p *ScheduledPublisher) expireDue(ctx context.Context, logger *slog.Logger, released int) (int, error) {
	items, err := p.repository.ListDueForExpiry(ctx)
	if err != nil {
		logger.Error("cannot list content for expiry", "completed", released, "error", err)
		return 0, fmt.Errorf("list content for expiry: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}
	logger.Debug("content needs to be unpublished", "count", len(items))

	counter := 0
	for i := range items {
		item := &items[i]
		ok, err := p.expire(ctx, item)
		if err != nil {
			logger.Error("error unpublishing content", "content_id", item.ID, "completed", released+counter, "error", err)
			return counter, fmt.Errorf("unpublish content %d: %w", item.ID, err)
		}
		if !ok {
			logger.Warn("could not unpublish content on its scheduled expiry", "content_id", item.ID)
			continue
		}
		counter++
	}
	return counter, nil
}

func (p *ScheduledPublisher) expire(ctx context.Context, item *domain.Content) (bool, error) {
	item.ExpireDate = nil

	writer, err := p.profiles.WriterProfile(ctx, *item)
	if err != nil {
		return false, fmt.Errorf("resolve writer %d: %w", item.WriterID, err)
	}

	return p.repository.Unpublish(ctx, item, writer.ID)
}
