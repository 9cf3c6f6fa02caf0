package ports

import (
	"context"
	"time"

	"ScheduledPublisher/internal/domain"
)

// ContentRepository lists scheduled content and performs publish state transitions.
type ContentRepository interface {
	ListDueForRelease(ctx context.Context) ([]domain.Content, error)
	ListDueForExpiry(ctx context.Context) ([]domain.Content, error)
	// PublishWithOutcome persists item and attempts to publish it. A rejected
	// publish is reported through the outcome; the error is reserved for faults.
	PublishWithOutcome(ctx context.Context, item *domain.Content, userID int64) (domain.PublishOutcome, error)
	// Unpublish persists item and attempts to unpublish it.
	Unpublish(ctx context.Context, item *domain.Content, userID int64) (bool, error)
}

// ProfileResolver resolves the writer a transition is attributed to.
type ProfileResolver interface {
	WriterProfile(ctx context.Context, item domain.Content) (domain.Profile, error)
}

// Notifier streams sweep summaries to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when sweeps execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
