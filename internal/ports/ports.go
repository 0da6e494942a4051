package ports

import (
	"context"
	"time"

	"CodeNews/internal/domain"
)

// ItemSource pulls fresh items from upstream feeds.
type ItemSource interface {
	FetchSince(ctx context.Context, since time.Time) ([]domain.Item, error)
}

// ItemRepository persists items and the learned engine state.
type ItemRepository interface {
	KnownIDs(ctx context.Context, ids []string) (map[string]bool, error)
	GetItem(ctx context.Context, id string) (domain.Item, bool, error)
	SaveItem(ctx context.Context, item domain.Item) error
	UpdateItem(ctx context.Context, item domain.Item) error
	DigestCandidates(ctx context.Context) ([]domain.Item, error)

	SaveModel(ctx context.Context, weights map[string]domain.TermWeight, threshold float64) error
	// LoadModel reports hasThreshold=false when no threshold was ever
	// persisted; a saved threshold of exactly zero is a legitimate value.
	LoadModel(ctx context.Context) (weights map[string]domain.TermWeight, threshold float64, hasThreshold bool, err error)

	SaveFeedback(ctx context.Context, event domain.FeedbackEvent) error
	AppliedFeedbackKeys(ctx context.Context) ([]string, error)

	SaveDigest(ctx context.Context, record domain.DigestRecord) error
}

// Notifier delivers a single item notification to the user channel.
type Notifier interface {
	NotifyItem(ctx context.Context, item domain.Item) error
}

// DigestPublisher turns a rendered digest into a public page.
type DigestPublisher interface {
	Publish(ctx context.Context, title, htmlContent string) (string, error)
}

// Summarizer produces a headline and short summary for a digest item.
type Summarizer interface {
	Summarize(ctx context.Context, item domain.Item) (headline, summary string, err error)
}

// Scheduler controls when jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
