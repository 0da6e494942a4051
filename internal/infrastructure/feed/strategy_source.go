package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"CodeNews/internal/config"
	"CodeNews/internal/domain"
	"CodeNews/internal/ports"
	"CodeNews/internal/scanner"
)

// StrategySource implements ItemSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	feeds    []config.FeedConfig
	logger   *slog.Logger
}

var _ ports.ItemSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with config-defined feeds.
func NewStrategySource(reg *scanner.Registry, feeds []config.FeedConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		feeds:    feeds,
		logger:   log,
	}
}

// FetchSince iterates over enabled feeds, executes their scanners and
// deduplicates by item identity across feeds.
func (s *StrategySource) FetchSince(ctx context.Context, since time.Time) ([]domain.Item, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch since", "feeds", len(s.feeds), "since", since.Format(time.RFC3339))

	seen := map[string]struct{}{}
	var aggregated []domain.Item
	for _, feed := range s.feeds {
		if !feed.IsEnabled() {
			continue
		}

		strategy, err := s.registry.Resolve(feed.Scanner)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", feed.Name, err)
		}

		req := scanner.Request{
			Since:    since,
			FeedName: feed.Name,
			URL:      feed.URL,
			MaxItems: feed.MaxItems,
			Options:  feed.Options,
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("scan feed %s: %w", feed.Name, err)
		}

		for _, item := range results {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			if item.Source == "" {
				item.Source = feed.Name
			}
			aggregated = append(aggregated, item)
		}
		s.debug("feed produced items", "feed", feed.Name, "count", len(results))
	}

	s.debug("strategy source done", "total_items", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
