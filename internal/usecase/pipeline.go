package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"CodeNews/internal/digest"
	"CodeNews/internal/domain"
	"CodeNews/internal/engine"
	"CodeNews/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.ItemSource
	Repository ports.ItemRepository
	Engine     *engine.Engine
	Notifier   ports.Notifier
	Publisher  ports.DigestPublisher
	Summarizer ports.Summarizer
	Logger     *slog.Logger
	MaxItemAge time.Duration
}

// Pipeline implements the scan, feedback and digest workflows around the
// relevance engine. All external I/O happens here; the engine itself only
// ever sees already-resolved data.
type Pipeline struct {
	source     ports.ItemSource
	repository ports.ItemRepository
	engine     *engine.Engine
	notifier   ports.Notifier
	publisher  ports.DigestPublisher
	summarizer ports.Summarizer
	logger     *slog.Logger
	maxItemAge time.Duration
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:     deps.Source,
		repository: deps.Repository,
		engine:     deps.Engine,
		notifier:   deps.Notifier,
		publisher:  deps.Publisher,
		summarizer: deps.Summarizer,
		logger:     deps.Logger,
		maxItemAge: deps.MaxItemAge,
	}
}

// RunScan rescores the backlog, ingests new items, scores them, and
// notifies those that clear the acceptance threshold within the
// notification budget. Items already scored before a cancellation keep
// their state; there is no rollback across items.
func (p *Pipeline) RunScan(ctx context.Context, now time.Time) error {
	if p.source == nil || p.engine == nil {
		return nil
	}

	// Backlog first, so items held back earlier benefit from feedback
	// learned since the last cycle.
	if err := p.RescorePending(ctx); err != nil {
		p.warn("backlog rescore failed", "error", err)
	}

	items, err := p.source.FetchSince(ctx, now.Add(-p.maxItemAge))
	if err != nil {
		return fmt.Errorf("fetch items: %w", err)
	}

	known := map[string]bool{}
	if p.repository != nil && len(items) > 0 {
		ids := make([]string, len(items))
		for i, item := range items {
			ids[i] = item.ID
		}
		known, err = p.repository.KnownIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("load known ids: %w", err)
		}
	}

	notified := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if known[item.ID] {
			continue
		}

		item.FetchedAt = now
		item.State = domain.StatePending

		if p.stale(item, now) {
			_ = item.Discard()
			p.saveItem(ctx, item)
			continue
		}

		dec := p.engine.EvaluateItem(&item)
		p.saveItem(ctx, item)

		if !dec.Notify || p.notifier == nil {
			continue
		}

		if err := p.notifier.NotifyItem(ctx, item); err != nil {
			p.warn("notification failed", "item", item.ID, "error", err)
			continue
		}
		if err := item.MarkNotified(); err != nil {
			return err
		}
		p.updateItem(ctx, item)
		notified++
	}

	p.persistModel(ctx)
	p.info("scan complete", "fetched", len(items), "notified", notified)
	return nil
}

// HandleFeedback folds one already-parsed feedback event into the engine.
// Events for unknown items and replays of applied events are no-ops.
func (p *Pipeline) HandleFeedback(ctx context.Context, event domain.FeedbackEvent) error {
	if p.engine == nil || p.repository == nil {
		return nil
	}

	item, found, err := p.repository.GetItem(ctx, event.ItemID)
	if err != nil {
		return fmt.Errorf("load item %s: %w", event.ItemID, err)
	}
	if !found {
		p.warn("feedback for unknown item ignored", "item", event.ItemID)
		return nil
	}

	if !p.engine.ApplyFeedback(item, event) {
		p.info("duplicate feedback ignored", "item", event.ItemID, "signal", event.Signal)
		return nil
	}

	if err := p.repository.SaveFeedback(ctx, event); err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}
	p.persistModel(ctx)
	return nil
}

// RescorePending recomputes scores for items that are still eligible for
// notification or digest, so fresh learning reaches the backlog.
func (p *Pipeline) RescorePending(ctx context.Context) error {
	if p.engine == nil || p.repository == nil {
		return nil
	}

	items, err := p.repository.DigestCandidates(ctx)
	if err != nil {
		return fmt.Errorf("load pending items: %w", err)
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.engine.ScoreItem(&item)
		p.updateItem(ctx, item)
	}
	return nil
}

// RunDigest curates the accumulated backlog into a digest document. With
// dryRun the selection is previewed without publishing or state changes;
// a later real run returns the same selection. Returns
// engine.ErrInsufficientContent when too few items qualify.
func (p *Pipeline) RunDigest(ctx context.Context, now time.Time, dryRun bool) (digest.Document, error) {
	if p.engine == nil || p.repository == nil {
		return digest.Document{}, nil
	}

	candidates, err := p.repository.DigestCandidates(ctx)
	if err != nil {
		return digest.Document{}, fmt.Errorf("load candidates: %w", err)
	}

	selected, err := p.engine.Curate(candidates, dryRun)
	if err != nil {
		if errors.Is(err, engine.ErrInsufficientContent) {
			p.warn("digest skipped", "reason", err)
		}
		return digest.Document{}, err
	}

	// Previews render from the items' own titles; summarization costs API
	// quota and only runs when the digest actually ships.
	var headlines map[string]digest.Headline
	if !dryRun {
		headlines = p.headlines(ctx, selected)
	}

	doc, err := digest.Build(now, selected, headlines)
	if err != nil {
		return digest.Document{}, err
	}

	if dryRun {
		return doc, nil
	}

	pageURL := ""
	if p.publisher != nil {
		pageURL, err = p.publisher.Publish(ctx, doc.Title, doc.HTML)
		if err != nil {
			return digest.Document{}, fmt.Errorf("publish digest: %w", err)
		}
	}

	for _, item := range selected {
		p.updateItem(ctx, item)
	}

	record := domain.DigestRecord{
		ID:          ulid.Make().String(),
		Title:       doc.Title,
		ItemIDs:     doc.ItemIDs,
		PageURL:     pageURL,
		GeneratedAt: now,
	}
	if err := p.repository.SaveDigest(ctx, record); err != nil {
		return digest.Document{}, fmt.Errorf("save digest record: %w", err)
	}

	p.info("digest published", "items", len(selected), "url", pageURL)
	return doc, nil
}

func (p *Pipeline) headlines(ctx context.Context, items []domain.Item) map[string]digest.Headline {
	if p.summarizer == nil {
		return nil
	}

	headlines := make(map[string]digest.Headline, len(items))
	for _, item := range items {
		title, summary, err := p.summarizer.Summarize(ctx, item)
		if err != nil {
			p.warn("summarization failed, using item text", "item", item.ID, "error", err)
			continue
		}
		headlines[item.ID] = digest.Headline{Title: title, Summary: summary}
	}
	return headlines
}

func (p *Pipeline) stale(item domain.Item, now time.Time) bool {
	// Items without a publication date are assumed fresh.
	if item.PublishedAt.IsZero() {
		return false
	}
	return now.Sub(item.PublishedAt) > p.maxItemAge
}

func (p *Pipeline) persistModel(ctx context.Context) {
	if p.repository == nil {
		return
	}
	if err := p.repository.SaveModel(ctx, p.engine.SnapshotModel(), p.engine.Threshold()); err != nil {
		p.warn("model snapshot not persisted", "error", err)
	}
}

func (p *Pipeline) saveItem(ctx context.Context, item domain.Item) {
	if p.repository == nil {
		return
	}
	if err := p.repository.SaveItem(ctx, item); err != nil {
		p.warn("item not saved", "item", item.ID, "error", err)
	}
}

func (p *Pipeline) updateItem(ctx context.Context, item domain.Item) {
	if p.repository == nil {
		return
	}
	if err := p.repository.UpdateItem(ctx, item); err != nil {
		p.warn("item not updated", "item", item.ID, "error", err)
	}
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
