package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"CodeNews/internal/config"
	"CodeNews/internal/domain"
	"CodeNews/internal/engine"
)

type fakeSource struct {
	items []domain.Item
}

func (f *fakeSource) FetchSince(_ context.Context, _ time.Time) ([]domain.Item, error) {
	return f.items, nil
}

type fakeRepo struct {
	items    map[string]domain.Item
	feedback []domain.FeedbackEvent
	digests  []domain.DigestRecord
	weights  map[string]domain.TermWeight
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[string]domain.Item{}}
}

func (f *fakeRepo) KnownIDs(_ context.Context, ids []string) (map[string]bool, error) {
	known := map[string]bool{}
	for _, id := range ids {
		if _, ok := f.items[id]; ok {
			known[id] = true
		}
	}
	return known, nil
}

func (f *fakeRepo) GetItem(_ context.Context, id string) (domain.Item, bool, error) {
	item, ok := f.items[id]
	return item, ok, nil
}

func (f *fakeRepo) SaveItem(_ context.Context, item domain.Item) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeRepo) UpdateItem(_ context.Context, item domain.Item) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeRepo) DigestCandidates(_ context.Context) ([]domain.Item, error) {
	var out []domain.Item
	for _, item := range f.items {
		if item.State == domain.StatePending || item.State == domain.StateNotified {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeRepo) SaveModel(_ context.Context, weights map[string]domain.TermWeight, _ float64) error {
	f.weights = weights
	return nil
}

func (f *fakeRepo) LoadModel(_ context.Context) (map[string]domain.TermWeight, float64, bool, error) {
	return f.weights, 0, false, nil
}

func (f *fakeRepo) SaveFeedback(_ context.Context, event domain.FeedbackEvent) error {
	f.feedback = append(f.feedback, event)
	return nil
}

func (f *fakeRepo) AppliedFeedbackKeys(_ context.Context) ([]string, error) {
	keys := make([]string, len(f.feedback))
	for i, event := range f.feedback {
		keys[i] = event.Key()
	}
	return keys, nil
}

func (f *fakeRepo) SaveDigest(_ context.Context, record domain.DigestRecord) error {
	f.digests = append(f.digests, record)
	return nil
}

type fakeNotifier struct {
	sent []string
	fail bool
}

func (f *fakeNotifier) NotifyItem(_ context.Context, item domain.Item) error {
	if f.fail {
		return errors.New("telegram unavailable")
	}
	f.sent = append(f.sent, item.ID)
	return nil
}

type fakeSummarizer struct {
	calls int
}

func (f *fakeSummarizer) Summarize(_ context.Context, item domain.Item) (string, string, error) {
	f.calls++
	return "Edited: " + item.Title, "Editorial summary.", nil
}

type fakePublisher struct {
	published int
}

func (f *fakePublisher) Publish(_ context.Context, _, _ string) (string, error) {
	f.published++
	return "https://telegra.ph/test-page", nil
}

func pipelineEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		Keywords:                []string{"golang"},
		LearningRate:            0.1,
		MinFeedbackCount:        5,
		NotificationThreshold:   0.1,
		DigestThreshold:         0.3,
		ThresholdStep:           0.1,
		WeightMin:               -1,
		WeightMax:               1,
		SeedWeight:              0.5,
		MaxNotificationsPerHour: 50,
		BlogMinItems:            1,
		BlogMaxItems:            15,
		MaxItemAgeHours:         48,
	}
}

func newTestPipeline(source *fakeSource, repo *fakeRepo, notifier *fakeNotifier, publisher *fakePublisher) *Pipeline {
	return NewPipeline(PipelineDeps{
		Source:     source,
		Repository: repo,
		Engine:     engine.New(pipelineEngineConfig(), nil),
		Notifier:   notifier,
		Publisher:  publisher,
		MaxItemAge: 48 * time.Hour,
	})
}

func TestRunScanNotifiesRelevantItems(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{items: []domain.Item{
		{ID: "hit", Title: "golang release notes", PublishedAt: now.Add(-time.Hour)},
		{ID: "miss", Title: "celebrity gossip roundup", PublishedAt: now.Add(-time.Hour)},
	}}
	repo := newFakeRepo()
	notifier := &fakeNotifier{}

	p := newTestPipeline(source, repo, notifier, nil)
	if err := p.RunScan(context.Background(), now); err != nil {
		t.Fatalf("RunScan: %v", err)
	}

	if len(notifier.sent) != 1 || notifier.sent[0] != "hit" {
		t.Fatalf("expected only the relevant item notified, got %v", notifier.sent)
	}
	if repo.items["hit"].State != domain.StateNotified {
		t.Errorf("notified item state not persisted: %s", repo.items["hit"].State)
	}
	if repo.items["miss"].State != domain.StatePending {
		t.Errorf("below-threshold item should stay pending: %s", repo.items["miss"].State)
	}
	if repo.items["miss"].Score != 0 {
		t.Errorf("unmatched item must score zero, got %g", repo.items["miss"].Score)
	}
	if repo.weights == nil {
		t.Error("model snapshot should be persisted after a scan")
	}
}

func TestRunScanSkipsKnownItems(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{items: []domain.Item{
		{ID: "seen", Title: "golang release notes", PublishedAt: now.Add(-time.Hour)},
	}}
	repo := newFakeRepo()
	repo.items["seen"] = domain.Item{ID: "seen", State: domain.StateNotified}
	notifier := &fakeNotifier{}

	p := newTestPipeline(source, repo, notifier, nil)
	if err := p.RunScan(context.Background(), now); err != nil {
		t.Fatalf("RunScan: %v", err)
	}

	if len(notifier.sent) != 0 {
		t.Fatalf("known items must not be re-notified, got %v", notifier.sent)
	}
	if repo.items["seen"].State != domain.StateNotified {
		t.Errorf("known item state should be untouched: %s", repo.items["seen"].State)
	}
}

func TestRunScanDiscardsStaleItems(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{items: []domain.Item{
		{ID: "stale", Title: "golang from last month", PublishedAt: now.Add(-30 * 24 * time.Hour)},
	}}
	repo := newFakeRepo()
	notifier := &fakeNotifier{}

	p := newTestPipeline(source, repo, notifier, nil)
	if err := p.RunScan(context.Background(), now); err != nil {
		t.Fatalf("RunScan: %v", err)
	}

	if len(notifier.sent) != 0 {
		t.Fatalf("stale items must not be notified, got %v", notifier.sent)
	}
	if repo.items["stale"].State != domain.StateDiscarded {
		t.Errorf("stale item should be discarded: %s", repo.items["stale"].State)
	}
}

func TestRunScanKeepsItemPendingOnNotifierError(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{items: []domain.Item{
		{ID: "hit", Title: "golang release notes", PublishedAt: now.Add(-time.Hour)},
	}}
	repo := newFakeRepo()
	notifier := &fakeNotifier{fail: true}

	p := newTestPipeline(source, repo, notifier, nil)
	if err := p.RunScan(context.Background(), now); err != nil {
		t.Fatalf("RunScan: %v", err)
	}

	if repo.items["hit"].State != domain.StatePending {
		t.Errorf("failed notification must leave the item pending: %s", repo.items["hit"].State)
	}
}

func TestRunScanRescoresBacklog(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.items["held"] = domain.Item{ID: "held", Title: "golang profiling guide", Score: 0, State: domain.StatePending}

	p := newTestPipeline(&fakeSource{}, repo, nil, nil)
	if err := p.RunScan(context.Background(), now); err != nil {
		t.Fatalf("RunScan: %v", err)
	}

	if repo.items["held"].Score <= 0 {
		t.Errorf("backlog item should pick up current weights during a scan, got %g", repo.items["held"].Score)
	}
}

func TestHandleFeedbackPersistsOnceAndIgnoresReplay(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.items["a"] = domain.Item{ID: "a", Title: "golang generics deep dive", Score: 0.5, State: domain.StateNotified}

	p := newTestPipeline(&fakeSource{}, repo, nil, nil)
	event := domain.FeedbackEvent{ItemID: "a", Signal: domain.SignalPositive, OccurredAt: time.Unix(1000, 0)}

	if err := p.HandleFeedback(context.Background(), event); err != nil {
		t.Fatalf("HandleFeedback: %v", err)
	}
	if err := p.HandleFeedback(context.Background(), event); err != nil {
		t.Fatalf("HandleFeedback replay: %v", err)
	}

	if len(repo.feedback) != 1 {
		t.Fatalf("replayed feedback must be stored once, got %d records", len(repo.feedback))
	}
	if repo.weights == nil {
		t.Error("model snapshot should be persisted after feedback")
	}
	if repo.weights["generics"].Weight <= 0 {
		t.Errorf("positive feedback should raise term weights, got %g", repo.weights["generics"].Weight)
	}
}

func TestHandleFeedbackUnknownItemIsNoop(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	p := newTestPipeline(&fakeSource{}, repo, nil, nil)

	event := domain.FeedbackEvent{ItemID: "ghost", Signal: domain.SignalNegative, OccurredAt: time.Unix(1, 0)}
	if err := p.HandleFeedback(context.Background(), event); err != nil {
		t.Fatalf("HandleFeedback: %v", err)
	}
	if len(repo.feedback) != 0 {
		t.Fatalf("feedback for unknown items must not be stored, got %d", len(repo.feedback))
	}
}

func TestRunDigestDryRunThenCommit(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.items["a"] = domain.Item{ID: "a", Title: "A", Score: 0.9, State: domain.StateNotified, PublishedAt: now.Add(-2 * time.Hour)}
	repo.items["b"] = domain.Item{ID: "b", Title: "B", Score: 0.5, State: domain.StatePending, PublishedAt: now.Add(-3 * time.Hour)}
	publisher := &fakePublisher{}

	p := newTestPipeline(&fakeSource{}, repo, nil, publisher)

	preview, err := p.RunDigest(context.Background(), now, true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if publisher.published != 0 {
		t.Fatal("dry run must not publish")
	}
	if len(repo.digests) != 0 {
		t.Fatal("dry run must not record a digest")
	}
	for id, item := range repo.items {
		if item.State == domain.StateDigested {
			t.Fatalf("dry run must not change item states, %s is digested", id)
		}
	}

	committed, err := p.RunDigest(context.Background(), now, false)
	if err != nil {
		t.Fatalf("real run: %v", err)
	}
	if len(committed.ItemIDs) != len(preview.ItemIDs) {
		t.Fatalf("real run selection diverged from preview: %v vs %v", committed.ItemIDs, preview.ItemIDs)
	}
	if publisher.published != 1 {
		t.Fatalf("expected exactly one publish, got %d", publisher.published)
	}
	if len(repo.digests) != 1 {
		t.Fatalf("expected one digest record, got %d", len(repo.digests))
	}
	if repo.digests[0].PageURL != "https://telegra.ph/test-page" {
		t.Errorf("digest record should keep the page url: %s", repo.digests[0].PageURL)
	}
	for _, id := range committed.ItemIDs {
		if repo.items[id].State != domain.StateDigested {
			t.Errorf("committed item %s should be digested: %s", id, repo.items[id].State)
		}
	}

	_, err = p.RunDigest(context.Background(), now, false)
	if !errors.Is(err, engine.ErrInsufficientContent) {
		t.Fatalf("digested items must not be reselected, got err=%v", err)
	}
}

func TestRunDigestDryRunSkipsSummarizer(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.items["a"] = domain.Item{ID: "a", Title: "A", Score: 0.9, State: domain.StateNotified, PublishedAt: now.Add(-time.Hour)}
	summarizer := &fakeSummarizer{}

	p := NewPipeline(PipelineDeps{
		Repository: repo,
		Engine:     engine.New(pipelineEngineConfig(), nil),
		Publisher:  &fakePublisher{},
		Summarizer: summarizer,
		MaxItemAge: 48 * time.Hour,
	})

	if _, err := p.RunDigest(context.Background(), now, true); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if summarizer.calls != 0 {
		t.Fatalf("dry run must not spend summarizer quota, got %d calls", summarizer.calls)
	}

	doc, err := p.RunDigest(context.Background(), now, false)
	if err != nil {
		t.Fatalf("real run: %v", err)
	}
	if summarizer.calls != 1 {
		t.Fatalf("real run should summarize each selected item, got %d calls", summarizer.calls)
	}
	if !strings.Contains(doc.Markdown, "Edited: A") {
		t.Errorf("published digest should use generated headlines:\n%s", doc.Markdown)
	}
}

func TestRescorePendingAppliesFreshWeights(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.items["a"] = domain.Item{ID: "a", Title: "golang scheduler internals", State: domain.StatePending}

	p := newTestPipeline(&fakeSource{}, repo, nil, nil)
	if err := p.RescorePending(context.Background()); err != nil {
		t.Fatalf("RescorePending: %v", err)
	}

	if repo.items["a"].Score <= 0 {
		t.Errorf("seeded keyword should produce a positive score, got %g", repo.items["a"].Score)
	}
	if len(repo.items["a"].MatchedKeywords) == 0 {
		t.Error("matched keywords should be recorded")
	}
}
