package engine

import (
	"log/slog"
	"sync"
	"time"

	"CodeNews/internal/config"
	"CodeNews/internal/domain"
)

// Engine owns the shared mutable state of the relevance core: the keyword
// model, the adaptive acceptance threshold, the notification budget and the
// set of already-applied feedback events. Every mutation goes through one
// mutex; the scheduled scan, the digest job and manual triggers can all
// call in concurrently. Nothing here blocks on network or disk.
type Engine struct {
	mu sync.Mutex

	cfg       config.EngineConfig
	model     *Model
	curator   *Curator
	throttle  *Throttle
	threshold float64
	applied   map[string]struct{}
	batch     thresholdBatch

	logger *slog.Logger
	now    func() time.Time
}

// Decision is the outcome of evaluating a single item.
type Decision struct {
	Score    float64
	Matched  []string
	Eligible bool // cleared the acceptance threshold
	Notify   bool // eligible and within the notification budget
}

// Stats is a point-in-time snapshot of the learned state.
type Stats struct {
	Terms           int
	PositiveTerms   int
	NegativeTerms   int
	AppliedFeedback int
	Threshold       float64
}

// New builds an engine from validated configuration. The configured
// interest keywords are seeded into the model so scoring works before any
// feedback arrives.
func New(cfg config.EngineConfig, logger *slog.Logger) *Engine {
	model := NewModel(cfg.DefaultWeight, cfg.WeightMin, cfg.WeightMax)
	for _, keyword := range cfg.Keywords {
		for term := range Terms(keyword) {
			model.Seed(term, cfg.SeedWeight)
		}
	}

	return &Engine{
		cfg:       cfg,
		model:     model,
		curator:   NewCurator(cfg.BlogMinItems, cfg.BlogMaxItems, cfg.DigestThreshold),
		throttle:  NewThrottle(cfg.MaxNotificationsPerHour, time.Hour),
		threshold: cfg.NotificationThreshold,
		applied:   make(map[string]struct{}),
		logger:    logger,
		now:       time.Now,
	}
}

// ScoreItem computes and records the item's relevance score and matched
// keyword set.
func (e *Engine) ScoreItem(item *domain.Item) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scoreLocked(item)
}

// EvaluateItem scores an item and decides whether it may be notified now.
// The notification budget is only consumed when the item is eligible.
func (e *Engine) EvaluateItem(item *domain.Item) Decision {
	e.mu.Lock()
	defer e.mu.Unlock()

	score := e.scoreLocked(item)
	dec := Decision{Score: score, Matched: item.MatchedKeywords}
	if score < e.threshold {
		return dec
	}
	dec.Eligible = true
	dec.Notify = e.throttle.TryAcquire(e.now())
	return dec
}

// ApplyFeedback folds one feedback event into the keyword model and the
// threshold batch. Replaying an already-applied event is a no-op and
// reports false.
func (e *Engine) ApplyFeedback(item domain.Item, event domain.FeedbackEvent) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := event.Key()
	if _, seen := e.applied[key]; seen {
		return false
	}
	e.applied[key] = struct{}{}

	terms := Terms(item.Title + " " + item.Summary)
	for term, delta := range feedbackDeltas(terms, event.Signal, e.cfg.LearningRate) {
		e.model.ApplyDelta(term, delta)
	}

	e.batch.observe(item.Score, event.Signal)
	if next, adapted := e.batch.adapt(e.threshold, e.cfg.ThresholdStep, e.cfg.MinFeedbackCount); adapted {
		if e.logger != nil {
			e.logger.Info("acceptance threshold adapted", "from", e.threshold, "to", next)
		}
		e.threshold = next
	}
	return true
}

// Curate runs digest selection over the supplied candidates. With dryRun
// the selection is returned without any state change, so a preview and the
// subsequent real run see the same items.
func (e *Engine) Curate(candidates []domain.Item, dryRun bool) ([]domain.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	selection, err := e.curator.Select(candidates)
	if err != nil {
		return nil, err
	}
	if dryRun {
		return selection, nil
	}
	return e.curator.Commit(selection)
}

// Threshold reports the current acceptance threshold.
func (e *Engine) Threshold() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.threshold
}

// SnapshotModel hands the weight table off for persistence.
func (e *Engine) SnapshotModel() map[string]domain.TermWeight {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.Snapshot()
}

// Restore loads persisted state at startup: weights, threshold and the
// identities of feedback events that were already applied. hasThreshold
// distinguishes a persisted threshold of zero from no persisted threshold.
func (e *Engine) Restore(weights map[string]domain.TermWeight, threshold float64, hasThreshold bool, appliedKeys []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(weights) > 0 {
		e.model.Restore(weights)
	}
	if hasThreshold {
		e.threshold = threshold
	}
	for _, key := range appliedKeys {
		e.applied[key] = struct{}{}
	}
}

// TopPreferences lists the strongest positive and negative terms.
func (e *Engine) TopPreferences(limit int) (positive, negative []TermScore) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.TopPositive(limit), e.model.TopNegative(limit)
}

// Snapshot of counters for the stats surface.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Stats{
		Terms:           e.model.Len(),
		AppliedFeedback: len(e.applied),
		Threshold:       e.threshold,
	}
	for _, tw := range e.model.weights {
		if tw.Weight > 0 {
			s.PositiveTerms++
		} else if tw.Weight < 0 {
			s.NegativeTerms++
		}
	}
	return s
}

func (e *Engine) scoreLocked(item *domain.Item) float64 {
	score, matched := Score(*item, e.model)
	item.Score = score
	item.MatchedKeywords = matched
	return score
}
