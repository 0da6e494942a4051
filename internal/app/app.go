package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"CodeNews/internal/config"
	"CodeNews/internal/engine"
	"CodeNews/internal/infrastructure/feed"
	"CodeNews/internal/infrastructure/llm"
	schedinfra "CodeNews/internal/infrastructure/scheduler"
	"CodeNews/internal/infrastructure/storage"
	"CodeNews/internal/infrastructure/telegram"
	"CodeNews/internal/infrastructure/telegraph"
	"CodeNews/internal/logging"
	"CodeNews/internal/ports"
	"CodeNews/internal/scanner"
	"CodeNews/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	db         *sql.DB
	repository ports.ItemRepository
	engine     *engine.Engine
	pipeline   *usecase.Pipeline
	jobs       *usecase.Jobs
	poller     *telegram.Poller
}

// New builds a runnable application instance from validated configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.db = db
		a.repository = storage.NewPostgresRepository(db)
	}

	a.engine = engine.New(cfg.Engine, baseLogger.With("component", "engine"))

	registry := scanner.NewRegistry()
	registry.Register(feed.NewRSSScanner(nil))
	registry.Register(feed.NewHTMLScanner(nil))
	source := feed.NewStrategySource(registry, cfg.Feeds, baseLogger.With("component", "source"))

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	var summarizer ports.Summarizer
	if cfg.ChatGPT.APIKey != "" {
		summarizer = llm.NewChatGPTClient(cfg.ChatGPT)
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Repository: a.repository,
		Engine:     a.engine,
		Notifier:   notifier,
		Publisher:  telegraph.NewPublisher(cfg.Telegraph.ShortName, cfg.Telegraph.AuthorName),
		Summarizer: summarizer,
		Logger:     baseLogger.With("component", "pipeline"),
		MaxItemAge: time.Duration(cfg.Engine.MaxItemAgeHours) * time.Hour,
	})

	if cfg.Notifications.Telegram.BotToken != "" {
		a.poller = telegram.NewPoller(cfg.Notifications.Telegram.BotToken,
			a.pipeline.HandleFeedback, baseLogger.With("component", "feedback"))
	}

	scanDriver := schedinfra.NewIntervalScheduler(time.Duration(cfg.Scheduler.ScanIntervalHours)*time.Hour, true)
	digestDriver := schedinfra.NewIntervalScheduler(time.Duration(cfg.Scheduler.DigestIntervalHours)*time.Hour, false)
	a.jobs = usecase.NewJobs(scanDriver, digestDriver, a.pipeline, baseLogger.With("component", "jobs"))

	return a, nil
}

// Run restores persisted state, starts the recurring jobs and blocks until
// the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.restore(ctx); err != nil {
		return err
	}

	if err := a.jobs.Start(ctx); err != nil {
		return fmt.Errorf("start jobs: %w", err)
	}

	if a.poller != nil {
		go a.poller.Run(ctx)
	}

	a.logger.Info("codenews running",
		"scan_interval_hours", a.cfg.Scheduler.ScanIntervalHours,
		"digest_interval_hours", a.cfg.Scheduler.DigestIntervalHours)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.jobs.Stop(stopCtx); err != nil {
		a.logger.Warn("job shutdown", "error", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("database close", "error", err)
		}
	}
	return nil
}

func (a *Application) restore(ctx context.Context) error {
	if a.repository == nil {
		return nil
	}

	weights, threshold, hasThreshold, err := a.repository.LoadModel(ctx)
	if err != nil {
		return fmt.Errorf("restore model: %w", err)
	}
	keys, err := a.repository.AppliedFeedbackKeys(ctx)
	if err != nil {
		return fmt.Errorf("restore feedback keys: %w", err)
	}

	a.engine.Restore(weights, threshold, hasThreshold, keys)

	stats := a.engine.Stats()
	a.logger.Info("state restored",
		"terms", stats.Terms,
		"positive_terms", stats.PositiveTerms,
		"negative_terms", stats.NegativeTerms,
		"feedback_events", stats.AppliedFeedback,
		"threshold", stats.Threshold)

	positive, negative := a.engine.TopPreferences(5)
	for _, ts := range positive {
		a.logger.Debug("top liked term", "term", ts.Term, "weight", ts.Weight)
	}
	for _, ts := range negative {
		a.logger.Debug("top disliked term", "term", ts.Term, "weight", ts.Weight)
	}
	return nil
}
