package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"SynthForge/internal/config"
	"SynthForge/internal/infrastructure/llm"
	"SynthForge/internal/infrastructure/scheduler"
	"SynthForge/internal/infrastructure/search"
	"SynthForge/internal/infrastructure/storage"
	"SynthForge/internal/infrastructure/telegram"
	"SynthForge/internal/logging"
	"SynthForge/internal/ports"
	"SynthForge/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	db       *sql.DB
	pipeline *usecase.Pipeline
	runner   *usecase.Runner
	logger   *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("sqlite", "file:"+cfg.Database.Path+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store, err := storage.NewStore(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}

	fetcher := search.NewPageFetcher(nil, cfg.Sites)
	model := llm.NewClient(cfg.Model, fetcher)

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Questions:  store,
		Examples:   store,
		Researcher: model,
		Generator:  model,
		Reviewer:   model,
		Notifier:   notifier,
		Logger:     baseLogger.With("component", "pipeline"),
		Workers:    cfg.Pipeline.Workers,
		Retry: usecase.RetryPolicy{
			MaxAttempts:     cfg.Pipeline.RetryAttempts,
			InitialInterval: cfg.Pipeline.RetryInitial,
			MaxInterval:     cfg.Pipeline.RetryMax,
		},
	})

	var runner *usecase.Runner
	if cfg.Scheduler.Enabled {
		driver := scheduler.NewIntervalScheduler(cfg.Scheduler.Interval)
		runner = usecase.NewRunner(driver, pipeline, usecase.PendingRequest{
			AutoApprove: cfg.Pipeline.AutoApprove,
		}, baseLogger.With("component", "runner"))
	}

	return &Application{
		cfg:      cfg,
		db:       db,
		pipeline: pipeline,
		runner:   runner,
		logger:   baseLogger,
	}, nil
}

// Pipeline exposes the orchestration component for callers that drive
// batches directly.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// Run drains pending questions once, or starts the scheduler when enabled.
func (a *Application) Run(ctx context.Context) error {
	if a.runner != nil {
		if err := a.runner.Start(ctx); err != nil {
			return fmt.Errorf("start runner: %w", err)
		}
		<-ctx.Done()
		return a.runner.Stop(context.Background())
	}

	result := a.pipeline.ProcessPending(ctx, usecase.PendingRequest{
		AutoApprove: a.cfg.Pipeline.AutoApprove,
	})
	a.logger.Info("run finished",
		"status", string(result.Status),
		"approved", result.Summary.Stages.Approved,
		"failed", result.Summary.Stages.Failed)

	if result.Err != "" {
		return fmt.Errorf("pipeline run: %s", result.Err)
	}
	return nil
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
