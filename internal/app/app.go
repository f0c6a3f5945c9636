package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"dailybrief/internal/api"
	"dailybrief/internal/classify"
	"dailybrief/internal/config"
	"dailybrief/internal/infrastructure/classifier"
	"dailybrief/internal/infrastructure/llm"
	"dailybrief/internal/infrastructure/scheduler"
	"dailybrief/internal/infrastructure/source"
	"dailybrief/internal/infrastructure/storage"
	"dailybrief/internal/logging"
	"dailybrief/internal/ports"
	"dailybrief/internal/retry"
	"dailybrief/internal/scoring"
	"dailybrief/internal/selection"
	"dailybrief/internal/usecase"
)

// Application wires configuration to adapters, use cases and lifecycle.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sql.DB
	weights   *scoring.WeightStore
	prefs     *scoring.Preferences
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	server    *http.Server
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	store := storage.NewStore(db)

	weights := scoring.NewWeightStore(store, baseLogger.With("component", "weights"))
	prefs := scoring.NewPreferences(store, baseLogger.With("component", "preferences"))
	scorer := scoring.NewScorer(scoring.DefaultWeights(), weights)
	selector := selection.NewSelector(prefs, cfg.Scoring.GuaranteeThreshold)

	registry, err := source.NewRegistry(cfg.Sources, baseLogger.With("component", "source"))
	if err != nil {
		return nil, fmt.Errorf("build sources: %w", err)
	}

	var remote ports.Classifier
	var summarizer ports.Summarizer
	if cfg.Classifier.Endpoint != "" {
		client := classifier.NewClient(cfg.Classifier.Endpoint, cfg.Classifier.APIKey)
		remote = client
		summarizer = client
	}

	var scriptGen ports.ScriptGenerator
	if cfg.ScriptGen.APIKey != "" {
		scriptGen = llm.NewScriptClient(cfg.ScriptGen)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Fetcher:    registry,
		Classifier: remote,
		Fallback:   classify.NewKeywordClassifier(),
		Summarizer: summarizer,
		ScriptGen:  scriptGen,
		Articles:   store,
		Cache:      store,
		Users:      store,
		Scorer:     scorer,
		Selector:   selector,
		Retry:      retry.DefaultPolicy(),
		Quality:    cfg.Quality,
		Retention:  cfg.Retention,
		Workers:    cfg.Scoring.Workers,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	feed := usecase.NewFeed(usecase.FeedDeps{
		Cache:       store,
		Users:       store,
		Feedback:    store,
		Preferences: prefs,
		Weights:     weights,
		Logger:      baseLogger.With("component", "feed"),
	})

	daily := scheduler.NewDailyScheduler(cfg.Scheduler.RunHour, cfg.Scheduler.Location())
	sched := usecase.NewScheduler(daily, pipeline, baseLogger.With("component", "scheduler"))

	httpServer := &http.Server{
		Addr:              cfg.API.ListenAddr,
		Handler:           api.NewServer(feed, baseLogger.With("component", "api")).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		db:        db,
		weights:   weights,
		prefs:     prefs,
		pipeline:  pipeline,
		scheduler: sched,
		server:    httpServer,
	}, nil
}

// Run restores learner state, starts the daily scheduler and serves the read
// API until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.weights.Load(ctx); err != nil {
		return fmt.Errorf("load adaptive weights: %w", err)
	}
	if err := a.prefs.Load(ctx); err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("api listening", "addr", a.cfg.API.ListenAddr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve api: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = a.scheduler.Stop(shutdownCtx)
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("api shutdown", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("close database", "error", err)
	}
	return nil
}

// RunOnce executes a single batch immediately; used by the -once flag.
func (a *Application) RunOnce(ctx context.Context) error {
	if err := a.weights.Load(ctx); err != nil {
		return fmt.Errorf("load adaptive weights: %w", err)
	}
	if err := a.prefs.Load(ctx); err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}
	now := time.Now().In(a.cfg.Scheduler.Location())
	return a.pipeline.ProcessDay(ctx, now)
}
