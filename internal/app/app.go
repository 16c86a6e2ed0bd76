package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/AdrianRomo/Influencer-Automation/internal/config"
	"github.com/AdrianRomo/Influencer-Automation/internal/domain"
	"github.com/AdrianRomo/Influencer-Automation/internal/infrastructure/audio"
	"github.com/AdrianRomo/Influencer-Automation/internal/infrastructure/extract"
	"github.com/AdrianRomo/Influencer-Automation/internal/infrastructure/feed"
	"github.com/AdrianRomo/Influencer-Automation/internal/infrastructure/llm"
	"github.com/AdrianRomo/Influencer-Automation/internal/infrastructure/scheduler"
	"github.com/AdrianRomo/Influencer-Automation/internal/infrastructure/storage"
	"github.com/AdrianRomo/Influencer-Automation/internal/infrastructure/telegram"
	"github.com/AdrianRomo/Influencer-Automation/internal/infrastructure/tts"
	"github.com/AdrianRomo/Influencer-Automation/internal/logging"
	"github.com/AdrianRomo/Influencer-Automation/internal/pacing"
	"github.com/AdrianRomo/Influencer-Automation/internal/ports"
	"github.com/AdrianRomo/Influencer-Automation/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	db         *sql.DB
	repo       *storage.PostgresRepository
	pipeline   *usecase.Pipeline
	dispatcher *usecase.Dispatcher
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

	repo := storage.NewPostgresRepository(db)
	pacer := pacing.NewEstimator(repo, cfg.Narration.BaselineWPM, cfg.Narration.Alpha)

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	writer := llm.NewScriptWriter(cfg.OpenAI, logging.Component(baseLogger, "llm"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Feed:       feed.NewClient(nil),
		Extractor:  extract.NewExtractor(nil, logging.Component(baseLogger, "extract")),
		Writer:     writer,
		Synth:      tts.NewClient(cfg.ElevenLabs, logging.Component(baseLogger, "tts")),
		Probe:      audio.NewMP3Prober(),
		Repository: repo,
		Pacer:      pacer,
		Notifier:   notifier,
		Logger:     logging.Component(baseLogger, "pipeline"),
		Settings: usecase.Settings{
			TargetSeconds:    cfg.Narration.TargetSeconds,
			ToleranceSeconds: cfg.Narration.ToleranceSeconds,
			SlackSeconds:     cfg.Narration.SlackSeconds,
			MinSeconds:       cfg.Narration.MinSeconds,
			MaxSeconds:       cfg.Narration.MaxSeconds,
			MaxAttempts:      cfg.Narration.MaxAttempts,
			LookbackDays:     cfg.Narration.LookbackDays,
			Scenes:           cfg.Narration.Scenes,
			RewriteTolerance: cfg.Narration.RewriteTolerance,
			OutputLanguage:   cfg.Narration.OutputLanguage,
			AudioDir:         cfg.Audio.Dir,
			Provider:         tts.Provider,
			SummaryModel:     cfg.OpenAI.Model,
			Voice: domain.VoiceSpec{
				VoiceID:      cfg.ElevenLabs.VoiceID,
				ModelID:      cfg.ElevenLabs.ModelID,
				OutputFormat: cfg.ElevenLabs.OutputFormat,
				LanguageCode: cfg.ElevenLabs.LanguageCode,
				Speed:        cfg.ElevenLabs.Speed,
			},
		},
	})

	dispatcher := usecase.NewDispatcher(cfg.Scheduler.Workers, len(cfg.Sources),
		logging.Component(baseLogger, "dispatcher"))

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		db:         db,
		repo:       repo,
		pipeline:   pipeline,
		dispatcher: dispatcher,
	}, nil
}

// RunOnce executes a single pass over all configured sources and waits
// for the runs to finish.
func (a *Application) RunOnce(ctx context.Context) error {
	if err := a.bootstrap(ctx); err != nil {
		return err
	}

	a.dispatcher.Start(ctx)
	a.pass(ctx, time.Now().In(a.cfg.Scheduler.Location()))
	a.dispatcher.Close()
	return nil
}

// Run starts the interval scheduler and blocks until the context ends.
func (a *Application) Run(ctx context.Context) error {
	if err := a.bootstrap(ctx); err != nil {
		return err
	}

	a.dispatcher.Start(ctx)
	defer a.dispatcher.Close()

	driver := scheduler.NewIntervalScheduler(time.Duration(a.cfg.Scheduler.EveryHours) * time.Hour)
	sched := usecase.NewScheduler(driver, a.pass)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	return sched.Stop(context.Background())
}

// Close releases the database handle.
func (a *Application) Close() error {
	return a.db.Close()
}

func (a *Application) bootstrap(ctx context.Context) error {
	if err := os.MkdirAll(a.cfg.Audio.Dir, 0o755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}
	if err := a.repo.EnsureSchema(ctx); err != nil {
		return err
	}

	sources := make([]domain.Source, 0, len(a.cfg.Sources))
	for _, src := range a.cfg.Sources {
		sources = append(sources, domain.Source{
			ID:           src.ID,
			Name:         src.Name,
			RSSURL:       src.RSSURL,
			LanguageHint: src.LanguageHint,
		})
	}
	return a.repo.SeedSources(ctx, sources)
}

// pass enqueues one pipeline run per configured source.
func (a *Application) pass(ctx context.Context, trigger time.Time) {
	a.logger.Info("starting pipeline pass", "trigger", trigger, "sources", len(a.cfg.Sources))
	for _, src := range a.cfg.Sources {
		sourceID := src.ID
		err := a.dispatcher.Submit(func(ctx context.Context) error {
			_, err := a.pipeline.Generate(ctx, usecase.RunRequest{SourceID: sourceID})
			if err != nil {
				return fmt.Errorf("source %s: %w", sourceID, err)
			}
			return nil
		})
		if err != nil {
			a.logger.Warn("submit run", "source", sourceID, "error", err)
			return
		}
	}
}
