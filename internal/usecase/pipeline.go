package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/AdrianRomo/Influencer-Automation/internal/domain"
	"github.com/AdrianRomo/Influencer-Automation/internal/pacing"
	"github.com/AdrianRomo/Influencer-Automation/internal/ports"
)

// Input errors: fatal, never retried.
var (
	ErrNoEntries   = errors.New("feed has no entries")
	ErrMissingLink = errors.New("feed entry has no link")
	ErrNoVoice     = errors.New("no voice configured")
)

// Settings carries the narration defaults one pipeline instance runs with.
type Settings struct {
	TargetSeconds    int
	ToleranceSeconds int
	SlackSeconds     int
	MinSeconds       int
	MaxSeconds       int
	MaxAttempts      int
	LookbackDays     int
	Scenes           int
	RewriteTolerance int
	OutputLanguage   string
	AudioDir         string
	Provider         string
	SummaryModel     string
	Voice            domain.VoiceSpec
}

// PipelineDeps wires all driven adapters into the narration pipeline.
type PipelineDeps struct {
	Feed       ports.FeedSource
	Extractor  ports.Extractor
	Writer     ports.ScriptWriter
	Synth      ports.Synthesizer
	Probe      ports.DurationProber
	Repository ports.Repository
	Pacer      *pacing.Estimator
	Notifier   ports.Notifier
	Settings   Settings
	Logger     *slog.Logger
	Now        func() time.Time
}

// Pipeline implements one end-to-end narration run: select a feed entry,
// upsert the article, extract text, size a script from the pacing
// estimate, converge on the target duration, and record the results.
type Pipeline struct {
	feed     ports.FeedSource
	extract  ports.Extractor
	writer   ports.ScriptWriter
	repo     ports.Repository
	pacer    *pacing.Estimator
	runner   *AttemptRunner
	sizer    *Sizer
	notifier ports.Notifier
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		feed:     deps.Feed,
		extract:  deps.Extractor,
		writer:   deps.Writer,
		repo:     deps.Repository,
		pacer:    deps.Pacer,
		runner:   NewAttemptRunner(deps.Synth, deps.Probe),
		sizer:    NewSizer(deps.Writer, deps.Settings.ToleranceSeconds),
		notifier: deps.Notifier,
		settings: deps.Settings,
		logger:   logger,
		now:      now,
	}
}

// RunRequest triggers one narration run; zero fields fall back to the
// pipeline defaults.
type RunRequest struct {
	SourceID      string
	VoiceID       string
	TargetSeconds int
	Scenes        int
}

// Generate executes one run and returns the result record on acceptance.
// On a convergence failure the article's extracted text and draft script
// stay persisted; no audio asset is created.
func (p *Pipeline) Generate(ctx context.Context, req RunRequest) (domain.RunResult, error) {
	src, err := p.repo.SourceByID(ctx, req.SourceID)
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("resolve source %s: %w", req.SourceID, err)
	}

	entries, err := p.feed.Fetch(ctx, src.RSSURL)
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("fetch feed %s: %w", src.ID, err)
	}

	lookback := time.Duration(p.settings.LookbackDays) * 24 * time.Hour
	candidate, ok := domain.SelectCandidate(entries, lookback, p.now())
	if !ok {
		return domain.RunResult{}, fmt.Errorf("source %s: %w", src.ID, ErrNoEntries)
	}
	if candidate.URL == "" {
		return domain.RunResult{}, fmt.Errorf("source %s: %w", src.ID, ErrMissingLink)
	}

	p.logger.Info("selected feed entry",
		"source", src.ID, "title", candidate.Title,
		"published_at", candidate.PublishedAt, "url", candidate.URL)

	article, err := p.repo.CreateOrGetArticle(ctx, domain.Article{
		ID:          uuid.NewString(),
		SourceID:    src.ID,
		Title:       candidate.Title,
		URL:         candidate.URL,
		PublishedAt: candidate.PublishedAt,
	})
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("upsert article: %w", err)
	}

	raw := p.extract.Extract(ctx, candidate.URL, candidate.Summary)
	if raw == "" {
		raw = candidate.Summary
	}
	if raw == "" {
		raw = candidate.Title
	}

	voice := p.settings.Voice
	if req.VoiceID != "" {
		voice.VoiceID = req.VoiceID
	}
	if voice.VoiceID == "" {
		return domain.RunResult{}, ErrNoVoice
	}
	voice.Speed = pacing.NormalizeSpeed(voice.Speed)

	key := pacing.Key{VoiceID: voice.VoiceID, ModelID: voice.ModelID, Speed: voice.Speed}
	wpm, err := p.pacer.Estimate(ctx, key)
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("pacing estimate: %w", err)
	}

	target := p.settings.TargetSeconds
	if req.TargetSeconds > 0 {
		target = req.TargetSeconds
	}
	scenes := p.settings.Scenes
	if req.Scenes > 0 {
		scenes = req.Scenes
	}

	sized, err := p.sizer.Size(ctx, SizeRequest{
		Title:          candidate.Title,
		Body:           raw,
		LanguageHint:   src.LanguageHint,
		OutputLanguage: p.settings.OutputLanguage,
		TargetSeconds:  target,
		WPM:            wpm,
		Scenes:         scenes,
	})
	if err != nil {
		return domain.RunResult{}, err
	}

	p.logger.Info("script sized",
		"wpm", wpm, "target_words", sized.TargetWords,
		"tolerance_words", sized.ToleranceWords, "words", sized.WordCount)

	// Persist extraction and draft script before synthesis; a later
	// convergence failure keeps this partial state for diagnosis.
	article.RawText = raw
	article.Script = sized.Script
	article.ScriptLang = p.settings.OutputLanguage
	article.SummaryModel = p.settings.SummaryModel
	article.Storyboard = sized.Scenes
	if err := p.repo.SaveArticleScript(ctx, article); err != nil {
		return domain.RunResult{}, fmt.Errorf("persist draft script: %w", err)
	}

	finalPath := filepath.Join(p.settings.AudioDir, article.ID+"_"+voice.VoiceID+".mp3")

	loop := NewLoop(p.runner, p.writer, LoopConfig{
		TargetSeconds:    target,
		MinSeconds:       p.settings.MinSeconds,
		MaxSeconds:       p.settings.MaxSeconds,
		SlackSeconds:     p.settings.SlackSeconds,
		MaxAttempts:      p.settings.MaxAttempts,
		RewriteTolerance: p.settings.RewriteTolerance,
	}, p.logger)

	outcome := loop.Run(ctx, sized.Script, sized.WordCount, voice, finalPath)
	if outcome.State != StateAccepted {
		return domain.RunResult{}, fmt.Errorf("convergence %s after %d attempts: %w",
			outcome.State, outcome.Attempts, outcome.Err)
	}

	article.Script = outcome.Script
	if err := p.repo.SaveArticleScript(ctx, article); err != nil {
		return domain.RunResult{}, fmt.Errorf("persist final script: %w", err)
	}

	// A calibration storage failure must not mask a successful synthesis:
	// log and keep going so the audio asset is still recorded.
	observed := pacing.ObservedRate(outcome.WordCount, outcome.DurationSeconds)
	if err := p.pacer.Observe(ctx, key, observed); err != nil {
		p.logger.Warn("calibration update failed", "voice", voice.VoiceID, "error", err)
	}

	asset, err := p.repo.CreateAudioAsset(ctx, domain.AudioAsset{
		ID:              uuid.NewString(),
		ArticleID:       article.ID,
		Provider:        p.settings.Provider,
		VoiceID:         voice.VoiceID,
		ModelID:         voice.ModelID,
		OutputFormat:    voice.OutputFormat,
		TargetSeconds:   target,
		MeasuredSeconds: outcome.DurationSeconds,
		WordCount:       outcome.WordCount,
		FilePath:        finalPath,
		Status:          domain.AssetReady,
	})
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("persist audio asset: %w", err)
	}

	result := domain.RunResult{
		ArticleID:       article.ID,
		AudioID:         asset.ID,
		AudioPath:       finalPath,
		DurationSeconds: outcome.DurationSeconds,
		WordCount:       outcome.WordCount,
		Title:           article.Title,
		URL:             article.URL,
		Scenes:          article.Storyboard,
	}

	p.logger.Info("narration saved",
		"article", article.ID, "audio", asset.ID,
		"seconds", outcome.DurationSeconds, "path", finalPath)

	if p.notifier != nil {
		if err := p.notifier.PublishResult(ctx, result); err != nil {
			p.logger.Warn("notify result failed", "error", err)
		}
	}

	return result, nil
}
