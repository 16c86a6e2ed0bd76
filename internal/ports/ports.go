package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AdrianRomo/Influencer-Automation/internal/domain"
)

// FeedSource pulls the current entry list for one feed URL.
type FeedSource interface {
	Fetch(ctx context.Context, feedURL string) ([]domain.FeedEntry, error)
}

// Extractor returns best-effort article body text for a URL. It never
// fails on network problems; degraded paths return the fallback text.
type Extractor interface {
	Extract(ctx context.Context, url, fallback string) string
}

// ScriptRequest asks the script-generation service for a narration sized
// to a word-count range. The range is a soft constraint: the returned text
// can still land outside it.
type ScriptRequest struct {
	Title          string
	Body           string
	LanguageHint   string
	OutputLanguage string
	TargetSeconds  int
	TargetWords    int
	ToleranceWords int
	Scenes         int
}

// ScriptBundle is the produced narration plus its measured word count and
// an opaque storyboard payload (may be nil).
type ScriptBundle struct {
	Script    string
	WordCount int
	Scenes    json.RawMessage
}

// ScriptWriter generates narration scripts and rewrites them toward a new
// word-count target between synthesis attempts.
type ScriptWriter interface {
	Script(ctx context.Context, req ScriptRequest) (ScriptBundle, error)
	Rewrite(ctx context.Context, script string, targetWords, toleranceWords int) (string, error)
}

// Synthesizer converts text into encoded audio bytes. Implementations own
// their local transport retries; an error here means the retry budget for
// the call itself is exhausted.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice domain.VoiceSpec) ([]byte, error)
}

// DurationProber measures the decoded duration of an audio file on disk.
type DurationProber interface {
	DurationSeconds(path string) (int, error)
}

// Repository persists sources, articles, and audio assets.
type Repository interface {
	SeedSources(ctx context.Context, sources []domain.Source) error
	SourceByID(ctx context.Context, id string) (domain.Source, error)
	// CreateOrGetArticle inserts the article or, on a (source, url)
	// uniqueness conflict, re-reads and returns the existing row.
	CreateOrGetArticle(ctx context.Context, article domain.Article) (domain.Article, error)
	SaveArticleScript(ctx context.Context, article domain.Article) error
	CreateAudioAsset(ctx context.Context, asset domain.AudioAsset) (domain.AudioAsset, error)
}

// Notifier publishes a short summary of a finished run.
type Notifier interface {
	PublishResult(ctx context.Context, result domain.RunResult) error
}

// Scheduler controls when pipeline passes execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
