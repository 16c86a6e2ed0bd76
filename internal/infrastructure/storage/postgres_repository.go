package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/AdrianRomo/Influencer-Automation/internal/domain"
	"github.com/AdrianRomo/Influencer-Automation/internal/pacing"
	"github.com/AdrianRomo/Influencer-Automation/internal/ports"
)

const uniqueViolation = pq.ErrorCode("23505")

// ErrSourceNotFound reports an unknown source id; callers treat it as a
// fatal input error.
var ErrSourceNotFound = errors.New("source not found")

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		rss_url TEXT NOT NULL,
		language_hint TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		published_at TIMESTAMPTZ,
		raw_text TEXT,
		tts_script TEXT,
		script_language TEXT,
		summary_model TEXT,
		storyboard_json JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT uq_article_source_url UNIQUE (source_id, url)
	)`,
	`CREATE INDEX IF NOT EXISTS ix_articles_source_created ON articles (source_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS ix_articles_published_at ON articles (published_at)`,
	`CREATE TABLE IF NOT EXISTS audio_assets (
		id TEXT PRIMARY KEY,
		article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
		tts_provider TEXT NOT NULL,
		voice_id TEXT NOT NULL,
		model_id TEXT NOT NULL,
		output_format TEXT NOT NULL,
		target_seconds INTEGER NOT NULL DEFAULT 180,
		measured_seconds INTEGER,
		word_count INTEGER,
		file_path TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'created',
		error TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS ix_audio_article_created ON audio_assets (article_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS voice_calibration (
		voice_id TEXT NOT NULL,
		model_id TEXT NOT NULL,
		speed DOUBLE PRECISION NOT NULL DEFAULT 1.0,
		wpm_estimate DOUBLE PRECISION NOT NULL,
		samples INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (voice_id, model_id, speed)
	)`,
}

// PostgresRepository persists sources, articles, audio assets, and voice
// calibration rows into Postgres.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var (
	_ ports.Repository = (*PostgresRepository)(nil)
	_ pacing.Store     = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// EnsureSchema creates the tables this repository needs. Full migration
// tooling is an external concern; this only bootstraps an empty database.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SeedSources upserts the configured source catalog.
func (r *PostgresRepository) SeedSources(ctx context.Context, sources []domain.Source) error {
	for _, src := range sources {
		query := r.builder.
			Insert("sources").
			Columns("id", "name", "rss_url", "language_hint").
			Values(src.ID, src.Name, src.RSSURL, src.LanguageHint).
			Suffix(`ON CONFLICT (id) DO UPDATE
				SET name = EXCLUDED.name,
				    rss_url = EXCLUDED.rss_url,
				    language_hint = EXCLUDED.language_hint`)

		if _, err := query.RunWith(r.db).ExecContext(ctx); err != nil {
			return fmt.Errorf("seed source %s: %w", src.ID, err)
		}
	}
	return nil
}

// SourceByID loads one catalog row.
func (r *PostgresRepository) SourceByID(ctx context.Context, id string) (domain.Source, error) {
	var src domain.Source
	var hint sql.NullString

	err := r.builder.
		Select("id", "name", "rss_url", "language_hint").
		From("sources").
		Where(sq.Eq{"id": id}).
		RunWith(r.db).
		QueryRowContext(ctx).
		Scan(&src.ID, &src.Name, &src.RSSURL, &hint)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Source{}, fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	if err != nil {
		return domain.Source{}, fmt.Errorf("query source: %w", err)
	}

	src.LanguageHint = hint.String
	return src, nil
}

// CreateOrGetArticle inserts the article; when a concurrent run already
// created the same (source_id, url) pair, the losing insert observes the
// uniqueness conflict and re-reads the existing row instead.
func (r *PostgresRepository) CreateOrGetArticle(ctx context.Context, article domain.Article) (domain.Article, error) {
	article.CreatedAt = time.Now().UTC()

	query := r.builder.
		Insert("articles").
		Columns("id", "source_id", "title", "url", "published_at", "created_at").
		Values(article.ID, article.SourceID, article.Title, article.URL, article.PublishedAt, article.CreatedAt)

	_, err := query.RunWith(r.db).ExecContext(ctx)
	if err == nil {
		return article, nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return domain.Article{}, fmt.Errorf("insert article: %w", err)
	}

	return r.articleByIdentity(ctx, article.SourceID, article.URL)
}

func (r *PostgresRepository) articleByIdentity(ctx context.Context, sourceID, url string) (domain.Article, error) {
	var (
		article     domain.Article
		publishedAt sql.NullTime
		rawText     sql.NullString
		script      sql.NullString
		scriptLang  sql.NullString
		model       sql.NullString
		storyboard  []byte
	)

	err := r.builder.
		Select("id", "source_id", "title", "url", "published_at",
			"raw_text", "tts_script", "script_language", "summary_model",
			"storyboard_json", "created_at").
		From("articles").
		Where(sq.Eq{"source_id": sourceID, "url": url}).
		RunWith(r.db).
		QueryRowContext(ctx).
		Scan(&article.ID, &article.SourceID, &article.Title, &article.URL,
			&publishedAt, &rawText, &script, &scriptLang, &model,
			&storyboard, &article.CreatedAt)
	if err != nil {
		return domain.Article{}, fmt.Errorf("re-read article: %w", err)
	}

	if publishedAt.Valid {
		ts := publishedAt.Time
		article.PublishedAt = &ts
	}
	article.RawText = rawText.String
	article.Script = script.String
	article.ScriptLang = scriptLang.String
	article.SummaryModel = model.String
	article.Storyboard = storyboard

	return article, nil
}

// SaveArticleScript stores extraction and narration artifacts on the row.
func (r *PostgresRepository) SaveArticleScript(ctx context.Context, article domain.Article) error {
	query := r.builder.
		Update("articles").
		Set("raw_text", article.RawText).
		Set("tts_script", article.Script).
		Set("script_language", article.ScriptLang).
		Set("summary_model", article.SummaryModel).
		Set("storyboard_json", []byte(article.Storyboard)).
		Where(sq.Eq{"id": article.ID})

	if _, err := query.RunWith(r.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("update article script: %w", err)
	}
	return nil
}

// CreateAudioAsset records one synthesized narration.
func (r *PostgresRepository) CreateAudioAsset(ctx context.Context, asset domain.AudioAsset) (domain.AudioAsset, error) {
	asset.CreatedAt = time.Now().UTC()
	if asset.Status == "" {
		asset.Status = domain.AssetCreated
	}

	query := r.builder.
		Insert("audio_assets").
		Columns("id", "article_id", "tts_provider", "voice_id", "model_id",
			"output_format", "target_seconds", "measured_seconds", "word_count",
			"file_path", "status", "error", "created_at").
		Values(asset.ID, asset.ArticleID, asset.Provider, asset.VoiceID, asset.ModelID,
			asset.OutputFormat, asset.TargetSeconds, asset.MeasuredSeconds, asset.WordCount,
			asset.FilePath, string(asset.Status), nullable(asset.Error), asset.CreatedAt)

	if _, err := query.RunWith(r.db).ExecContext(ctx); err != nil {
		return domain.AudioAsset{}, fmt.Errorf("insert audio asset: %w", err)
	}

	return asset, nil
}

// Estimate loads the calibration row for the key, reporting ok=false when
// the key was never observed.
func (r *PostgresRepository) Estimate(ctx context.Context, key pacing.Key) (float64, int, bool, error) {
	var (
		wpm     float64
		samples int
	)

	err := r.builder.
		Select("wpm_estimate", "samples").
		From("voice_calibration").
		Where(sq.Eq{"voice_id": key.VoiceID, "model_id": key.ModelID, "speed": key.Speed}).
		RunWith(r.db).
		QueryRowContext(ctx).
		Scan(&wpm, &samples)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("query calibration: %w", err)
	}

	return wpm, samples, true, nil
}

// Observe folds one observation into the calibration row. The blend runs
// inside a single upsert so concurrent observers never lose the sample
// count to a split read-modify-write.
func (r *PostgresRepository) Observe(ctx context.Context, key pacing.Key, observedWPM, alpha float64) error {
	query := r.builder.
		Insert("voice_calibration").
		Columns("voice_id", "model_id", "speed", "wpm_estimate", "samples").
		Values(key.VoiceID, key.ModelID, key.Speed, observedWPM, 1).
		Suffix(`ON CONFLICT (voice_id, model_id, speed) DO UPDATE
			SET wpm_estimate = voice_calibration.wpm_estimate * (1 - ?) + EXCLUDED.wpm_estimate * ?,
			    samples = voice_calibration.samples + 1`, alpha, alpha)

	if _, err := query.RunWith(r.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("upsert calibration: %w", err)
	}
	return nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
