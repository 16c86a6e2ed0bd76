package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/AdrianRomo/Influencer-Automation/internal/domain"
	"github.com/AdrianRomo/Influencer-Automation/internal/pacing"
	"github.com/AdrianRomo/Influencer-Automation/internal/ports"
)

// fakeWriter scripts and rewrites with injectable behavior.
type fakeWriter struct {
	scriptFn  func(ctx context.Context, req ports.ScriptRequest) (ports.ScriptBundle, error)
	rewriteFn func(ctx context.Context, script string, targetWords, toleranceWords int) (string, error)

	scriptCalls  int
	rewriteCalls int
	rewriteWords []int
}

func (f *fakeWriter) Script(ctx context.Context, req ports.ScriptRequest) (ports.ScriptBundle, error) {
	f.scriptCalls++
	if f.scriptFn != nil {
		return f.scriptFn(ctx, req)
	}
	return ports.ScriptBundle{Script: words(req.TargetWords)}, nil
}

func (f *fakeWriter) Rewrite(ctx context.Context, script string, targetWords, toleranceWords int) (string, error) {
	f.rewriteCalls++
	f.rewriteWords = append(f.rewriteWords, targetWords)
	if f.rewriteFn != nil {
		return f.rewriteFn(ctx, script, targetWords, toleranceWords)
	}
	return words(targetWords), nil
}

// words builds a script with exactly n whitespace-separated tokens.
func words(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSpace(strings.Repeat("palabra ", n))
}

// fakeSynth replays one canned response per call.
type fakeSynth struct {
	responses []synthResponse
	calls     int
}

type synthResponse struct {
	audio []byte
	err   error
}

func (f *fakeSynth) Synthesize(context.Context, string, domain.VoiceSpec) ([]byte, error) {
	resp := f.responses[f.calls]
	f.calls++
	return resp.audio, resp.err
}

// fakeProbe replays one measured duration per call.
type fakeProbe struct {
	durations []int
	errs      []error
	calls     int
}

func (f *fakeProbe) DurationSeconds(string) (int, error) {
	i := f.calls
	f.calls++
	if f.errs != nil && f.errs[i] != nil {
		return 0, f.errs[i]
	}
	return f.durations[i], nil
}

// memStore is an in-memory pacing.Store for pipeline tests.
type memStore struct {
	mu   sync.Mutex
	rows map[pacing.Key]float64

	estimateErr error
	observeErr  error
	observed    []float64
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[pacing.Key]float64)}
}

func (m *memStore) Estimate(_ context.Context, key pacing.Key) (float64, int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.estimateErr != nil {
		return 0, 0, false, m.estimateErr
	}
	wpm, ok := m.rows[key]
	return wpm, 1, ok, nil
}

func (m *memStore) Observe(_ context.Context, key pacing.Key, observedWPM, alpha float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.observeErr != nil {
		return m.observeErr
	}
	if old, ok := m.rows[key]; ok {
		m.rows[key] = pacing.Blend(old, observedWPM, alpha)
	} else {
		m.rows[key] = observedWPM
	}
	m.observed = append(m.observed, observedWPM)
	return nil
}

// fakeFeed returns a fixed entry list.
type fakeFeed struct {
	entries []domain.FeedEntry
	err     error
}

func (f *fakeFeed) Fetch(context.Context, string) ([]domain.FeedEntry, error) {
	return f.entries, f.err
}

// fakeExtractor returns a fixed body or echoes the fallback.
type fakeExtractor struct {
	body string
}

func (f *fakeExtractor) Extract(_ context.Context, _, fallback string) string {
	if f.body != "" {
		return f.body
	}
	return fallback
}

// memRepo is an in-memory ports.Repository keyed the way the SQL schema is.
type memRepo struct {
	mu       sync.Mutex
	sources  map[string]domain.Source
	articles map[string]domain.Article // keyed by source_id + "\x00" + url
	assets   []domain.AudioAsset

	saveErr error
}

func newMemRepo(sources ...domain.Source) *memRepo {
	repo := &memRepo{
		sources:  make(map[string]domain.Source),
		articles: make(map[string]domain.Article),
	}
	for _, src := range sources {
		repo.sources[src.ID] = src
	}
	return repo
}

func (r *memRepo) SeedSources(_ context.Context, sources []domain.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, src := range sources {
		r.sources[src.ID] = src
	}
	return nil
}

func (r *memRepo) SourceByID(_ context.Context, id string) (domain.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.sources[id]
	if !ok {
		return domain.Source{}, errors.New("source not found: " + id)
	}
	return src, nil
}

func (r *memRepo) CreateOrGetArticle(_ context.Context, article domain.Article) (domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := article.SourceID + "\x00" + article.URL
	if existing, ok := r.articles[key]; ok {
		return existing, nil
	}
	r.articles[key] = article
	return article, nil
}

func (r *memRepo) SaveArticleScript(_ context.Context, article domain.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.articles[article.SourceID+"\x00"+article.URL] = article
	return nil
}

func (r *memRepo) CreateAudioAsset(_ context.Context, asset domain.AudioAsset) (domain.AudioAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets = append(r.assets, asset)
	return asset, nil
}

// fakeNotifier records published results.
type fakeNotifier struct {
	mu      sync.Mutex
	results []domain.RunResult
	err     error
}

func (f *fakeNotifier) PublishResult(_ context.Context, result domain.RunResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.results = append(f.results, result)
	return nil
}
