package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AdrianRomo/Influencer-Automation/internal/config"
	"github.com/AdrianRomo/Influencer-Automation/internal/ports"
)

// ScriptWriter implements ports.ScriptWriter backed by OpenAI-compatible
// chat-completion APIs.
type ScriptWriter struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.ScriptWriter = (*ScriptWriter)(nil)

// NewScriptWriter builds a client from configuration.
func NewScriptWriter(cfg config.OpenAIConfig, logger *slog.Logger) *ScriptWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScriptWriter{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// Model reports the configured model identifier (recorded on articles).
func (w *ScriptWriter) Model() string {
	return w.model
}

// Script produces a narration aimed at the requested word-count window,
// plus an optional storyboard. The window is a soft constraint: the model
// can and does land outside it.
func (w *ScriptWriter) Script(ctx context.Context, req ports.ScriptRequest) (ports.ScriptBundle, error) {
	script, err := w.chat(ctx, scriptSystem(req.OutputLanguage), scriptPrompt(req), 0.3)
	if err != nil {
		return ports.ScriptBundle{}, fmt.Errorf("script generation: %w", err)
	}
	script = strings.TrimSpace(script)

	bundle := ports.ScriptBundle{
		Script:    script,
		WordCount: len(strings.Fields(script)),
	}

	if req.Scenes > 0 {
		bundle.Scenes = w.storyboard(ctx, req.Title, script, req.Scenes)
	}

	return bundle, nil
}

// Rewrite asks for the same script resized toward a new word count.
func (w *ScriptWriter) Rewrite(ctx context.Context, script string, targetWords, toleranceWords int) (string, error) {
	prompt := fmt.Sprintf(`Rewrite this narration script to fit the word count range.

TARGET RANGE: %d to %d words (target %d).
Do not add new facts. Preserve numbers, dates, dosages, units, and names exactly.
Keep it natural spoken narration and keep the closing disclaimer.

SCRIPT:
%s`, targetWords-toleranceWords, targetWords+toleranceWords, targetWords, script)

	out, err := w.chat(ctx, rewriteSystem, prompt, 0.2)
	if err != nil {
		return "", fmt.Errorf("script rewrite: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// storyboard requests a compact JSON scene list. Parse failures degrade to
// no scenes; the payload is opaque downstream either way.
func (w *ScriptWriter) storyboard(ctx context.Context, title, script string, scenes int) json.RawMessage {
	prompt := fmt.Sprintf(`Create %d scenes for a narrated news video based on the script.
Each scene object has: scene (int starting at 1), narration (1-2 sentences
aligned to the script, no new facts), image_prompt (visual description in
English; no text overlays, no logos). Return a JSON array only.

TITLE: %s

SCRIPT:
%s`, scenes, title, script)

	raw, err := w.chat(ctx, storyboardSystem, prompt, 0.2)
	if err != nil {
		w.logger.Warn("storyboard generation failed", "error", err)
		return nil
	}

	raw = strings.TrimSpace(raw)
	var parsed []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		w.logger.Warn("storyboard is not a json array", "error", err)
		return nil
	}

	return json.RawMessage(raw)
}

func (w *ScriptWriter) chat(ctx context.Context, system, user string, temperature float64) (string, error) {
	if w.apiKey == "" || w.endpoint == "" || w.model == "" {
		return "", fmt.Errorf("script writer misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":       w.model,
		"temperature": temperature,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chat error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

func scriptSystem(outputLanguage string) string {
	return fmt.Sprintf(`You are a news-narration scriptwriter.
Rewrite the input into a clear narration script that is easy for TTS to read.
Output language MUST be %s; translate faithfully while summarizing.
Do not add new facts. Preserve numbers, dates, dosages, units, and names exactly.
Output a single narration: no bullet points, headings, citations, or URLs.
Expand acronyms on first mention. Short, spoken sentences; natural prosody via
punctuation only, no stage directions. End with a brief disclaimer that this
is informational content, not professional advice.`, outputLanguage)
}

const rewriteSystem = `You are an expert editor for TTS narration scripts.
Rewrite the script to match the requested word count range while preserving
meaning. Do not add new facts. No bullets, headings, URLs, or citations.
Keep it natural to speak aloud and keep the closing disclaimer.`

const storyboardSystem = `You create a compact storyboard for short narrated
news videos. Return JSON only. No markdown. No extra text.`

func scriptPrompt(req ports.ScriptRequest) string {
	return fmt.Sprintf(`TITLE: %s

ARTICLE TEXT:
%s

Output language: %s only.

Length requirement:
- Aim for about %d seconds of narration.
- Target word count: %d words (acceptable range %d to %d words).`,
		req.Title, req.Body, req.OutputLanguage, req.TargetSeconds,
		req.TargetWords, req.TargetWords-req.ToleranceWords, req.TargetWords+req.ToleranceWords)
}
