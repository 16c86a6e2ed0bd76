package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AdrianRomo/Influencer-Automation/internal/config"
	"github.com/AdrianRomo/Influencer-Automation/internal/domain"
	"github.com/AdrianRomo/Influencer-Automation/internal/ports"
)

// Provider is the name recorded on audio assets produced by this client.
const Provider = "elevenlabs"

const (
	defaultRetries = 3
	defaultBackoff = 800 * time.Millisecond
)

// Input guards; both reject before any network call.
var (
	ErrEmptyText   = errors.New("empty text")
	ErrTextTooLong = errors.New("text too long for one request")
	ErrNoVoiceID   = errors.New("no voice id provided")
)

// Client implements ports.Synthesizer against the ElevenLabs HTTP API.
// Transport and provider errors are retried locally with exponential
// backoff before they surface to the convergence loop.
type Client struct {
	endpoint        string
	apiKey          string
	stability       float64
	similarityBoost float64
	style           float64
	speakerBoost    bool
	maxChars        int
	retries         int
	backoff         time.Duration
	httpClient      *http.Client
	logger          *slog.Logger
}

var _ ports.Synthesizer = (*Client)(nil)

// NewClient builds a synthesis client from configuration.
func NewClient(cfg config.ElevenLabsConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = 9000
	}
	return &Client{
		endpoint:        strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:          cfg.APIKey,
		stability:       cfg.Stability,
		similarityBoost: cfg.SimilarityBoost,
		style:           cfg.Style,
		speakerBoost:    cfg.SpeakerBoost,
		maxChars:        maxChars,
		retries:         defaultRetries,
		backoff:         defaultBackoff,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// Synthesize converts text into encoded audio bytes.
func (c *Client) Synthesize(ctx context.Context, text string, voice domain.VoiceSpec) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if len(text) > c.maxChars {
		return nil, fmt.Errorf("%w: %d chars (max %d)", ErrTextTooLong, len(text), c.maxChars)
	}
	if voice.VoiceID == "" {
		return nil, ErrNoVoiceID
	}

	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			delay := c.backoff * (1 << (attempt - 1))
			c.logger.Warn("retrying synthesis", "attempt", attempt+1, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		audio, err := c.call(ctx, text, voice)
		if err == nil {
			return audio, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("synthesis failed after %d attempts: %w", c.retries, lastErr)
}

func (c *Client) call(ctx context.Context, text string, voice domain.VoiceSpec) ([]byte, error) {
	payload := map[string]any{
		"text":     text,
		"model_id": voice.ModelID,
		"voice_settings": map[string]any{
			"stability":         c.stability,
			"similarity_boost":  c.similarityBoost,
			"style":             c.style,
			"use_speaker_boost": c.speakerBoost,
			"speed":             voice.Speed,
		},
	}
	if voice.LanguageCode != "" {
		payload["language_code"] = voice.LanguageCode
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal synthesis payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		c.endpoint, url.PathEscape(voice.VoiceID), url.QueryEscape(voice.OutputFormat))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("synthesis error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio body: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesis returned no audio")
	}

	return audio, nil
}
