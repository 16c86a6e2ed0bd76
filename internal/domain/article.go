package domain

import (
	"encoding/json"
	"time"
)

// Source describes a configured news feed the pipeline can draw from.
type Source struct {
	ID           string
	Name         string
	RSSURL       string
	LanguageHint string
}

// Article is the durable record for one narrated feed item.
// Identity is the (SourceID, URL) pair; ID is a surrogate assigned on insert.
type Article struct {
	ID           string
	SourceID     string
	Title        string
	URL          string
	PublishedAt  *time.Time
	RawText      string
	Script       string
	ScriptLang   string
	SummaryModel string
	Storyboard   json.RawMessage
	CreatedAt    time.Time
}

// AssetStatus enumerates the lifecycle of a generated audio file.
type AssetStatus string

const (
	AssetCreated AssetStatus = "created"
	AssetReady   AssetStatus = "ready"
	AssetFailed  AssetStatus = "failed"
)

// AudioAsset records one synthesized narration for an Article.
// Rows are written once per successful run and never mutated afterwards,
// except for status/error on a terminal failure.
type AudioAsset struct {
	ID              string
	ArticleID       string
	Provider        string
	VoiceID         string
	ModelID         string
	OutputFormat    string
	TargetSeconds   int
	MeasuredSeconds int
	WordCount       int
	FilePath        string
	Status          AssetStatus
	Error           string
	CreatedAt       time.Time
}

// VoiceSpec carries everything a synthesis provider needs for one call.
type VoiceSpec struct {
	VoiceID      string
	ModelID      string
	OutputFormat string
	LanguageCode string
	Speed        float64
}

// RunResult is returned by a successful pipeline run.
type RunResult struct {
	ArticleID       string          `json:"article_id"`
	AudioID         string          `json:"audio_id"`
	AudioPath       string          `json:"audio_path"`
	DurationSeconds int             `json:"duration_seconds"`
	WordCount       int             `json:"word_count"`
	Title           string          `json:"title"`
	URL             string          `json:"url"`
	Scenes          json.RawMessage `json:"scenes,omitempty"`
}
