// Package pacing maintains per-voice speaking-rate estimates used to size
// narration scripts for a target spoken duration.
package pacing

import (
	"context"
	"fmt"
	"math"
)

const (
	// DefaultBaselineWPM is assumed for voices that were never observed.
	DefaultBaselineWPM = 140.0
	// DefaultAlpha is the EMA smoothing factor for new observations.
	DefaultAlpha = 0.3
)

// Key identifies one calibrated voice configuration. Speed must be
// normalized with NormalizeSpeed before it is used as part of the key.
type Key struct {
	VoiceID string
	ModelID string
	Speed   float64
}

// NormalizeSpeed rounds the speed setting to two decimals so that the
// floating-point component of the key never drifts between writes.
func NormalizeSpeed(speed float64) float64 {
	return math.Round(speed*100) / 100
}

// Blend folds a new observation into an existing estimate.
func Blend(old, observed, alpha float64) float64 {
	return (1-alpha)*old + alpha*observed
}

// Store persists calibration rows. Observe must apply the EMA blend as a
// single atomic read-modify-write: seed the row with the observed rate on
// first sight, blend with factor alpha and bump the sample counter after.
type Store interface {
	Estimate(ctx context.Context, key Key) (wpm float64, samples int, ok bool, err error)
	Observe(ctx context.Context, key Key, observedWPM, alpha float64) error
}

// Estimator answers rate queries with a baseline fallback and feeds
// accepted synthesis observations back into the store.
type Estimator struct {
	store    Store
	baseline float64
	alpha    float64
}

// NewEstimator wires a store with baseline and smoothing parameters;
// zero values fall back to the package defaults.
func NewEstimator(store Store, baseline, alpha float64) *Estimator {
	if baseline <= 0 {
		baseline = DefaultBaselineWPM
	}
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	return &Estimator{store: store, baseline: baseline, alpha: alpha}
}

// Estimate returns the persisted words-per-minute estimate for the key,
// or the baseline when the key was never observed.
func (e *Estimator) Estimate(ctx context.Context, key Key) (float64, error) {
	key.Speed = NormalizeSpeed(key.Speed)

	wpm, _, ok, err := e.store.Estimate(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("load calibration: %w", err)
	}
	if !ok {
		return e.baseline, nil
	}
	return wpm, nil
}

// Observe blends a measured speaking rate into the stored estimate.
// Storage errors propagate unchanged; retrying is the caller's decision.
func (e *Estimator) Observe(ctx context.Context, key Key, observedWPM float64) error {
	key.Speed = NormalizeSpeed(key.Speed)

	if err := e.store.Observe(ctx, key, observedWPM, e.alpha); err != nil {
		return fmt.Errorf("store calibration: %w", err)
	}
	return nil
}

// ObservedRate derives the measured speaking rate of one synthesis in
// words per minute.
func ObservedRate(wordCount, durationSeconds int) float64 {
	if durationSeconds < 1 {
		durationSeconds = 1
	}
	return float64(wordCount) / float64(durationSeconds) * 60.0
}
