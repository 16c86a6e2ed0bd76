package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AdrianRomo/Influencer-Automation/internal/domain"
	"github.com/AdrianRomo/Influencer-Automation/internal/ports"
)

// Attempt is one synthesized narration parked in a temporary file. The
// caller either promotes it into the final path or discards it; the
// temporary file never outlives the attempt.
type Attempt struct {
	DurationSeconds int

	tmpPath   string
	finalPath string
}

// Promote atomically renames the temporary file into the final path.
// The temp file lives on the same volume, so no partially-written file is
// ever visible at the destination.
func (a *Attempt) Promote() error {
	if err := os.Rename(a.tmpPath, a.finalPath); err != nil {
		return fmt.Errorf("promote audio: %w", err)
	}
	a.tmpPath = ""
	return nil
}

// Discard removes the temporary file. Safe to call more than once and
// after Promote.
func (a *Attempt) Discard() {
	if a.tmpPath != "" {
		_ = os.Remove(a.tmpPath)
		a.tmpPath = ""
	}
}

// AttemptRunner drives one synthesis call: obtain audio bytes, write them
// next to the final destination, and measure the decoded duration.
type AttemptRunner struct {
	synth ports.Synthesizer
	probe ports.DurationProber
}

// NewAttemptRunner wires the synthesis client and the duration prober.
func NewAttemptRunner(synth ports.Synthesizer, probe ports.DurationProber) *AttemptRunner {
	return &AttemptRunner{synth: synth, probe: probe}
}

// Run synthesizes the script and returns a measured, not-yet-promoted
// attempt. On any error the temporary file is already cleaned up.
func (r *AttemptRunner) Run(ctx context.Context, script string, voice domain.VoiceSpec, finalPath string) (*Attempt, error) {
	audio, err := r.synth.Synthesize(ctx, script, voice)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(finalPath), ".attempt-*"+filepath.Ext(finalPath))
	if err != nil {
		return nil, fmt.Errorf("create temp audio: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(audio); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("write temp audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("close temp audio: %w", err)
	}

	duration, err := r.probe.DurationSeconds(tmpPath)
	if err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("measure audio duration: %w", err)
	}

	return &Attempt{
		DurationSeconds: duration,
		tmpPath:         tmpPath,
		finalPath:       finalPath,
	}, nil
}
