package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/AdrianRomo/Influencer-Automation/internal/domain"
	"github.com/AdrianRomo/Influencer-Automation/internal/ports"
)

// LoopState is the terminal (or in-flight) state of a convergence run.
type LoopState string

const (
	StateAttempting LoopState = "attempting"
	StateAccepted   LoopState = "accepted"
	StateExhausted  LoopState = "exhausted"
	StateFailed     LoopState = "failed"
)

// ErrExhausted reports that no attempt landed inside the acceptance window.
var ErrExhausted = errors.New("duration outside acceptance window after all attempts")

// LoopConfig bounds one convergence run.
type LoopConfig struct {
	TargetSeconds    int
	MinSeconds       int
	MaxSeconds       int
	SlackSeconds     int
	MaxAttempts      int
	RewriteTolerance int
}

// Outcome reports how a convergence run ended. On StateAccepted the audio
// file has been promoted into its final path and DurationSeconds holds the
// measured value; in every other state no file is left behind.
type Outcome struct {
	State           LoopState
	Script          string
	WordCount       int
	DurationSeconds int
	Attempts        int
	Err             error
}

// Loop orchestrates a bounded number of synthesis attempts, rescaling the
// script between attempts from the measured pacing of the previous one.
type Loop struct {
	runner *AttemptRunner
	writer ports.ScriptWriter
	cfg    LoopConfig
	logger *slog.Logger
}

// NewLoop wires the attempt runner and rewrite client. MaxAttempts below 1
// is clamped to 1.
func NewLoop(runner *AttemptRunner, writer ports.ScriptWriter, cfg LoopConfig, logger *slog.Logger) *Loop {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.RewriteTolerance <= 0 {
		cfg.RewriteTolerance = 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{runner: runner, writer: writer, cfg: cfg, logger: logger}
}

// Run executes attempts until the measured duration falls inside
// [min-slack, max+slack] or the budget is spent. A synthesis error counts
// as a missed attempt: the same script is retried if budget remains, and a
// trailing error yields StateFailed instead of StateExhausted.
func (l *Loop) Run(ctx context.Context, script string, wordCount int, voice domain.VoiceSpec, finalPath string) Outcome {
	if wordCount == 0 {
		wordCount = CountWords(script)
	}

	acceptMin := l.cfg.MinSeconds - l.cfg.SlackSeconds
	acceptMax := l.cfg.MaxSeconds + l.cfg.SlackSeconds

	outcome := Outcome{State: StateAttempting, Script: script, WordCount: wordCount}

	for attempt := 1; attempt <= l.cfg.MaxAttempts; attempt++ {
		outcome.Attempts = attempt

		att, err := l.runner.Run(ctx, outcome.Script, voice, finalPath)
		if err != nil {
			l.logger.Warn("synthesis attempt failed", "attempt", attempt, "error", err)
			if attempt == l.cfg.MaxAttempts {
				outcome.State = StateFailed
				outcome.Err = err
				return outcome
			}
			// No measured duration to correct from; retry the same script.
			continue
		}

		duration := att.DurationSeconds
		outcome.DurationSeconds = duration

		if duration >= acceptMin && duration <= acceptMax {
			if err := att.Promote(); err != nil {
				att.Discard()
				outcome.State = StateFailed
				outcome.Err = err
				return outcome
			}
			outcome.State = StateAccepted
			outcome.Err = nil
			l.logger.Info("narration accepted",
				"attempt", attempt, "seconds", duration, "words", outcome.WordCount)
			return outcome
		}

		att.Discard()

		if attempt == l.cfg.MaxAttempts {
			outcome.State = StateExhausted
			outcome.Err = fmt.Errorf("%w: measured %ds", ErrExhausted, duration)
			return outcome
		}

		next := l.correctedWordCount(outcome.WordCount, duration)
		l.logger.Info("rescaling script",
			"attempt", attempt, "seconds", duration,
			"words", outcome.WordCount, "next_words", next)

		rewritten, err := l.writer.Rewrite(ctx, outcome.Script, next, l.cfg.RewriteTolerance)
		if err != nil {
			outcome.State = StateFailed
			outcome.Err = fmt.Errorf("rewrite script: %w", err)
			return outcome
		}
		outcome.Script = rewritten
		outcome.WordCount = CountWords(rewritten)
	}

	outcome.State = StateFailed
	outcome.Err = errors.New("no synthesis attempt executed")
	return outcome
}

// correctedWordCount rescales the script length toward whichever absolute
// bound was violated, or the target when the miss was inside the bounds.
// The measured rate of the attempt just taken drives the extrapolation,
// not the cross-run pacing estimate.
func (l *Loop) correctedWordCount(wordCount, duration int) int {
	desired := l.cfg.TargetSeconds
	if duration < l.cfg.MinSeconds {
		desired = l.cfg.MinSeconds
	} else if duration > l.cfg.MaxSeconds {
		desired = l.cfg.MaxSeconds
	}

	if duration < 1 {
		duration = 1
	}
	return int(math.Round(float64(wordCount) * float64(desired) / float64(duration)))
}
