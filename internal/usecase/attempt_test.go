package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdrianRomo/Influencer-Automation/internal/domain"
)

func TestAttemptRunnerPromote(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	final := filepath.Join(dir, "article_voice.mp3")

	synth := &fakeSynth{responses: []synthResponse{{audio: []byte("mp3-bytes")}}}
	probe := &fakeProbe{durations: []int{175}}
	runner := NewAttemptRunner(synth, probe)

	att, err := runner.Run(context.Background(), "hola mundo", domain.VoiceSpec{VoiceID: "v"}, final)
	require.NoError(t, err)
	assert.Equal(t, 175, att.DurationSeconds)

	// Nothing visible at the destination before promotion.
	_, err = os.Stat(final)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, att.Promote())

	data, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAttemptRunnerDiscard(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	final := filepath.Join(dir, "article_voice.mp3")

	synth := &fakeSynth{responses: []synthResponse{{audio: []byte("mp3-bytes")}}}
	probe := &fakeProbe{durations: []int{240}}
	runner := NewAttemptRunner(synth, probe)

	att, err := runner.Run(context.Background(), "hola mundo", domain.VoiceSpec{VoiceID: "v"}, final)
	require.NoError(t, err)

	att.Discard()
	att.Discard() // idempotent

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAttemptRunnerProbeErrorCleansUp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	final := filepath.Join(dir, "article_voice.mp3")

	synth := &fakeSynth{responses: []synthResponse{{audio: []byte("not-mp3")}}}
	probe := &fakeProbe{durations: []int{0}, errs: []error{errors.New("no frames")}}
	runner := NewAttemptRunner(synth, probe)

	_, err := runner.Run(context.Background(), "hola", domain.VoiceSpec{VoiceID: "v"}, final)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAttemptRunnerSynthesisError(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{responses: []synthResponse{{err: errors.New("upstream 500")}}}
	probe := &fakeProbe{}
	runner := NewAttemptRunner(synth, probe)

	_, err := runner.Run(context.Background(), "hola", domain.VoiceSpec{VoiceID: "v"},
		filepath.Join(t.TempDir(), "a.mp3"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "synthesize")
	assert.Zero(t, probe.calls)
}
