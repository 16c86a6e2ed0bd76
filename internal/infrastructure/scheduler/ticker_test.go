package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalSchedulerFiresImmediatelyAndOnTick(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(20 * time.Millisecond)
	var fired atomic.Int32
	require.NoError(t, s.Start(context.Background(), func(time.Time) {
		fired.Add(1)
	}))

	assert.Eventually(t, func() bool {
		return fired.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
}

func TestIntervalSchedulerStop(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(10 * time.Millisecond)
	var fired atomic.Int32
	require.NoError(t, s.Start(context.Background(), func(time.Time) {
		fired.Add(1)
	}))

	assert.Eventually(t, func() bool { return fired.Load() >= 1 }, time.Second, time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	// Allow an already-selected tick to drain before sampling.
	time.Sleep(30 * time.Millisecond)
	settled := fired.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, fired.Load())
}

func TestIntervalSchedulerContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s := NewIntervalScheduler(10 * time.Millisecond)
	var fired atomic.Int32
	require.NoError(t, s.Start(ctx, func(time.Time) {
		fired.Add(1)
	}))

	cancel()
	time.Sleep(30 * time.Millisecond)
	settled := fired.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, fired.Load())
}
