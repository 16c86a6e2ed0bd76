package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsSubmittedJobs(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(3, 8, nil)
	d.Start(context.Background())

	var ran atomic.Int32
	for i := 0; i < 8; i++ {
		require.NoError(t, d.Submit(func(context.Context) error {
			ran.Add(1)
			return nil
		}))
	}

	d.Close()
	assert.Equal(t, int32(8), ran.Load())
}

func TestDispatcherSubmitAfterClose(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(1, 1, nil)
	d.Start(context.Background())
	d.Close()

	err := d.Submit(func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrDispatcherClosed)
}

func TestDispatcherJobErrorDoesNotStopWorkers(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(1, 4, nil)
	d.Start(context.Background())

	var ran atomic.Int32
	require.NoError(t, d.Submit(func(context.Context) error {
		return errors.New("feed unreachable")
	}))
	require.NoError(t, d.Submit(func(context.Context) error {
		ran.Add(1)
		return nil
	}))

	d.Close()
	assert.Equal(t, int32(1), ran.Load())
}
