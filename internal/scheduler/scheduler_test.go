package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consumidor-reports-parser/internal/config"
	"consumidor-reports-parser/internal/observability"
)

func TestOneshotRunsOnce(t *testing.T) {
	var runs atomic.Int32
	wantErr := errors.New("boom")

	s, err := New(config.SchedulerConfig{Mode: ModeOneshot}, observability.NewNopLogger(), func(context.Context) error {
		runs.Add(1)
		return wantErr
	})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Run(context.Background()), wantErr)
	assert.Equal(t, int32(1), runs.Load())
}

func TestIntervalRunsImmediatelyAndRepeats(t *testing.T) {
	var runs atomic.Int32

	s, err := New(config.SchedulerConfig{Mode: ModeInterval, IntervalS: 1}, observability.NewNopLogger(), func(context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "@every 1s", s.Spec())

	ctx, cancel := context.WithTimeout(context.Background(), 1600*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Run(ctx))
	assert.GreaterOrEqual(t, runs.Load(), int32(2))
}

func TestOverlappingRunsSkipped(t *testing.T) {
	var running, maxRunning atomic.Int32

	s, err := New(config.SchedulerConfig{Mode: ModeInterval, IntervalS: 1}, observability.NewNopLogger(), func(ctx context.Context) error {
		n := running.Add(1)
		defer running.Add(-1)
		if n > maxRunning.Load() {
			maxRunning.Store(n)
		}
		select {
		case <-time.After(2500 * time.Millisecond):
		case <-ctx.Done():
		}
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2200*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Run(ctx))
	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestNewValidation(t *testing.T) {
	noop := func(context.Context) error { return nil }
	logger := observability.NewNopLogger()

	_, err := New(config.SchedulerConfig{Mode: ModeCron, CronExpr: "not a cron"}, logger, noop)
	assert.Error(t, err)

	_, err = New(config.SchedulerConfig{Mode: ModeInterval}, logger, noop)
	assert.Error(t, err)

	_, err = New(config.SchedulerConfig{Mode: "weekly"}, logger, noop)
	assert.Error(t, err)

	s, err := New(config.SchedulerConfig{Mode: ModeCron, CronExpr: "0 3 * * *"}, logger, noop)
	require.NoError(t, err)
	assert.Equal(t, "0 3 * * *", s.Spec())
}
