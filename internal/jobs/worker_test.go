package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_EnqueueAndStats(t *testing.T) {
	w := NewWorker(2)

	var ran atomic.Int32
	done := make(chan struct{}, 3)
	for i := 0; i < 2; i++ {
		err := w.Enqueue("ok", func(ctx context.Context) error {
			ran.Add(1)
			done <- struct{}{}
			return nil
		})
		require.NoError(t, err)
	}
	w.EnqueueAsync("fails", func(ctx context.Context) error {
		done <- struct{}{}
		return errors.New("boom")
	})

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("jobs did not run")
		}
	}

	w.Shutdown()

	stats := w.GetStats()
	assert.Equal(t, int32(2), ran.Load())
	assert.Equal(t, int64(3), stats.CompletedJobs)
	assert.Equal(t, int64(1), stats.FailedJobs)
	assert.Equal(t, 0, stats.ActiveJobs)
	assert.Contains(t, stats.LastRun, "ok")
	assert.Contains(t, stats.LastRun, "fails")
}

func TestWorker_RecoversFromPanic(t *testing.T) {
	w := NewWorker(1)

	w.EnqueueAsync("panics", func(ctx context.Context) error {
		panic("unexpected")
	})
	w.Shutdown()

	stats := w.GetStats()
	assert.Equal(t, int64(1), stats.FailedJobs)
	assert.Equal(t, int64(1), stats.CompletedJobs)
}

func TestWorker_ScheduleEveryImmediate(t *testing.T) {
	w := NewWorker(1)

	var runs atomic.Int32
	first := make(chan struct{})
	w.ScheduleEveryImmediate("refresh", time.Hour, func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			close(first)
		}
		return nil
	})

	select {
	case <-first:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled job did not run at startup")
	}
	w.Shutdown()

	assert.Equal(t, int32(1), runs.Load())
}

func TestWorker_ShutdownIsIdempotent(t *testing.T) {
	w := NewWorker(1)
	w.Shutdown()
	assert.NotPanics(t, w.Shutdown)
	assert.Error(t, w.Context().Err())
}

func TestWorker_EnqueueAfterShutdown(t *testing.T) {
	w := NewWorker(2)
	w.Shutdown()

	var ran atomic.Bool
	err := w.Enqueue("late", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	assert.ErrorIs(t, err, ErrStopped)
	assert.False(t, ran.Load())
	assert.NotPanics(t, w.Shutdown)
}
