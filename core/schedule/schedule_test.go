package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s := New(Options{})
	s.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, s.Stop(ctx))
	})
	return s
}

func TestScheduler_Every(t *testing.T) {
	s := newTestScheduler(t)

	ticks := make(chan struct{}, 16)
	id, err := s.Every(10*time.Millisecond, func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	require.False(t, s.Next(id).IsZero())

	for i := 0; i < 3; i++ {
		select {
		case <-ticks:
		case <-time.After(time.Second):
			t.Fatalf("tick %d did not fire", i)
		}
	}
}

func TestScheduler_Cancel(t *testing.T) {
	s := newTestScheduler(t)

	var n atomic.Int32
	fired := make(chan struct{}, 1)
	id, err := s.Every(5*time.Millisecond, func() {
		n.Add(1)
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("job never fired")
	}

	s.Cancel(id)
	require.Equal(t, 0, s.Len())
	require.True(t, s.Next(id).IsZero())

	// a run may already be in flight when Cancel returns
	time.Sleep(20 * time.Millisecond)
	after := n.Load()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, after, n.Load())
}

func TestScheduler_PanicRecovered(t *testing.T) {
	s := newTestScheduler(t)

	var calls atomic.Int32
	ok := make(chan struct{})
	_, err := s.Every(5*time.Millisecond, func() {
		if calls.Add(1) == 1 {
			panic("first run fails")
		}
		select {
		case <-ok:
		default:
			close(ok)
		}
	})
	require.NoError(t, err)

	select {
	case <-ok:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not survive a panicking job")
	}
}

func TestScheduler_InvalidInput(t *testing.T) {
	s := New(Options{})

	_, err := s.Every(0, func() {})
	require.ErrorIs(t, err, ErrInvalidInterval)

	_, err = s.Cron("not a spec", func() {})
	require.Error(t, err)

	id, err := s.Cron("*/5 * * * * *", func() {})
	require.NoError(t, err)
	require.NotZero(t, id)

	id, err = s.Cron("@every 1m", func() {})
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	s.Cancel(id)
	require.Equal(t, 1, s.Len())
}

func TestScheduler_StopWaitsForRunningJob(t *testing.T) {
	s := New(Options{})
	s.Start()

	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	var once atomic.Bool
	_, err := s.Every(5*time.Millisecond, func() {
		if !once.CompareAndSwap(false, true) {
			return
		}
		close(started)
		<-release
		finished.Store(true)
	})
	require.NoError(t, err)
	<-started

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, s.Stop(t.Context()))
	require.True(t, finished.Load())
}

func TestEvery_Next(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 123, time.UTC)
	require.Equal(t, now.Add(250*time.Millisecond), every(250*time.Millisecond).Next(now))
}
