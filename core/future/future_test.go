package future

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFuture_Resolve(t *testing.T) {
	p, f := New[string]()
	require.False(t, p.Settled())

	go func() { p.Resolve("hello") }()

	v, err := f.Get()
	require.NoError(t, err)
	require.Equal(t, "hello", v)
	require.True(t, p.Settled())
}

func TestFuture_Reject(t *testing.T) {
	p, f := New[int]()
	boom := errors.New("boom")
	require.True(t, p.Reject(boom))

	v, err := f.Get()
	require.ErrorIs(t, err, boom)
	require.Zero(t, v)
	require.ErrorIs(t, f.Wait(), boom)
}

func TestFuture_RejectNil(t *testing.T) {
	p, f := New[Unit]()
	p.Reject(nil)
	require.ErrorIs(t, f.Wait(), ErrRejected)
}

func TestFuture_SettleOnce(t *testing.T) {
	p, f := New[int]()

	const writers = 16
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			var ok bool
			if i%2 == 0 {
				ok = p.Resolve(i)
			} else {
				ok = p.Reject(errors.New("late"))
			}
			if ok {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, won)

	v1, err1 := f.Get()
	v2, err2 := f.Get()
	require.Equal(t, v1, v2)
	require.Equal(t, err1, err2)
}

func TestFuture_GetTimeout(t *testing.T) {
	p, f := New[int]()

	_, err := f.GetTimeout(10 * time.Millisecond)
	require.ErrorIs(t, err, ErrTimedOut)

	p.Resolve(7)
	v, err := f.GetTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, 7, v)
}

func TestFuture_GetContext(t *testing.T) {
	_, f := New[int]()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := f.GetContext(ctx)
	require.ErrorIs(t, err, ErrTimedOut)
	require.ErrorIs(t, err, context.Canceled)

	v, err := Resolved(3).GetContext(t.Context())
	require.NoError(t, err)
	require.Equal(t, 3, v)
}

func TestFuture_Done(t *testing.T) {
	f := Failed[Unit](ErrRejected)
	select {
	case <-f.Done():
	default:
		t.Fatal("failed future should be done")
	}
	require.ErrorIs(t, f.Wait(), ErrRejected)
}

func TestFuture_SettledWinsOverExpiredWait(t *testing.T) {
	f := Resolved(3)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	for range 100 {
		v, err := f.GetTimeout(0)
		require.NoError(t, err)
		require.Equal(t, 3, v)

		v, err = f.GetContext(ctx)
		require.NoError(t, err)
		require.Equal(t, 3, v)
	}

	_, pending := New[int]()
	_, err := pending.GetTimeout(0)
	require.ErrorIs(t, err, ErrTimedOut)
}
