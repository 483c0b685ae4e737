// Package future provides a single-assignment completion cell that carries
// one value or one error from a producing goroutine to a waiting one.
//
// A [Promise] is the write side and is resolved exactly once; the matching
// [Future] is the read side and may be waited on from any goroutine.
package future

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrRejected reports that a request never reached its executor.
	ErrRejected = errors.New("future rejected")
	// ErrTimedOut reports that a wait gave up before the future resolved.
	ErrTimedOut = errors.New("future wait timed out")
)

// Unit is the result type of operations that produce no value.
type Unit struct{}

// Promise is the write side of a completion cell.
type Promise[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// Future is the read side of a completion cell.
type Future[T any] struct {
	p *Promise[T]
}

// New returns a connected promise and future.
func New[T any]() (*Promise[T], *Future[T]) {
	p := &Promise[T]{done: make(chan struct{})}
	return p, &Future[T]{p: p}
}

// Resolved returns a future that already holds v.
func Resolved[T any](v T) *Future[T] {
	p, f := New[T]()
	p.Resolve(v)
	return f
}

// Failed returns a future that already holds err.
func Failed[T any](err error) *Future[T] {
	p, f := New[T]()
	p.Reject(err)
	return f
}

// Resolve stores v. It returns false if the promise was already settled,
// in which case v is discarded.
func (p *Promise[T]) Resolve(v T) bool {
	return p.settle(v, nil)
}

// Reject stores err. A nil err is replaced with ErrRejected so the waiter
// always observes a failure.
func (p *Promise[T]) Reject(err error) bool {
	if err == nil {
		err = ErrRejected
	}
	var zero T
	return p.settle(zero, err)
}

// Settled reports whether Resolve or Reject has already been called.
func (p *Promise[T]) Settled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *Promise[T]) settle(v T, err error) (ok bool) {
	p.once.Do(func() {
		p.value = v
		p.err = err
		close(p.done)
		ok = true
	})
	return ok
}

// Done is closed once the future is resolved.
func (f *Future[T]) Done() <-chan struct{} { return f.p.done }

// Get blocks until the future is resolved and returns its value or error.
func (f *Future[T]) Get() (T, error) {
	<-f.p.done
	return f.p.value, f.p.err
}

// GetTimeout is like Get but returns ErrTimedOut if the future is not
// resolved within d.
func (f *Future[T]) GetTimeout(d time.Duration) (T, error) {
	select {
	case <-f.p.done:
		return f.p.value, f.p.err
	default:
	}

	tmr := time.NewTimer(d)
	defer tmr.Stop()

	select {
	case <-f.p.done:
		return f.p.value, f.p.err
	case <-tmr.C:
		var zero T
		return zero, ErrTimedOut
	}
}

// GetContext is like Get but returns early once ctx is done. The returned
// error then wraps both ErrTimedOut and the context error.
func (f *Future[T]) GetContext(ctx context.Context) (T, error) {
	select {
	case <-f.p.done:
		return f.p.value, f.p.err
	default:
	}

	select {
	case <-f.p.done:
		return f.p.value, f.p.err
	case <-ctx.Done():
		var zero T
		return zero, errors.Join(ErrTimedOut, ctx.Err())
	}
}

// Wait blocks until the future is resolved and returns only its error.
func (f *Future[T]) Wait() error {
	_, err := f.Get()
	return err
}
