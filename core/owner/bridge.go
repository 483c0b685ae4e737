package owner

import (
	"context"
	"fmt"

	"github.com/codewandler/ownr-go/core/future"
	"github.com/codewandler/ownr-go/core/queue"
)

// Enqueue submits op to the executor draining q and returns a future for its
// result. It blocks while q is full. If q no longer accepts work the future
// is already rejected when Enqueue returns.
func Enqueue[R any, T any](q *Queue[R], op func(*R) (T, error), opts ...TaskOption) *future.Future[T] {
	p, f := future.New[T]()
	if status := q.Add(requestTask(p, op, opts)); status != queue.StatusOK {
		p.Reject(rejection(status))
	}
	return f
}

// EnqueueContext is like Enqueue but stops waiting for queue space once ctx
// is done; the future is then rejected with future.ErrTimedOut. A task that
// was accepted is not cancelled by ctx.
func EnqueueContext[R any, T any](ctx context.Context, q *Queue[R], op func(*R) (T, error), opts ...TaskOption) *future.Future[T] {
	p, f := future.New[T]()
	if status := q.AddContext(ctx, requestTask(p, op, opts)); status != queue.StatusOK {
		p.Reject(rejection(status))
	}
	return f
}

// Exec submits an operation that produces no value.
func Exec[R any](q *Queue[R], op func(*R) error, opts ...TaskOption) *future.Future[future.Unit] {
	return Enqueue(q, unit(op), opts...)
}

// ExecContext is the context-aware form of Exec.
func ExecContext[R any](ctx context.Context, q *Queue[R], op func(*R) error, opts ...TaskOption) *future.Future[future.Unit] {
	return EnqueueContext(ctx, q, unit(op), opts...)
}

// Request submits op and waits for its result or for ctx to be done.
func Request[R any, T any](ctx context.Context, q *Queue[R], op func(*R) (T, error), opts ...TaskOption) (T, error) {
	return EnqueueContext(ctx, q, op, opts...).GetContext(ctx)
}

func unit[R any](op func(*R) error) func(*R) (future.Unit, error) {
	return func(r *R) (future.Unit, error) {
		return future.Unit{}, op(r)
	}
}

// requestTask wraps op so that running it settles p exactly once.
func requestTask[R any, T any](p *future.Promise[T], op func(*R) (T, error), opts []TaskOption) Task[R] {
	var o taskOpts
	for _, opt := range opts {
		opt(&o)
	}
	t := Task[R]{name: o.name}
	name := t.Name()

	t.run = func(r *R) error {
		v, err := op(r)
		if err != nil {
			execErr := &ExecutionError{Op: name, Err: err}
			p.Reject(execErr)
			return execErr
		}
		p.Resolve(v)
		return nil
	}
	t.fail = func(err error) { p.Reject(err) }
	return t
}

func rejection(status queue.Status) error {
	if status == queue.StatusTimedOut {
		return fmt.Errorf("%w: %w: %w", future.ErrRejected, future.ErrTimedOut, status.Err())
	}
	return fmt.Errorf("%w: %w", future.ErrRejected, status.Err())
}
