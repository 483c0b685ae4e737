package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrConstruction = errors.New("queue capacity must be at least 1")
	ErrCompleted    = errors.New("queue completed for adding")
	ErrTimedOut     = errors.New("queue operation timed out")
)

// Status is the outcome of a queue operation.
type Status int

const (
	StatusOK Status = iota
	StatusCompleted
	StatusTimedOut
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCompleted:
		return "completed"
	case StatusTimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Err maps the status to its sentinel error. StatusOK maps to nil.
func (s Status) Err() error {
	switch s {
	case StatusOK:
		return nil
	case StatusCompleted:
		return ErrCompleted
	case StatusTimedOut:
		return ErrTimedOut
	default:
		return fmt.Errorf("unknown queue status %d", int(s))
	}
}

// BlockingQueue is a bounded FIFO safe for any number of producers and
// consumers. All state is guarded by mu; notFull and notEmpty share it.
type BlockingQueue[T any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	buf       []T
	head      int
	size      int
	completed bool
}

// New creates a queue holding at most capacity items.
func New[T any](capacity int) (*BlockingQueue[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrConstruction, capacity)
	}
	q := &BlockingQueue[T]{buf: make([]T, capacity)}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q, nil
}

// Must is like New but panics on an invalid capacity.
func Must[T any](capacity int) *BlockingQueue[T] {
	q, err := New[T](capacity)
	if err != nil {
		panic(err)
	}
	return q
}

// Add appends item at the tail, blocking while the queue is full.
// It returns StatusCompleted without inserting if the queue is, or becomes,
// completed while waiting.
func (q *BlockingQueue[T]) Add(item T) Status {
	return q.add(item, nil)
}

// TryAdd is the non-blocking form of Add. A full queue yields StatusTimedOut.
func (q *BlockingQueue[T]) TryAdd(item T) Status {
	return q.add(item, alwaysExpired)
}

// AddTimeout is like Add but gives up with StatusTimedOut after d.
func (q *BlockingQueue[T]) AddTimeout(item T, d time.Duration) Status {
	if d <= 0 {
		return q.TryAdd(item)
	}
	expired, stop := q.deadline(d)
	defer stop()
	return q.add(item, expired)
}

// AddContext is like Add but gives up with StatusTimedOut once ctx is done.
func (q *BlockingQueue[T]) AddContext(ctx context.Context, item T) Status {
	expired, stop := q.contextDeadline(ctx)
	defer stop()
	return q.add(item, expired)
}

// Take removes and returns the head item, blocking while the queue is empty.
// Items still queued are returned with StatusOK even after completion;
// StatusCompleted is only reported once the queue is completed and empty.
func (q *BlockingQueue[T]) Take() (T, Status) {
	return q.take(nil)
}

// TryTake is the non-blocking form of Take. An empty queue that is not
// completed yields StatusTimedOut.
func (q *BlockingQueue[T]) TryTake() (T, Status) {
	return q.take(alwaysExpired)
}

// TakeTimeout is like Take but gives up with StatusTimedOut after d.
func (q *BlockingQueue[T]) TakeTimeout(d time.Duration) (T, Status) {
	if d <= 0 {
		return q.TryTake()
	}
	expired, stop := q.deadline(d)
	defer stop()
	return q.take(expired)
}

// TakeContext is like Take but gives up with StatusTimedOut once ctx is done.
func (q *BlockingQueue[T]) TakeContext(ctx context.Context) (T, Status) {
	expired, stop := q.contextDeadline(ctx)
	defer stop()
	return q.take(expired)
}

// CompleteAdding marks the queue as completed and wakes every blocked
// producer and consumer. Calling it more than once is a no-op.
func (q *BlockingQueue[T]) CompleteAdding() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.completed {
		return
	}
	q.completed = true
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}

// IsCompleted reports whether CompleteAdding has been called.
// The result may be stale by the time the caller inspects it.
func (q *BlockingQueue[T]) IsCompleted() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.completed
}

// Size returns the number of queued items. The result may be stale by the
// time the caller inspects it.
func (q *BlockingQueue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// BoundedCapacity returns the capacity the queue was created with.
func (q *BlockingQueue[T]) BoundedCapacity() int {
	return len(q.buf)
}

// ---- internals ----

type expiredFunc func() bool

func alwaysExpired() bool { return true }

func (q *BlockingQueue[T]) add(item T, expired expiredFunc) Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == len(q.buf) && !q.completed {
		if expired != nil && expired() {
			return StatusTimedOut
		}
		q.notFull.Wait()
	}
	if q.completed {
		return StatusCompleted
	}

	q.buf[(q.head+q.size)%len(q.buf)] = item
	q.size++
	q.notEmpty.Signal()
	return StatusOK
}

func (q *BlockingQueue[T]) take(expired expiredFunc) (T, Status) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == 0 && !q.completed {
		if expired != nil && expired() {
			var zero T
			return zero, StatusTimedOut
		}
		q.notEmpty.Wait()
	}
	if q.size == 0 {
		var zero T
		return zero, StatusCompleted
	}

	var zero T
	item := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	q.notFull.Signal()
	return item, StatusOK
}

// wakeAll rouses every waiter so it re-checks its predicate and deadline.
func (q *BlockingQueue[T]) wakeAll() {
	q.mu.Lock()
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
	q.mu.Unlock()
}

func (q *BlockingQueue[T]) deadline(d time.Duration) (expiredFunc, func()) {
	at := time.Now().Add(d)
	tmr := time.AfterFunc(d, q.wakeAll)
	return func() bool { return !time.Now().Before(at) }, func() { tmr.Stop() }
}

func (q *BlockingQueue[T]) contextDeadline(ctx context.Context) (expiredFunc, func()) {
	stop := context.AfterFunc(ctx, q.wakeAll)
	return func() bool { return ctx.Err() != nil }, func() { stop() }
}
