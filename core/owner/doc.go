// Package owner implements the single-owner executor pattern: one goroutine
// holds exclusive access to a resource and every other goroutine reaches it
// only by queueing closures.
//
// An [Executor] drains a bounded [Queue] of [Task] values and runs each one
// against the resource on its own goroutine, so the resource itself needs no
// locking. Callers use [Enqueue] (value results) or [Exec] (no result) to
// submit work and get back a [future.Future] that resolves once the executor
// has run it:
//
//	q := owner.MustQueue[Counter](64)
//	ex := owner.NewExecutor(&Counter{}, q, owner.Options{})
//	go ex.Run()
//
//	n, err := owner.Enqueue(q, func(c *Counter) (int, error) {
//	    c.n++
//	    return c.n, nil
//	}).Get()
//
// # Failures
//
// An operation that returns an error or panics resolves its future with an
// [*ExecutionError]; the executor recovers the panic and keeps serving the
// queue. A request submitted after [queue.BlockingQueue.CompleteAdding]
// resolves immediately with [future.ErrRejected].
//
// # Shutdown
//
// The executor has no stop method. Call CompleteAdding on the queue; the
// executor runs every task that was already accepted and then returns from
// [Executor.Run]. Accepted tasks are never cancelled.
//
// Tasks must not wait on futures served by their own executor; doing so
// blocks the executor forever.
package owner
