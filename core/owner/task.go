package owner

import (
	"github.com/codewandler/ownr-go/core/queue"
)

const anonymousOp = "anonymous"

// Task is a unit of work run once by an Executor against its resource.
//
// run executes the work and settles its completion cell; the returned error
// is only used for reporting. fail is called by the executor when run
// panics, so the waiting caller still observes an outcome.
type Task[R any] struct {
	name string
	run  func(*R) error
	fail func(error)
}

// NewTask builds a task from its parts. fail may be nil when nobody waits
// on the outcome.
func NewTask[R any](name string, run func(*R) error, fail func(error)) Task[R] {
	return Task[R]{name: name, run: run, fail: fail}
}

// Name returns the task name used for logs and metrics.
func (t Task[R]) Name() string {
	if t.name == "" {
		return anonymousOp
	}
	return t.name
}

// Queue is the bounded queue an Executor drains.
type Queue[R any] = queue.BlockingQueue[Task[R]]

// NewQueue creates a task queue holding at most capacity tasks.
func NewQueue[R any](capacity int) (*Queue[R], error) {
	return queue.New[Task[R]](capacity)
}

// MustQueue is like NewQueue but panics on an invalid capacity.
func MustQueue[R any](capacity int) *Queue[R] {
	return queue.Must[Task[R]](capacity)
}

// TaskOption configures a task submitted through Enqueue or Exec.
type TaskOption func(*taskOpts)

type taskOpts struct {
	name string
}

// WithName sets the task name reported in logs, metrics and errors.
func WithName(name string) TaskOption {
	return func(o *taskOpts) {
		o.name = name
	}
}
