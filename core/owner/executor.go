package owner

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/ownr-go/core/queue"
)

type (
	OnPanic func(recovered any, stack []byte, op string)

	// State is the lifecycle phase of an Executor.
	State int32
)

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type Options struct {
	// ID identifies the executor in logs and metrics. Defaults to a random id.
	ID      string
	Logger  *slog.Logger
	OnPanic OnPanic
	Metrics OwnerMetrics
}

// Executor owns a resource of type R and runs queued tasks against it, one
// at a time, on the goroutine that called Run.
type Executor[R any] struct {
	id       string
	log      *slog.Logger
	resource *R
	q        *Queue[R]
	onPanic  OnPanic
	metrics  OwnerMetrics

	state     atomic.Int32
	started   atomic.Bool
	processed atomic.Uint64
	failed    atomic.Uint64
	done      chan struct{}
}

// NewExecutor creates an executor for resource fed by q. The executor takes
// sole ownership of resource; no other goroutine may touch it afterwards.
func NewExecutor[R any](resource *R, q *Queue[R], opt Options) *Executor[R] {
	if opt.ID == "" {
		opt.ID = "owner-" + gonanoid.Must(8)
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Metrics == nil {
		opt.Metrics = NopOwnerMetrics()
	}

	log := opt.Logger.With(slog.String("executor", opt.ID))
	if opt.OnPanic == nil {
		opt.OnPanic = func(recovered any, stack []byte, op string) {
			log.Error("task panicked", slog.String("op", op), slog.Any("recovered", recovered), slog.String("stack", string(stack)))
		}
	}

	return &Executor[R]{
		id:       opt.ID,
		log:      log,
		resource: resource,
		q:        q,
		onPanic:  opt.OnPanic,
		metrics:  opt.Metrics,
		done:     make(chan struct{}),
	}
}

// ID returns the executor id.
func (e *Executor[R]) ID() string { return e.id }

// State returns the current lifecycle phase.
func (e *Executor[R]) State() State { return State(e.state.Load()) }

// Processed returns the number of tasks run so far, failed ones included.
func (e *Executor[R]) Processed() uint64 { return e.processed.Load() }

// Failed returns the number of tasks that returned an error or panicked.
func (e *Executor[R]) Failed() uint64 { return e.failed.Load() }

// Done is closed when Run returns.
func (e *Executor[R]) Done() <-chan struct{} { return e.done }

// Start runs the executor on a new goroutine.
func (e *Executor[R]) Start() error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	go e.run()
	return nil
}

// Run drains the queue until it is completed and empty. An executor runs at
// most once; later calls to Run or Start return ErrAlreadyStarted.
func (e *Executor[R]) Run() error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	e.run()
	return nil
}

func (e *Executor[R]) run() {
	defer close(e.done)

	e.setState(StateRunning)
	e.log.Debug("executor running", slog.Int("capacity", e.q.BoundedCapacity()))

	for {
		if e.State() == StateRunning && e.q.IsCompleted() {
			e.setState(StateDraining)
			e.log.Debug("executor draining", slog.Int("pending", e.q.Size()))
		}

		t, status := e.q.Take()
		if status != queue.StatusOK {
			break
		}
		e.metrics.QueueDepth(e.id, e.q.Size())
		e.execute(t)
	}

	e.setState(StateStopped)
	e.log.Debug(
		"executor stopped",
		slog.Uint64("processed", e.processed.Load()),
		slog.Uint64("failed", e.failed.Load()),
	)
}

// execute runs one task, containing any panic and forwarding it to the
// task's completion cell.
func (e *Executor[R]) execute(t Task[R]) {
	op := t.Name()
	defer e.metrics.TaskDuration(op).ObserveDuration()
	defer e.processed.Add(1)

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		stack := debug.Stack()
		e.failed.Add(1)
		e.metrics.TaskPanic(op)
		e.metrics.TaskProcessed(op, false)
		if t.fail != nil {
			execErr := &ExecutionError{Op: op, Recovered: r, Stack: stack}
			if err, ok := r.(error); ok {
				execErr.Err = err
			}
			t.fail(execErr)
		}
		e.reportPanic(r, stack, op)
	}()

	if t.run == nil {
		panic(ErrNilTask)
	}

	if err := t.run(e.resource); err != nil {
		e.failed.Add(1)
		e.metrics.TaskProcessed(op, false)
		e.log.Debug("task failed", slog.String("op", op), slog.Any("error", err))
		return
	}
	e.metrics.TaskProcessed(op, true)
}

// reportPanic calls the OnPanic hook. A panic raised by the hook itself is
// logged and swallowed so the run loop keeps draining.
func (e *Executor[R]) reportPanic(recovered any, stack []byte, op string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error(
				"panic hook panicked",
				slog.String("op", op),
				slog.Any("recovered", r),
				slog.Any("task_panic", recovered),
			)
		}
	}()
	e.onPanic(recovered, stack, op)
}

func (e *Executor[R]) setState(s State) {
	e.state.Store(int32(s))
	e.metrics.ExecutorState(e.id, s)
}
