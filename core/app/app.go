package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/codewandler/ownr-go/core/future"
	"github.com/codewandler/ownr-go/core/metrics"
	"github.com/codewandler/ownr-go/core/notify"
	"github.com/codewandler/ownr-go/core/owner"
	"github.com/codewandler/ownr-go/core/resource"
	"github.com/codewandler/ownr-go/core/schedule"
	"github.com/codewandler/ownr-go/core/sf"
)

type Manager = resource.Manager

// Metrics bundles the instruments reported by an App. Nil fields are no-ops.
type Metrics struct {
	Owner       owner.OwnerMetrics
	Delivered   metrics.Counter
	Subscribers metrics.Gauge
	Fired       metrics.Counter
}

type StatusConfig struct {
	// Interval between status refreshes. Defaults to one second.
	Interval time.Duration
	// Cron overrides Interval with a cron expression when set.
	Cron string
	// Disabled turns periodic refreshes off.
	Disabled bool
	// Value produces the next status value. Defaults to a random int in [0,100).
	Value func() int
}

type Config struct {
	Context context.Context
	Log     *slog.Logger
	// ExecutorID names the owner goroutine in logs, metrics and replies.
	ExecutorID string
	// QueueCapacity bounds the number of pending requests. Defaults to 64.
	QueueCapacity int
	Status        StatusConfig
	Metrics       Metrics
	Clock         func() time.Time
}

// App runs one resource.Manager behind an owner executor, refreshes its
// status periodically and serves caller requests through the queue.
type App struct {
	ctx       context.Context
	cancelCtx context.CancelFunc
	log       *slog.Logger

	q        *owner.Queue[Manager]
	exec     *owner.Executor[Manager]
	sched    *schedule.Scheduler
	notifier *notify.Notifier[resource.StatusRecord]
	status   StatusConfig

	lastMu sync.Mutex
	last   resource.StatusRecord
	reads  sf.Group[resource.StatusRecord]

	stopOnce sync.Once
	stopErr  error
	done     chan struct{}
}

func New(config Config) (app *App, err error) {
	app = &App{done: make(chan struct{})}

	// === logger ===
	if config.Log == nil {
		config.Log = slog.Default()
	}
	if config.ExecutorID == "" {
		config.ExecutorID = fmt.Sprintf("owner-%s", gonanoid.Must(6))
	}
	app.log = config.Log.With(slog.String("executor", config.ExecutorID))

	// === context ===
	if config.Context == nil {
		config.Context = context.Background()
	}
	app.ctx, app.cancelCtx = context.WithCancel(config.Context)

	// === queue ===
	if config.QueueCapacity == 0 {
		config.QueueCapacity = 64
	}
	app.q, err = owner.NewQueue[Manager](config.QueueCapacity)
	if err != nil {
		app.cancelCtx()
		return nil, fmt.Errorf("create queue: %w", err)
	}

	// === status ===
	if config.Status.Interval == 0 {
		config.Status.Interval = time.Second
	}
	if config.Status.Value == nil {
		config.Status.Value = func() int { return rand.IntN(100) }
	}
	app.status = config.Status

	// === resource ===
	app.notifier = notify.New[resource.StatusRecord](notify.Options{
		Logger:      app.log,
		Delivered:   config.Metrics.Delivered,
		Subscribers: config.Metrics.Subscribers,
	})
	app.notifier.Subscribe(app.recordStatus)

	res := resource.NewManager(resource.Options{
		Name:     config.ExecutorID,
		Notifier: app.notifier,
		Clock:    config.Clock,
	})

	app.exec = owner.NewExecutor(res, app.q, owner.Options{
		ID:      config.ExecutorID,
		Logger:  config.Log,
		Metrics: config.Metrics.Owner,
	})

	app.sched = schedule.New(schedule.Options{
		Logger: app.log,
		Fired:  config.Metrics.Fired,
	})

	app.log.Debug("creating app", slog.Int("queue_capacity", config.QueueCapacity))
	return app, nil
}

// Run starts the executor and the status scheduler.
func (a *App) Run() (err error) {
	if err = a.exec.Start(); err != nil {
		return err
	}

	if !a.status.Disabled {
		if a.status.Cron != "" {
			_, err = a.sched.Cron(a.status.Cron, a.refreshStatus)
		} else {
			_, err = a.sched.Every(a.status.Interval, a.refreshStatus)
		}
		if err != nil {
			a.Stop()
			return fmt.Errorf("schedule status refresh: %w", err)
		}
	}
	a.sched.Start()

	a.log.Info("app started")
	return nil
}

// Run creates and starts an App.
func Run(config Config) (app *App, err error) {
	app, err = New(config)
	if err != nil {
		return nil, err
	}

	err = app.Run()
	if err != nil {
		return nil, err
	}

	return app, nil
}

// Shutdown stops the app in order: callers stop producing, the scheduler
// stops, the queue is completed and the executor drains what was already
// accepted. It is safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	a.stopOnce.Do(func() {
		defer close(a.done)

		a.cancelCtx()

		if err := a.sched.Stop(ctx); err != nil {
			a.stopErr = errors.Join(a.stopErr, err)
		}

		a.q.CompleteAdding()

		// an app that never ran still owes its accepted tasks an outcome,
		// so the executor drains them inline
		if err := a.exec.Run(); errors.Is(err, owner.ErrAlreadyStarted) {
			select {
			case <-a.exec.Done():
			case <-ctx.Done():
				a.stopErr = errors.Join(a.stopErr, fmt.Errorf("waiting for executor: %w", ctx.Err()))
			}
		}

		a.log.Info(
			"app stopped",
			slog.Uint64("processed", a.exec.Processed()),
			slog.Uint64("failed", a.exec.Failed()),
		)
	})
	return a.stopErr
}

// Stop is Shutdown without a deadline.
func (a *App) Stop() {
	_ = a.Shutdown(context.Background())
}

// Done is closed once Shutdown has finished.
func (a *App) Done() <-chan struct{} { return a.done }

// Context is cancelled when shutdown begins.
func (a *App) Context() context.Context { return a.ctx }

func (a *App) Queue() *owner.Queue[Manager] { return a.q }

func (a *App) Executor() *owner.Executor[Manager] { return a.exec }

func (a *App) Scheduler() *schedule.Scheduler { return a.sched }

// Subscribe registers fn for status broadcasts. fn runs on the executor
// goroutine.
func (a *App) Subscribe(fn func(resource.StatusRecord)) *notify.Subscription[resource.StatusRecord] {
	return a.notifier.Subscribe(fn)
}

// LastStatus returns the most recently broadcast status.
func (a *App) LastStatus() resource.StatusRecord {
	a.lastMu.Lock()
	defer a.lastMu.Unlock()
	return a.last
}

// SendData asks the resource for a reply addressed to callerID.
func (a *App) SendData(ctx context.Context, callerID string) (string, error) {
	return owner.Request(ctx, a.q, func(m *Manager) (string, error) {
		return m.SendData(callerID), nil
	}, owner.WithName("send_data"))
}

// UpdateStatus sets the resource status. The future resolves once
// subscribers have been notified.
func (a *App) UpdateStatus(value int) *future.Future[future.Unit] {
	return owner.ExecContext(a.ctx, a.q, func(m *Manager) error {
		m.UpdateStatus(value)
		return nil
	}, owner.WithName("update_status"))
}

// Status reads the current status through the executor. Concurrent readers
// share one queued read.
func (a *App) Status(ctx context.Context) (resource.StatusRecord, error) {
	return a.reads.Do(ctx, "status", func() (resource.StatusRecord, error) {
		return owner.Request(a.ctx, a.q, func(m *Manager) (resource.StatusRecord, error) {
			return m.Status(), nil
		}, owner.WithName("status"))
	})
}

// Requests returns how many SendData requests the resource has served.
func (a *App) Requests(ctx context.Context) (int, error) {
	return owner.Request(ctx, a.q, func(m *Manager) (int, error) {
		return m.Requests(), nil
	}, owner.WithName("requests"))
}

// RunCaller sends a request every interval until ctx is done, the app shuts
// down or the queue stops accepting work. onReply, if set, receives every
// reply.
func (a *App) RunCaller(ctx context.Context, callerID string, interval time.Duration, onReply func(string)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(a.ctx, cancel)
	defer stop()

	log := a.log.With(slog.String("caller", callerID))
	log.Debug("caller started")
	defer log.Debug("caller stopped")

	tmr := time.NewTimer(0)
	defer tmr.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tmr.C:
		}

		reply, err := a.SendData(ctx, callerID)
		switch {
		case err == nil:
			if onReply != nil {
				onReply(reply)
			}
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, future.ErrRejected):
			log.Debug("request rejected", slog.Any("error", err))
			return nil
		default:
			log.Warn("request failed", slog.Any("error", err))
		}

		tmr.Reset(interval)
	}
}

// RunCallers runs n callers concurrently and waits for all of them.
func (a *App) RunCallers(ctx context.Context, n int, interval time.Duration, onReply func(callerID, reply string)) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := range n {
		callerID := fmt.Sprintf("caller-%d-%s", i, gonanoid.Must(4))
		g.Go(func() error {
			return a.RunCaller(ctx, callerID, interval, func(reply string) {
				if onReply != nil {
					onReply(callerID, reply)
				}
			})
		})
	}
	return g.Wait()
}

func (a *App) refreshStatus() {
	f := a.UpdateStatus(a.status.Value())
	select {
	case <-f.Done():
		if err := f.Wait(); err != nil {
			a.log.Warn("status refresh not delivered", slog.Any("error", err))
		}
	default:
	}
}

func (a *App) recordStatus(s resource.StatusRecord) {
	a.log.Info(
		"resource status updated",
		slog.Int("value", s.Value),
		slog.String("at", s.Timestamp.Format(resource.TimeLayout)),
	)

	a.lastMu.Lock()
	a.last = s
	a.lastMu.Unlock()
}
