// Package schedule runs recurring jobs on a background goroutine. It wraps
// robfig/cron so that both fixed intervals (including sub-second ones) and
// cron expressions can be used.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/codewandler/ownr-go/core/metrics"
)

var ErrInvalidInterval = errors.New("interval must be positive")

// TimerID identifies a scheduled job.
type TimerID = cron.EntryID

// Parser accepts standard five-field expressions, an optional leading
// seconds field and descriptors such as @hourly or @every 5s.
var Parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type Options struct {
	Logger   *slog.Logger
	Location *time.Location
	// Fired counts job invocations.
	Fired metrics.Counter
}

type Scheduler struct {
	c     *cron.Cron
	log   *slog.Logger
	fired metrics.Counter
}

func New(opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Fired == nil {
		opts.Fired = metrics.NopCounter()
	}

	log := opts.Logger.With(slog.String("component", "scheduler"))
	cl := cronLogger{log: log}
	return &Scheduler{
		c: cron.New(
			cron.WithLocation(opts.Location),
			cron.WithParser(Parser),
			cron.WithLogger(cl),
			cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)),
		),
		log:   log,
		fired: opts.Fired,
	}
}

// Every runs fn roughly every interval, starting one interval from now.
// An activation is skipped while the previous run of the same job is still
// in progress.
func (s *Scheduler) Every(interval time.Duration, fn func()) (TimerID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}
	id := s.c.Schedule(every(interval), s.job(fn))
	s.log.Debug("job scheduled", slog.Int("id", int(id)), slog.Duration("interval", interval))
	return id, nil
}

// Cron runs fn according to a cron expression understood by Parser.
func (s *Scheduler) Cron(spec string, fn func()) (TimerID, error) {
	sched, err := Parser.Parse(spec)
	if err != nil {
		return 0, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}
	id := s.c.Schedule(sched, s.job(fn))
	s.log.Debug("job scheduled", slog.Int("id", int(id)), slog.String("spec", spec))
	return id, nil
}

// Cancel removes a job. A run already in progress is not interrupted.
func (s *Scheduler) Cancel(id TimerID) {
	s.c.Remove(id)
	s.log.Debug("job cancelled", slog.Int("id", int(id)))
}

// Next returns the next activation of a job, or the zero time if the job
// is unknown or the scheduler has not been started.
func (s *Scheduler) Next(id TimerID) time.Time {
	return s.c.Entry(id).Next
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	return len(s.c.Entries())
}

// Start begins running jobs on a background goroutine. It is a no-op if
// already started.
func (s *Scheduler) Start() {
	s.c.Start()
}

// Stop prevents further activations and waits for running jobs to finish or
// for ctx to be done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.c.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running jobs: %w", ctx.Err())
	}
}

func (s *Scheduler) job(fn func()) cron.Job {
	return cron.FuncJob(func() {
		s.fired.Inc()
		fn()
	})
}

// every is a fixed-delay schedule. Unlike cron.Every it keeps sub-second
// precision.
type every time.Duration

func (e every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

// cronLogger routes cron diagnostics to slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append([]any{slog.Any("error", err)}, keysAndValues...)...)
}

var _ cron.Logger = cronLogger{}
