// Package notify provides a synchronous subscriber list.
//
// Broadcast invokes every subscriber on the calling goroutine, in
// subscription order. When the notifier belongs to a resource owned by an
// executor, subscribers therefore run on the executor goroutine and must not
// block for long.
package notify

import (
	"log/slog"
	"runtime/debug"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/ownr-go/core/metrics"
)

type Options struct {
	Logger *slog.Logger
	// Delivered counts subscriber invocations.
	Delivered metrics.Counter
	// Subscribers tracks the number of active subscriptions.
	Subscribers metrics.Gauge
}

// Notifier fans events of type E out to its subscribers.
type Notifier[E any] struct {
	log         *slog.Logger
	delivered   metrics.Counter
	subscribers metrics.Gauge

	mu   sync.RWMutex
	subs []*Subscription[E]
}

// Subscription is a handle returned by Subscribe.
type Subscription[E any] struct {
	id string
	fn func(E)
	n  *Notifier[E]
}

func New[E any](opts Options) *Notifier[E] {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Delivered == nil {
		opts.Delivered = metrics.NopCounter()
	}
	if opts.Subscribers == nil {
		opts.Subscribers = metrics.NopGauge()
	}
	return &Notifier[E]{
		log:         opts.Logger,
		delivered:   opts.Delivered,
		subscribers: opts.Subscribers,
	}
}

// Subscribe registers fn and returns a handle to remove it again.
func (n *Notifier[E]) Subscribe(fn func(E)) *Subscription[E] {
	s := &Subscription[E]{id: gonanoid.Must(10), fn: fn, n: n}

	n.mu.Lock()
	n.subs = append(n.subs, s)
	n.mu.Unlock()

	n.subscribers.Inc()
	return s
}

// Broadcast calls every current subscriber with e and returns how many were
// called. A panicking subscriber is logged and skipped.
func (n *Notifier[E]) Broadcast(e E) int {
	n.mu.RLock()
	subs := make([]*Subscription[E], len(n.subs))
	copy(subs, n.subs)
	n.mu.RUnlock()

	for _, s := range subs {
		n.deliver(s, e)
	}
	return len(subs)
}

// Len returns the number of active subscriptions.
func (n *Notifier[E]) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

func (n *Notifier[E]) deliver(s *Subscription[E], e E) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error(
				"subscriber panicked",
				slog.String("subscription", s.id),
				slog.Any("recovered", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	n.delivered.Inc()
	s.fn(e)
}

func (n *Notifier[E]) remove(target *Subscription[E]) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, s := range n.subs {
		if s == target {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return true
		}
	}
	return false
}

// ID returns the subscription id.
func (s *Subscription[E]) ID() string { return s.id }

// Unsubscribe removes the subscription. It is safe to call more than once.
func (s *Subscription[E]) Unsubscribe() {
	if s.n.remove(s) {
		s.n.subscribers.Dec()
	}
}
