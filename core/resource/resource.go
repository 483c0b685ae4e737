// Package resource contains Manager, the stateful object served by the owner
// executor. Manager is not safe for concurrent use; every call is expected
// to arrive through the executor goroutine.
package resource

import (
	"fmt"
	"time"

	"github.com/codewandler/ownr-go/core/notify"
)

// TimeLayout is the day-first layout used in replies.
const TimeLayout = "02/01/2006 15:04:05"

// StatusRecord is broadcast whenever the status of a Manager changes.
type StatusRecord struct {
	Value     int       `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

type Options struct {
	// Name appears in replies as the serving side. Defaults to "owner".
	Name     string
	Notifier *notify.Notifier[StatusRecord]
	Clock    func() time.Time
}

type Manager struct {
	name     string
	now      func() time.Time
	notifier *notify.Notifier[StatusRecord]

	status   StatusRecord
	requests int
	counter  int
}

func NewManager(opts Options) *Manager {
	if opts.Name == "" {
		opts.Name = "owner"
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.New[StatusRecord](notify.Options{})
	}
	return &Manager{
		name:     opts.Name,
		now:      opts.Clock,
		notifier: opts.Notifier,
	}
}

// SendData answers a request from callerID.
func (m *Manager) SendData(callerID string) string {
	m.requests++
	return fmt.Sprintf(
		"Reply to caller %s received at %s from %s.",
		callerID,
		m.now().Format(TimeLayout),
		m.name,
	)
}

// UpdateStatus records value with the current time and notifies subscribers
// before returning.
func (m *Manager) UpdateStatus(value int) StatusRecord {
	m.status = StatusRecord{Value: value, Timestamp: m.now()}
	m.notifier.Broadcast(m.status)
	return m.status
}

func (m *Manager) Status() StatusRecord { return m.status }

// Requests returns how many SendData calls have been served.
func (m *Manager) Requests() int { return m.requests }

// Increment bumps the internal counter and returns the new value.
func (m *Manager) Increment() int {
	m.counter++
	return m.counter
}

func (m *Manager) Counter() int { return m.counter }

func (m *Manager) Notifier() *notify.Notifier[StatusRecord] { return m.notifier }
