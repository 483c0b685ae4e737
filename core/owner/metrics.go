package owner

import "github.com/codewandler/ownr-go/core/metrics"

// OwnerMetrics defines the metrics reported by an Executor.
// All methods are thread-safe.
type OwnerMetrics interface {
	// Task handling
	TaskDuration(op string) metrics.Timer
	TaskProcessed(op string, success bool)
	TaskPanic(op string)

	// Queue
	QueueDepth(executorID string, depth int)

	// Lifecycle
	ExecutorState(executorID string, state State)
}

// nopOwnerMetrics is a no-op implementation of OwnerMetrics.
type nopOwnerMetrics struct{}

func (nopOwnerMetrics) TaskDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopOwnerMetrics) TaskProcessed(string, bool)        {}
func (nopOwnerMetrics) TaskPanic(string)                  {}

func (nopOwnerMetrics) QueueDepth(string, int) {}

func (nopOwnerMetrics) ExecutorState(string, State) {}

// NopOwnerMetrics returns a no-op OwnerMetrics implementation.
func NopOwnerMetrics() OwnerMetrics { return nopOwnerMetrics{} }
