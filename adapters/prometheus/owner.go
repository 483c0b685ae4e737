package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/ownr-go/core/metrics"
	"github.com/codewandler/ownr-go/core/owner"
)

// ownerMetrics implements owner.OwnerMetrics using Prometheus.
type ownerMetrics struct {
	taskDuration  *prometheus.HistogramVec
	tasksTotal    *prometheus.CounterVec
	panicTotal    *prometheus.CounterVec
	queueDepth    *prometheus.GaugeVec
	executorState *prometheus.GaugeVec
}

// NewOwnerMetrics creates a new Prometheus implementation of OwnerMetrics.
func NewOwnerMetrics(reg prometheus.Registerer) owner.OwnerMetrics {
	m := &ownerMetrics{
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ownr_owner_task_duration_seconds",
			Help:    "Task execution time in seconds",
			Buckets: defaultBuckets,
		}, []string{"op"}),

		tasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ownr_owner_tasks_total",
			Help: "Total number of tasks executed",
		}, []string{"op", "success"}),

		panicTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ownr_owner_panics_total",
			Help: "Total number of task panics",
		}, []string{"op"}),

		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ownr_owner_queue_depth",
			Help: "Pending tasks observed after each take",
		}, []string{"executor_id"}),

		executorState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ownr_owner_state",
			Help: "Executor lifecycle state (0 idle, 1 running, 2 draining, 3 stopped)",
		}, []string{"executor_id"}),
	}

	reg.MustRegister(
		m.taskDuration,
		m.tasksTotal,
		m.panicTotal,
		m.queueDepth,
		m.executorState,
	)

	return m
}

func (m *ownerMetrics) TaskDuration(op string) metrics.Timer {
	return newTimer(m.taskDuration.WithLabelValues(op))
}

func (m *ownerMetrics) TaskProcessed(op string, success bool) {
	m.tasksTotal.WithLabelValues(op, boolToStr(success)).Inc()
}

func (m *ownerMetrics) TaskPanic(op string) {
	m.panicTotal.WithLabelValues(op).Inc()
}

func (m *ownerMetrics) QueueDepth(executorID string, depth int) {
	m.queueDepth.WithLabelValues(executorID).Set(float64(depth))
}

func (m *ownerMetrics) ExecutorState(executorID string, state owner.State) {
	m.executorState.WithLabelValues(executorID).Set(float64(state))
}

var _ owner.OwnerMetrics = (*ownerMetrics)(nil)
