// Package metrics defines the small set of instrument interfaces the executor
// reports through, so the core packages never import a metrics backend
// directly. adapters/prometheus provides the production implementation.
package metrics

// Counter only goes up.
type Counter interface {
	Inc()
	// Add increments the counter by delta. delta must be >= 0.
	Add(delta float64)
}

// Gauge is a value that can go up and down, such as a queue depth.
type Gauge interface {
	Set(value float64)
	Inc()
	Dec()
}

// Timer measures one operation. Typical use:
//
//	defer m.TaskDuration(op).ObserveDuration()
type Timer interface {
	// ObserveDuration records the time elapsed since the timer was created.
	ObserveDuration()
}
