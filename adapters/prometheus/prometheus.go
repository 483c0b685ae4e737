// Package prometheus provides Prometheus implementations of the metrics
// interfaces used by the owner executor and the app wiring.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/ownr-go/core/app"
	"github.com/codewandler/ownr-go/core/metrics"
)

const namespace = "ownr"

// timer wraps a Prometheus histogram to implement the Timer interface.
type timer struct {
	h     prometheus.Observer
	start time.Time
}

func newTimer(h prometheus.Observer) metrics.Timer {
	return &timer{h: h, start: time.Now()}
}

func (t *timer) ObserveDuration() {
	t.h.Observe(time.Since(t.start).Seconds())
}

// Default histogram buckets for task latency (in seconds). Tasks run against
// an in-memory resource, so the low end is finer than the usual defaults.
var defaultBuckets = []float64{
	.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1,
}

func boolToStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// NewAppMetrics creates and registers every instrument an app.App reports
// through. Pass the result as app.Config.Metrics.
func NewAppMetrics(reg prometheus.Registerer) app.Metrics {
	delivered := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notify",
		Name:      "deliveries_total",
		Help:      "Total number of status broadcasts delivered to subscribers",
	})
	subscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "notify",
		Name:      "subscribers",
		Help:      "Current number of status subscribers",
	})
	fired := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "schedule",
		Name:      "jobs_fired_total",
		Help:      "Total number of scheduled jobs fired",
	})

	reg.MustRegister(delivered, subscribers, fired)

	return app.Metrics{
		Owner:       NewOwnerMetrics(reg),
		Delivered:   delivered,
		Subscribers: subscribers,
		Fired:       fired,
	}
}
