package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewandler/ownr-go/core/app"
	"github.com/codewandler/ownr-go/core/owner"
	"github.com/codewandler/ownr-go/core/resource"
)

func gatherNames(t *testing.T, reg *prometheus.Registry) map[string]bool {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)

	names := make(map[string]bool)
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	return names
}

func TestNewOwnerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOwnerMetrics(reg)

	require.NotNil(t, m)

	timer := m.TaskDuration("send_data")
	assert.NotNil(t, timer)
	timer.ObserveDuration()

	m.TaskProcessed("send_data", true)
	m.TaskProcessed("send_data", false)
	m.TaskPanic("send_data")
	m.QueueDepth("owner-1", 10)
	m.ExecutorState("owner-1", owner.StateDraining)

	names := gatherNames(t, reg)
	assert.True(t, names["ownr_owner_task_duration_seconds"])
	assert.True(t, names["ownr_owner_tasks_total"])
	assert.True(t, names["ownr_owner_panics_total"])
	assert.True(t, names["ownr_owner_queue_depth"])
	assert.True(t, names["ownr_owner_state"])

	om := m.(*ownerMetrics)
	assert.Equal(t, 1.0, testutil.ToFloat64(om.tasksTotal.WithLabelValues("send_data", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(om.tasksTotal.WithLabelValues("send_data", "false")))
	assert.Equal(t, 10.0, testutil.ToFloat64(om.queueDepth.WithLabelValues("owner-1")))
	assert.Equal(t, float64(owner.StateDraining), testutil.ToFloat64(om.executorState.WithLabelValues("owner-1")))
}

func TestOwnerMetrics_Executor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOwnerMetrics(reg)

	q := owner.MustQueue[resource.Manager](8)
	ex := owner.NewExecutor(resource.NewManager(resource.Options{}), q, owner.Options{
		ID:      "owner-x",
		Metrics: m,
		OnPanic: func(any, []byte, string) {},
	})

	owner.Exec(q, func(*resource.Manager) error { return nil }, owner.WithName("ok"))
	owner.Exec(q, func(*resource.Manager) error { return errors.New("no") }, owner.WithName("ok"))
	owner.Exec(q, func(*resource.Manager) error { panic("p") }, owner.WithName("boom"))
	q.CompleteAdding()
	require.NoError(t, ex.Run())

	om := m.(*ownerMetrics)
	assert.Equal(t, 1.0, testutil.ToFloat64(om.tasksTotal.WithLabelValues("ok", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(om.tasksTotal.WithLabelValues("ok", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(om.panicTotal.WithLabelValues("boom")))
	assert.Equal(t, float64(owner.StateStopped), testutil.ToFloat64(om.executorState.WithLabelValues("owner-x")))
	assert.Equal(t, 2, testutil.CollectAndCount(om.taskDuration))
}

func TestNewAppMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAppMetrics(reg)

	require.NotNil(t, m.Owner)
	require.NotNil(t, m.Delivered)
	require.NotNil(t, m.Subscribers)
	require.NotNil(t, m.Fired)

	a, err := app.Run(app.Config{
		Context: t.Context(),
		Metrics: m,
		Status: app.StatusConfig{
			Interval: 10 * time.Millisecond,
			Value:    func() int { return 1 },
		},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return a.LastStatus().Value == 1
	}, 2*time.Second, 5*time.Millisecond)
	a.Stop()

	names := gatherNames(t, reg)
	assert.True(t, names["ownr_notify_deliveries_total"])
	assert.True(t, names["ownr_notify_subscribers"])
	assert.True(t, names["ownr_schedule_jobs_fired_total"])
	assert.True(t, names["ownr_owner_tasks_total"])

	assert.GreaterOrEqual(t, testutil.ToFloat64(m.Fired.(prometheus.Counter)), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.Delivered.(prometheus.Counter)), 1.0)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Subscribers.(prometheus.Gauge)))
}

func TestBoolToStr(t *testing.T) {
	assert.Equal(t, "true", boolToStr(true))
	assert.Equal(t, "false", boolToStr(false))
}
