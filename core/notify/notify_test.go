package notify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingGauge struct {
	mu sync.Mutex
	v  float64
}

func (g *countingGauge) Set(v float64) { g.add(v - g.value()) }
func (g *countingGauge) Inc()          { g.add(1) }
func (g *countingGauge) Dec()          { g.add(-1) }

func (g *countingGauge) add(d float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.v += d
}

func (g *countingGauge) value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.v
}

func TestNotifier_BroadcastOrder(t *testing.T) {
	n := New[int](Options{})

	var got []string
	n.Subscribe(func(v int) { got = append(got, "a") })
	n.Subscribe(func(v int) { got = append(got, "b") })

	require.Equal(t, 2, n.Broadcast(1))
	require.Equal(t, []string{"a", "b"}, got)
}

func TestNotifier_Unsubscribe(t *testing.T) {
	g := &countingGauge{}
	n := New[string](Options{Subscribers: g})

	var calls int
	s1 := n.Subscribe(func(string) { calls++ })
	s2 := n.Subscribe(func(string) { calls += 10 })
	require.NotEqual(t, s1.ID(), s2.ID())
	require.Equal(t, 2, n.Len())
	require.EqualValues(t, 2, g.value())

	s1.Unsubscribe()
	s1.Unsubscribe()
	require.Equal(t, 1, n.Len())
	require.EqualValues(t, 1, g.value())

	n.Broadcast("x")
	require.Equal(t, 10, calls)

	s2.Unsubscribe()
	require.Equal(t, 0, n.Broadcast("y"))
	require.EqualValues(t, 0, g.value())
}

func TestNotifier_PanickingSubscriber(t *testing.T) {
	n := New[int](Options{})

	var got []int
	n.Subscribe(func(int) { panic("bad subscriber") })
	n.Subscribe(func(v int) { got = append(got, v) })

	require.NotPanics(t, func() { n.Broadcast(5) })
	require.Equal(t, []int{5}, got)
}

func TestNotifier_UnsubscribeDuringBroadcast(t *testing.T) {
	n := New[int](Options{})

	var (
		calls int
		s     *Subscription[int]
	)
	s = n.Subscribe(func(int) {
		calls++
		s.Unsubscribe()
	})

	n.Broadcast(1)
	n.Broadcast(2)
	require.Equal(t, 1, calls)
}

func TestNotifier_ConcurrentSubscribe(t *testing.T) {
	n := New[int](Options{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			n.Subscribe(func(int) {}).Unsubscribe()
		}()
		go func() {
			defer wg.Done()
			n.Broadcast(i)
		}()
	}
	wg.Wait()
	require.Equal(t, 0, n.Len())
}
