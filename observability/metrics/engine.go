package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics tracks state transition outcomes across all native modules.
type EngineMetrics struct {
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	swapVolume  prometheus.Counter
}

var (
	engineOnce     sync.Once
	engineRegistry *EngineMetrics
)

// Engine returns the process-wide engine metrics, registering them on first
// use.
func Engine() *EngineMetrics {
	engineOnce.Do(func() {
		engineRegistry = &EngineMetrics{
			transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "tidepool_transitions_total",
				Help: "Count of committed state transitions by terminal event type.",
			}, []string{"event"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "tidepool_transition_failures_total",
				Help: "Count of rejected state transitions by operation.",
			}, []string{"op"}),
			swapVolume: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "tidepool_swap_executions_total",
				Help: "Count of executed swaps.",
			}),
		}
		prometheus.MustRegister(
			engineRegistry.transitions,
			engineRegistry.failures,
			engineRegistry.swapVolume,
		)
	})
	return engineRegistry
}

// ObserveTransition records a committed transition's terminal event type.
func (m *EngineMetrics) ObserveTransition(eventType string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(eventType).Inc()
}

// ObserveFailure records a rejected transition.
func (m *EngineMetrics) ObserveFailure(op string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(op).Inc()
}

// ObserveSwap records an executed swap.
func (m *EngineMetrics) ObserveSwap() {
	if m == nil {
		return
	}
	m.swapVolume.Inc()
}
