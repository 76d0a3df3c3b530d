package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PoolMetrics holds the worker-thread gauges of one execution pool.
//
// The counters are injected into the pool at construction so tests can run
// independent pools against independent registries. Production pools share
// the process-wide set returned by Default.
type PoolMetrics struct {
	// ThreadsAlive tracks workers currently running.
	ThreadsAlive prometheus.Gauge

	// ThreadsTotal counts workers ever started (cumulative).
	ThreadsTotal prometheus.Counter
}

// NewPoolMetrics creates pool gauges registered against reg.
func NewPoolMetrics(reg prometheus.Registerer) *PoolMetrics {
	factory := promauto.With(reg)
	return &PoolMetrics{
		ThreadsAlive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "node_pool_threads_alive",
			Help: "Number of execution pool workers currently alive",
		}),
		ThreadsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "node_pool_threads_total",
			Help: "Total number of execution pool workers ever started",
		}),
	}
}

var (
	defaultPool     *PoolMetrics
	defaultPoolOnce sync.Once
)

// Default returns the process-wide pool metrics, registered on the default
// prometheus registry on first use.
func Default() *PoolMetrics {
	defaultPoolOnce.Do(func() {
		defaultPool = NewPoolMetrics(prometheus.DefaultRegisterer)
	})
	return defaultPool
}
