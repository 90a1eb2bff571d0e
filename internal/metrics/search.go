package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every blastr metric.
const Namespace = "blastr"

// Search Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "searches_total",
			Help:      "Single-query searches by outcome",
		},
		[]string{"variant", "status"}, // hit / no_hit / failed
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_duration_seconds",
			Help:      "Single-query aligner wall time in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"variant"},
	)

	SearchRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_rows_total",
			Help:      "Aligner rows parsed",
		},
		[]string{"variant"},
	)

	PoolInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "pool_in_flight",
			Help:      "Aligner processes currently running in worker pools",
		},
	)

	BatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "batch_duration_seconds",
			Help:      "Batch wall time in seconds",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"variant", "status"}, // ok / error
	)

	ProvisionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "provision_total",
			Help:      "Environment gate decisions",
		},
		[]string{"tool", "action"}, // force / create / create_empty / noop / error
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_cache_total",
			Help:      "Aligner result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registerSearchOnce sync.Once

// RegisterSearchMetrics registers search metrics with the default registry.
// Safe to call more than once.
func RegisterSearchMetrics() {
	registerSearchOnce.Do(func() {
		prometheus.MustRegister(
			SearchesTotal,
			SearchDuration,
			SearchRowsTotal,
			PoolInFlight,
			BatchDuration,
			ProvisionTotal,
			SearchCacheTotal,
		)
	})
}
