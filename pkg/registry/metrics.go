package registry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	queriesTotal   *prometheus.CounterVec
	activePollers  prometheus.Gauge
	prunedTotal    prometheus.Counter
	internalErrors prometheus.Counter
	queryDuration  prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		queriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snowflake_mcp",
			Subsystem: "registry",
			Name:      "queries_total",
			Help:      "Queries reaching a terminal status, by status.",
		}, []string{"status"}),
		activePollers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "snowflake_mcp",
			Subsystem: "registry",
			Name:      "active_pollers",
			Help:      "Pollers currently watching a running query.",
		}),
		prunedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "snowflake_mcp",
			Subsystem: "registry",
			Name:      "pruned_records_total",
			Help:      "Records removed by TTL pruning.",
		}),
		internalErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "snowflake_mcp",
			Subsystem: "registry",
			Name:      "internal_errors_total",
			Help:      "Unexpected errors inside the registry; indicates a bug.",
		}),
		queryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "snowflake_mcp",
			Subsystem: "registry",
			Name:      "query_duration_seconds",
			Help:      "Wall-clock duration of queries from start to terminal status.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		}),
	}
}

func (m *metrics) observeTerminal(status Status, started, finished time.Time) {
	m.queriesTotal.WithLabelValues(string(status)).Inc()
	if !started.IsZero() && !finished.IsZero() {
		m.queryDuration.Observe(finished.Sub(started).Seconds())
	}
}
