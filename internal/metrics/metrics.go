// Package metrics instruments the matching engine with
// github.com/prometheus/client_golang (a direct teacher dependency,
// previously wired only to now-deleted HTTP/HFT-service instrumentation
// in internal/hft/metrics and internal/metrics). Grounded on
// internal/hft/metrics/baseline_metrics.go's promauto-constructed
// Histogram/Gauge/Counter shape, rehomed to cover the four surfaces
// SPEC_FULL's ambient stack actually exposes: matching latency, trade
// throughput, WAL append outcomes, and circuit-breaker state.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector this engine registers. A single instance
// is constructed per process and passed to internal/facade, which records
// matching, cascade, breaker and sweep counts against it (the sweeper's
// counts are recorded by the facade's SweepSymbolExpired). The WAL counters
// are registered but no package increments them.
type Metrics struct {
	MatchLatency   prometheus.Histogram
	OrdersSubmitted prometheus.Counter
	OrdersRejected  *prometheus.CounterVec
	TradesExecuted  prometheus.Counter
	CascadeDepth    prometheus.Histogram

	WALAppends       prometheus.Counter
	WALAppendFailures prometheus.Counter
	WALRotations     prometheus.Counter
	WALReplayRecords prometheus.Counter

	BreakerState prometheus.Gauge

	StopsTriggered prometheus.Counter
	StopsExpired   prometheus.Counter

	SweeperRuns          prometheus.Counter
	SweeperExpiredOrders prometheus.Counter
}

// New constructs and registers every collector under namespace (SPEC_FULL
// §6/§12's `metrics.namespace`, default "matchcore"), using the default
// prometheus registry via promauto as the teacher's baseline metrics do.
func New(namespace string) *Metrics {
	return &Metrics{
		MatchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_latency_microseconds",
			Help:      "Time spent inside one symbol's matching critical section, in microseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		OrdersSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_submitted_total",
			Help:      "Total orders accepted by SubmitOrder, across all symbols.",
		}),
		OrdersRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_rejected_total",
			Help:      "Total orders rejected, labeled by error category.",
		}, []string{"category"}),
		TradesExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_executed_total",
			Help:      "Total trades produced by the matching engine.",
		}),
		CascadeDepth: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cascade_depth",
			Help:      "Depth reached by a stop-trigger cascade before it drained.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 16},
		}),
		WALAppends: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wal_appends_total",
			Help:      "Total successful WAL record appends.",
		}),
		WALAppendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wal_append_failures_total",
			Help:      "Total failed WAL append attempts.",
		}),
		WALRotations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wal_rotations_total",
			Help:      "Total WAL segment rotations.",
		}),
		WALReplayRecords: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wal_replay_records_total",
			Help:      "Total WAL records applied during the most recent replay.",
		}),
		BreakerState: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wal_breaker_state",
			Help:      "WAL circuit breaker state: 0=closed, 1=half-open, 2=open.",
		}),
		StopsTriggered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stops_triggered_total",
			Help:      "Total conditional orders triggered by a trade print.",
		}),
		StopsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stops_expired_total",
			Help:      "Total conditional orders removed for having expired.",
		}),
		SweeperRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeper_runs_total",
			Help:      "Total expiry sweeper passes executed.",
		}),
		SweeperExpiredOrders: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeper_expired_orders_total",
			Help:      "Total resting GTD/DAY orders removed by the expiry sweeper.",
		}),
	}
}

// ObserveMatch records how long one matching call took, in microseconds.
func (m *Metrics) ObserveMatch(d time.Duration) {
	if m == nil {
		return
	}
	m.MatchLatency.Observe(float64(d.Microseconds()))
}

// RecordRejection increments the rejection counter for the given error
// category ("VALIDATION", "STATE", "TRADING", "INTERNAL").
func (m *Metrics) RecordRejection(category string) {
	if m == nil {
		return
	}
	m.OrdersRejected.WithLabelValues(category).Inc()
}
