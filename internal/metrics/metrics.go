// Package metrics exposes the gateway's counters as Prometheus vectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/geosafe-net/geosafe/internal/sources"
)

// Metrics holds every counter/gauge the gateway exports.
type Metrics struct {
	FetchesTotal       *prometheus.CounterVec
	FailuresTotal      *prometheus.CounterVec
	RetriesTotal       *prometheus.CounterVec
	StaleServesTotal   *prometheus.CounterVec
	CacheHitsTotal     *prometheus.CounterVec
	BreakerState       *prometheus.GaugeVec
	AggregateDisasters prometheus.Gauge
	AggregateDuration  prometheus.Histogram
}

// New registers and returns the gateway's metrics against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geosafe",
			Name:      "source_fetches_total",
			Help:      "Total upstream fetch attempts per source.",
		}, []string{"source"}),
		FailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geosafe",
			Name:      "source_failures_total",
			Help:      "Total upstream fetch failures per source.",
		}, []string{"source"}),
		RetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geosafe",
			Name:      "source_retries_total",
			Help:      "Total retry attempts per source.",
		}, []string{"source"}),
		StaleServesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geosafe",
			Name:      "stale_serves_total",
			Help:      "Total responses served from stale cache per source.",
		}, []string{"source"}),
		CacheHitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geosafe",
			Name:      "cache_hits_total",
			Help:      "Total fresh cache hits per source.",
		}, []string{"source"}),
		BreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "geosafe",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per source (0=CLOSED, 1=HALF_OPEN, 2=OPEN).",
		}, []string{"source"}),
		AggregateDisasters: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "geosafe",
			Name:      "aggregate_disasters",
			Help:      "Number of disasters in the last merged aggregate.",
		}),
		AggregateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "geosafe",
			Name:      "aggregate_duration_seconds",
			Help:      "Time to produce a merged aggregate, including fan-out.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// BreakerStateValue maps a breaker state string to the gauge encoding used
// by BreakerState.
func BreakerStateValue(state string) float64 {
	switch state {
	case "CLOSED":
		return 0
	case "HALF_OPEN":
		return 1
	case "OPEN":
		return 2
	default:
		return -1
	}
}

// SourceLabel returns the label value metrics use for a source id.
func SourceLabel(id sources.ID) string { return string(id) }
