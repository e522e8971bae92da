// Package telemetry exposes Prometheus instrumentation for the scanner.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the scanner registers. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	BreakerRejected  *prometheus.CounterVec
	ScansTotal       prometheus.Counter
	ScanScore        prometheus.Histogram
}

// New creates and registers the scanner's metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokenscan",
			Name:      "provider_requests_total",
			Help:      "Provider adapter calls by provider, method and outcome.",
		}, []string{"provider", "method", "outcome"}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tokenscan",
			Name:      "provider_latency_seconds",
			Help:      "Upstream request latency by provider.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tokenscan",
			Name:      "cache_hits_total",
			Help:      "Provider cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tokenscan",
			Name:      "cache_misses_total",
			Help:      "Provider cache misses.",
		}),
		BreakerRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokenscan",
			Name:      "breaker_rejected_total",
			Help:      "Calls rejected by an open circuit breaker.",
		}, []string{"endpoint"}),
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tokenscan",
			Name:      "scans_total",
			Help:      "Completed token scans.",
		}),
		ScanScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tokenscan",
			Name:      "scan_score",
			Help:      "Distribution of emitted risk scores.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
	}

	reg.MustRegister(
		m.ProviderRequests,
		m.ProviderLatency,
		m.CacheHits,
		m.CacheMisses,
		m.BreakerRejected,
		m.ScansTotal,
		m.ScanScore,
	)
	return m
}

// RecordProviderCall counts one adapter call outcome.
func (m *Metrics) RecordProviderCall(provider, method, outcome string, latencySeconds float64) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(provider, method, outcome).Inc()
	if latencySeconds > 0 {
		m.ProviderLatency.WithLabelValues(provider).Observe(latencySeconds)
	}
}

// RecordCacheHit counts one provider cache hit or miss.
func (m *Metrics) RecordCacheHit(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}

// RecordBreakerRejection counts a call rejected by an open breaker.
func (m *Metrics) RecordBreakerRejection(endpoint string) {
	if m == nil {
		return
	}
	m.BreakerRejected.WithLabelValues(endpoint).Inc()
}

// RecordScan counts one finished scan and its score.
func (m *Metrics) RecordScan(score int) {
	if m == nil {
		return
	}
	m.ScansTotal.Inc()
	m.ScanScore.Observe(float64(score))
}
