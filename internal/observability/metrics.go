// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid; every method no-ops on it so components can be
// constructed without monitoring in tests.
type Metrics struct {
	// Upstream access
	UpstreamCalls   *prometheus.CounterVec
	UpstreamErrors  *prometheus.CounterVec
	RetryAttempts   prometheus.Counter
	FailoverJumps   prometheus.Counter
	UpstreamLatency *prometheus.HistogramVec

	// Caches
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Auth
	TokensIssued prometheus.Counter
	AuthRejected *prometheus.CounterVec

	// Classification
	TransactionsClassified *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "wallet_backend"
	}

	return &Metrics{
		UpstreamCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_calls_total",
			Help:      "Total upstream calls by provider and chain",
		}, []string{"provider", "chain"}),

		UpstreamErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Total failed upstream calls by provider and chain",
		}, []string{"provider", "chain"}),

		RetryAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_attempts_total",
			Help:      "Total rate-limit retries across all upstreams",
		}),

		FailoverJumps: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failover_jumps_total",
			Help:      "Total RPC endpoint failovers",
		}),

		UpstreamLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_latency_seconds",
			Help:      "Upstream call latency by provider",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),

		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Cache hits by cache name",
		}, []string{"cache"}),

		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Cache misses (including stale refreshes) by cache name",
		}, []string{"cache"}),

		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_tokens_issued_total",
			Help:      "Total session tokens issued",
		}),

		AuthRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_rejected_total",
			Help:      "Rejected authentication attempts by reason",
		}, []string{"reason"}),

		TransactionsClassified: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_classified_total",
			Help:      "Classified transactions by resulting type",
		}, []string{"type"}),
	}
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveUpstreamCall counts one upstream call.
func (m *Metrics) ObserveUpstreamCall(provider, chain string) {
	if m == nil {
		return
	}
	m.UpstreamCalls.WithLabelValues(provider, chain).Inc()
}

// ObserveUpstreamError counts one failed upstream call.
func (m *Metrics) ObserveUpstreamError(provider, chain string) {
	if m == nil {
		return
	}
	m.UpstreamErrors.WithLabelValues(provider, chain).Inc()
}

// ObserveRetry counts one rate-limit retry.
func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.RetryAttempts.Inc()
}

// ObserveFailover counts one endpoint failover.
func (m *Metrics) ObserveFailover() {
	if m == nil {
		return
	}
	m.FailoverJumps.Inc()
}

// ObserveUpstreamLatency records one upstream call duration in seconds.
func (m *Metrics) ObserveUpstreamLatency(provider string, seconds float64) {
	if m == nil {
		return
	}
	m.UpstreamLatency.WithLabelValues(provider).Observe(seconds)
}

// ObserveCacheHit counts a fresh-entry hit for the named cache.
func (m *Metrics) ObserveCacheHit(cache string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(cache).Inc()
}

// ObserveCacheMiss counts a miss or stale refresh for the named cache.
func (m *Metrics) ObserveCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(cache).Inc()
}

// ObserveTokenIssued counts one issued session token.
func (m *Metrics) ObserveTokenIssued() {
	if m == nil {
		return
	}
	m.TokensIssued.Inc()
}

// ObserveAuthRejected counts one rejected auth attempt.
func (m *Metrics) ObserveAuthRejected(reason string) {
	if m == nil {
		return
	}
	m.AuthRejected.WithLabelValues(reason).Inc()
}

// ObserveClassified counts one classified transaction by type.
func (m *Metrics) ObserveClassified(txType string) {
	if m == nil {
		return
	}
	m.TransactionsClassified.WithLabelValues(txType).Inc()
}
