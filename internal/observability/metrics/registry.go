package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Feed engine metrics track fetch outcomes and change detection results.
var (
	// FeedChecksTotal counts feed check invocations by outcome.
	FeedChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_checks_total",
			Help: "Total number of feed checks",
		},
		[]string{"status"},
	)

	// FeedCheckDuration measures end-to-end feed check duration, fetch
	// through diff.
	FeedCheckDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_check_duration_seconds",
			Help:    "Feed check duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	// FeedFetchErrorsTotal counts fetch failures by error kind.
	FeedFetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetch_errors_total",
			Help: "Total number of feed fetch errors by kind",
		},
		[]string{"kind"},
	)

	// NewItemsTotal counts new items detected across all feeds.
	NewItemsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_new_items_total",
			Help: "Total number of new feed items detected",
		},
	)

	// ItemsObservedTotal counts all items observed, independent of the
	// diff filtering, for flood analysis.
	ItemsObservedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_items_observed_total",
			Help: "Total number of feed items observed",
		},
	)

	// CacheEventsTotal counts cache behavior by event type (fresh hit,
	// revalidated, miss).
	CacheEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_events_total",
			Help: "Total number of feed cache events",
		},
		[]string{"event"},
	)

	// CircuitBreakerOpen tracks which domains currently have an open
	// circuit.
	CircuitBreakerOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feed_circuit_breaker_open",
			Help: "1 when the domain's circuit breaker is open",
		},
		[]string{"domain"},
	)
)

// Database metrics track query performance for checkpoint persistence.
var (
	// DBQueryDuration measures database query duration by operation.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks in-use database connections.
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections.
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)
