package metrics

import "time"

// RecordFeedCheck records the outcome and duration of one feed check.
// Status should be "success" or "failure".
func RecordFeedCheck(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	FeedChecksTotal.WithLabelValues(status).Inc()
	FeedCheckDuration.Observe(duration.Seconds())
}

// RecordFetchError records a fetch failure by its classification.
func RecordFetchError(kind string) {
	FeedFetchErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordDiffResult records the item counts produced by one diff call.
func RecordDiffResult(newItems, totalObserved int) {
	NewItemsTotal.Add(float64(newItems))
	ItemsObservedTotal.Add(float64(totalObserved))
}

// RecordCacheEvent records cache behavior. Event should be one of "fresh",
// "revalidated", or "miss".
func RecordCacheEvent(event string) {
	CacheEventsTotal.WithLabelValues(event).Inc()
}

// SetCircuitOpen updates the open-circuit gauge for a domain.
func SetCircuitOpen(domain string, open bool) {
	v := 0.0
	if open {
		v = 1.0
	}
	CircuitBreakerOpen.WithLabelValues(domain).Set(v)
}

// RecordDBQuery records the duration of a database query. Operation names
// the query, e.g. "list_active_feeds" or "update_checkpoint".
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates the connection pool gauges.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
