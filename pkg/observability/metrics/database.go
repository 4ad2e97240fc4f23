package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	// dbQueryDuration tracks statement duration in seconds.
	// Labels: dialect, operation, status
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database statement duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"dialect", "operation", "status"},
	)

	// dbQueriesTotal tracks the number of executed statements.
	// Labels: dialect, operation, status
	dbQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_queries_total",
			Help: "Total number of database statements",
		},
		[]string{"dialect", "operation", "status"},
	)

	// dbOptimisticConflicts counts compare-and-swap updates rejected because of a stale version.
	dbOptimisticConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_optimistic_lock_conflicts_total",
			Help: "Total number of rejected optimistic updates",
		},
		[]string{"table"},
	)
)

// RecordQuery records one executed statement.
// operation is the leading SQL keyword (select, insert, update, delete, other).
func RecordQuery(dialect, operation string, err error, duration time.Duration) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	dbQueryDuration.WithLabelValues(dialect, operation, status).Observe(duration.Seconds())
	dbQueriesTotal.WithLabelValues(dialect, operation, status).Inc()
}

// RecordOptimisticConflict counts a rejected versioned update on table.
func RecordOptimisticConflict(table string) {
	dbOptimisticConflicts.WithLabelValues(table).Inc()
}
