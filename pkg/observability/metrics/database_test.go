package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordQuery verifies that statement metrics are recorded with their labels.
func TestRecordQuery(t *testing.T) {
	tests := []struct {
		name      string
		dialect   string
		operation string
		err       error
		status    string
	}{
		{name: "select ok", dialect: "sqlite", operation: "select", status: StatusOK},
		{name: "insert ok", dialect: "postgres", operation: "insert", status: StatusOK},
		{name: "update failed", dialect: "sqlserver", operation: "update", err: errors.New("deadlock"), status: StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := dbQueriesTotal.WithLabelValues(tt.dialect, tt.operation, tt.status)
			before := testutil.ToFloat64(counter)

			RecordQuery(tt.dialect, tt.operation, tt.err, 15*time.Millisecond)

			if got := testutil.ToFloat64(counter) - before; got != 1 {
				t.Errorf("counter delta = %v, want 1", got)
			}
			if n := testutil.CollectAndCount(dbQueryDuration, "db_query_duration_seconds"); n == 0 {
				t.Error("expected histogram samples")
			}
		})
	}
}

// TestRecordOptimisticConflict verifies the conflict counter is kept per table.
func TestRecordOptimisticConflict(t *testing.T) {
	counter := dbOptimisticConflicts.WithLabelValues("documents")
	before := testutil.ToFloat64(counter)

	RecordOptimisticConflict("documents")

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("conflict delta = %v, want 1", got)
	}
}
