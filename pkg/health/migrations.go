package health

import (
	"context"
	"fmt"

	"github.com/nimburion/querykit/pkg/migrate"
)

// MigrationStatusFunc reports the applied and pending schema migrations.
type MigrationStatusFunc func(ctx context.Context) (*migrate.Status, error)

// NewMigrationsChecker reports degraded while migrations are pending and
// unhealthy when the status cannot be read.
func NewMigrationsChecker(name string, status MigrationStatusFunc) *CustomChecker {
	return NewCustomChecker(name, func(ctx context.Context) (Status, string, error) {
		st, err := status(ctx)
		if err != nil {
			return StatusUnhealthy, "", err
		}
		if st == nil {
			return StatusUnhealthy, "", fmt.Errorf("no migration status")
		}
		if n := len(st.Pending); n > 0 {
			return StatusDegraded, fmt.Sprintf("%d pending migration(s), next %d_%s", n, st.Pending[0].Version, st.Pending[0].Name), nil
		}
		return StatusHealthy, fmt.Sprintf("%d migration(s) applied", len(st.AppliedVersions)), nil
	})
}

// NewStoreChecker combines the connectivity check of a store with its schema state.
func NewStoreChecker(name string, db Checkable, status MigrationStatusFunc) *CompositeChecker {
	checkers := []Checker{NewAdapterChecker(name+".connection", db, defaultCheckTimeout)}
	if status != nil {
		checkers = append(checkers, NewMigrationsChecker(name+".schema", status))
	}
	return NewCompositeChecker(name, checkers...)
}
