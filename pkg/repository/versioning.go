package repository

import (
	"errors"
	"fmt"
)

// Versioned interface for entities that support optimistic locking
type Versioned interface {
	GetVersion() int64
	SetVersion(version int64)
}

// VersionedEntity is an entity whose history is kept as copy-on-write rows.
// The current row has a version reference of CurrentVersionRef; historic rows
// reference the id of the current row.
type VersionedEntity interface {
	Versioned
	GetVersionRefID() int64
	SetVersionRefID(id int64)
}

// CurrentVersionRef marks the current row of a versioned entity.
// A zero reference on an entity passed in by the caller is read the same way,
// since row ids start at 1 and no historic row can reference 0.
const CurrentVersionRef int64 = -1

func isCurrentRef(ref int64) bool {
	return ref == CurrentVersionRef || ref == 0
}

var (
	// ErrNotVersioned is returned when a versioned operation gets an entity without a version.
	ErrNotVersioned = errors.New("entity does not implement Versioned")

	// ErrNotLatestVersion is returned when a write requires the latest version and got an older one.
	ErrNotLatestVersion = errors.New("entity is not the latest version")

	// ErrNoPreviousVersion is returned by RollBack when no historic row exists.
	ErrNoPreviousVersion = errors.New("entity has no previous version")
)

// OptimisticLockError is returned when an optimistic lock conflict is detected
type OptimisticLockError struct {
	EntityID string
	Expected int64
	Actual   int64
}

// Error implements error.
func (e *OptimisticLockError) Error() string {
	return fmt.Sprintf("optimistic lock failed for entity %s: expected version %d, got %d",
		e.EntityID, e.Expected, e.Actual)
}

// NewOptimisticLockError creates a new OptimisticLockError
func NewOptimisticLockError(entityID string, expected, actual int64) *OptimisticLockError {
	return &OptimisticLockError{
		EntityID: entityID,
		Expected: expected,
		Actual:   actual,
	}
}
