package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nimburion/querykit/pkg/observability/metrics"
	"github.com/nimburion/querykit/pkg/query"
)

// VersionStore is the repository a VersionedRepository writes through.
// *SQLRepository[T, int64] satisfies it.
type VersionStore[T any] interface {
	Create(ctx context.Context, entity *T) error
	FindByID(ctx context.Context, id int64) (*T, error)
	Find(ctx context.Context, src query.Source) ([]T, error)
	CompareAndSwap(ctx context.Context, entity *T, expectedVersion int64) error
	Delete(ctx context.Context, id int64) error
	DeleteWhere(ctx context.Context, src query.Source) (int64, error)
	EntityID(entity *T) int64
	AssignID(entity *T, id int64)
	IDColumn() string
	TableName() string
}

// VersionedPtr constrains the pointer type of a versioned entity.
type VersionedPtr[T any] interface {
	*T
	VersionedEntity
}

// VersionOptions configures a VersionedRepository.
type VersionOptions struct {
	// Strict refuses updates of entities that are not the latest version.
	Strict bool

	// Transactions, when set, makes every multi-statement operation atomic.
	Transactions TransactionManager

	// VersionColumn defaults to "version".
	VersionColumn string

	// VersionRefColumn defaults to "version_ref_id".
	VersionRefColumn string
}

// VersionedRepository keeps a copy-on-write history of every entity.
// Each logical entity has exactly one current row (version reference -1) and any
// number of historic rows referencing the current row's id. Writes to the
// current row are compare-and-swap on the version column, so concurrent
// updaters of the same entity get *OptimisticLockError instead of forking history.
type VersionedRepository[T any, PT VersionedPtr[T]] struct {
	store VersionStore[T]
	opts  VersionOptions
}

// NewVersionedRepository wraps store.
func NewVersionedRepository[T any, PT VersionedPtr[T]](store VersionStore[T], opts VersionOptions) *VersionedRepository[T, PT] {
	if opts.VersionColumn == "" {
		opts.VersionColumn = "version"
	}
	if opts.VersionRefColumn == "" {
		opts.VersionRefColumn = "version_ref_id"
	}
	return &VersionedRepository[T, PT]{store: store, opts: opts}
}

// Create inserts entity as the current row of a new logical entity.
func (r *VersionedRepository[T, PT]) Create(ctx context.Context, entity *T) error {
	if entity == nil {
		return ErrNilEntity
	}
	PT(entity).SetVersionRefID(CurrentVersionRef)
	return r.store.Create(ctx, entity)
}

// FindByID returns the row with the given id, current or historic.
func (r *VersionedRepository[T, PT]) FindByID(ctx context.Context, id int64) (*T, error) {
	return r.store.FindByID(ctx, id)
}

// GetAll returns the current row of every logical entity.
func (r *VersionedRepository[T, PT]) GetAll(ctx context.Context) ([]T, error) {
	q := query.New[T]().Where(query.Column(r.opts.VersionRefColumn)).Is(query.Int(CurrentVersionRef))
	return r.store.Find(ctx, q)
}

// GetAllVersions returns the current row and every historic row of entity id,
// oldest version first.
func (r *VersionedRepository[T, PT]) GetAllVersions(ctx context.Context, id int64) ([]T, error) {
	return r.store.Find(ctx, r.familyOf(id).OrderBy(query.Column(r.opts.VersionColumn)))
}

// IsLatestVersion reports whether entity is the current row and carries the stored version.
func (r *VersionedRepository[T, PT]) IsLatestVersion(ctx context.Context, entity *T) (bool, error) {
	if entity == nil {
		return false, ErrNilEntity
	}
	if !isCurrentRef(PT(entity).GetVersionRefID()) {
		return false, nil
	}
	current, err := r.store.FindByID(ctx, r.store.EntityID(entity))
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return PT(current).GetVersionRefID() == CurrentVersionRef &&
		PT(current).GetVersion() == PT(entity).GetVersion(), nil
}

// Update saves entity as a new version. The previous current row is kept as a
// historic row, and entity leaves as the current row with its version incremented.
// An entity carrying the id of a historic row is written to its family's current row.
// In strict mode an entity that is not the latest version is refused with
// ErrNotLatestVersion and nothing is written.
func (r *VersionedRepository[T, PT]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return ErrNilEntity
	}
	e := PT(entity)
	snapshot := *entity

	err := inTransaction(ctx, r.opts.Transactions, func(ctx context.Context) error {
		id := r.logicalID(entity)
		current, err := r.store.FindByID(ctx, id)
		if err != nil {
			return err
		}
		cur := PT(current)

		if r.opts.Strict {
			latest := isCurrentRef(e.GetVersionRefID()) &&
				cur.GetVersionRefID() == CurrentVersionRef &&
				e.GetVersion() == cur.GetVersion()
			if !latest {
				return fmt.Errorf("%w: entity %d at version %d, stored version %d",
					ErrNotLatestVersion, id, e.GetVersion(), cur.GetVersion())
			}
		}

		// an id naming a historic row is resolved to its family's current row
		if ref := cur.GetVersionRefID(); ref != CurrentVersionRef {
			id = ref
			if current, err = r.store.FindByID(ctx, id); err != nil {
				return err
			}
			cur = PT(current)
			if cur.GetVersionRefID() != CurrentVersionRef {
				return fmt.Errorf("%w: row %d does not reference a current row", ErrNotLatestVersion, r.store.EntityID(entity))
			}
		}

		expected := cur.GetVersion()
		r.store.AssignID(entity, id)
		e.SetVersionRefID(CurrentVersionRef)
		e.SetVersion(expected + 1)
		if err := r.store.CompareAndSwap(ctx, entity, expected); err != nil {
			r.recordConflict(err)
			return err
		}

		historic := *current
		h := PT(&historic)
		h.SetVersionRefID(id)
		r.store.AssignID(&historic, 0)
		if err := r.store.Create(ctx, &historic); err != nil {
			return fmt.Errorf("failed to archive version %d of entity %d: %w", expected, id, err)
		}
		return nil
	})
	if err != nil {
		*entity = snapshot
	}
	return err
}

// RollBack discards the current version of entity and restores the most recent
// historic row in its place. entity must be the current row; on success it holds
// the restored values.
func (r *VersionedRepository[T, PT]) RollBack(ctx context.Context, entity *T) error {
	if entity == nil {
		return ErrNilEntity
	}
	e := PT(entity)
	if !isCurrentRef(e.GetVersionRefID()) {
		return ErrNotLatestVersion
	}
	id := r.store.EntityID(entity)

	var restored T
	err := inTransaction(ctx, r.opts.Transactions, func(ctx context.Context) error {
		q := query.New[T]().
			Where(query.Column(r.opts.VersionRefColumn)).Is(query.Int(id)).
			OrderByDescending(query.Column(r.opts.VersionColumn)).
			Limit(1)
		previous, err := r.store.Find(ctx, q)
		if err != nil {
			return err
		}
		if len(previous) == 0 {
			return fmt.Errorf("%w: entity %d", ErrNoPreviousVersion, id)
		}

		restored = previous[0]
		historicID := r.store.EntityID(&restored)
		r.store.AssignID(&restored, id)
		PT(&restored).SetVersionRefID(CurrentVersionRef)

		if err := r.store.CompareAndSwap(ctx, &restored, e.GetVersion()); err != nil {
			r.recordConflict(err)
			return err
		}
		return r.store.Delete(ctx, historicID)
	})
	if err != nil {
		return err
	}
	*entity = restored
	return nil
}

// Delete removes entity id together with its whole history.
// It returns sql.ErrNoRows when nothing was deleted.
func (r *VersionedRepository[T, PT]) Delete(ctx context.Context, id int64) error {
	affected, err := r.store.DeleteWhere(ctx, r.familyOf(id))
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// familyOf matches the current row and every historic row of id.
func (r *VersionedRepository[T, PT]) familyOf(id int64) *query.Query[T] {
	return query.New[T]().
		Where(query.Column(r.store.IDColumn())).Is(query.Int(id)).
		Or(query.Column(r.opts.VersionRefColumn)).Is(query.Int(id))
}

// logicalID is the id of the current row of entity's family.
func (r *VersionedRepository[T, PT]) logicalID(entity *T) int64 {
	if ref := PT(entity).GetVersionRefID(); !isCurrentRef(ref) {
		return ref
	}
	return r.store.EntityID(entity)
}

func (r *VersionedRepository[T, PT]) recordConflict(err error) {
	var lockErr *OptimisticLockError
	if errors.As(err, &lockErr) {
		metrics.RecordOptimisticConflict(r.store.TableName())
	}
}
