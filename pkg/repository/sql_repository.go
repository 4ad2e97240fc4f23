package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nimburion/querykit/pkg/query"
)

var (
	// ErrNilEntity is returned when a write receives a nil entity.
	ErrNilEntity = errors.New("entity cannot be nil")

	// ErrMissingCriteria is returned by DeleteWhere when the criteria have no conditions.
	ErrMissingCriteria = errors.New("criteria without conditions")
)

// SQLRepository provides CRUD, criteria reads, aggregates and named filters for
// one table. It is safe for concurrent use; Configure may swap the database at any time.
type SQLRepository[T any, ID comparable] struct {
	mu            sync.RWMutex
	db            Database
	filters       map[string]query.Source
	tableName     string
	idColumn      string
	versionColumn string
	mapper        EntityMapper[T, ID]
}

// RepositoryOption configures an SQLRepository.
type RepositoryOption func(*repositoryOptions)

type repositoryOptions struct {
	versionColumn string
}

// WithVersionColumn sets the column used for optimistic locking (default "version").
func WithVersionColumn(column string) RepositoryOption {
	return func(o *repositoryOptions) {
		o.versionColumn = column
	}
}

// NewSQLRepository creates a repository for tableName whose primary key is idColumn.
func NewSQLRepository[T any, ID comparable](
	db Database,
	tableName string,
	idColumn string,
	mapper EntityMapper[T, ID],
	opts ...RepositoryOption,
) *SQLRepository[T, ID] {
	o := repositoryOptions{versionColumn: "version"}
	for _, opt := range opts {
		opt(&o)
	}
	return &SQLRepository[T, ID]{
		db:            db,
		filters:       make(map[string]query.Source),
		tableName:     tableName,
		idColumn:      idColumn,
		versionColumn: o.versionColumn,
		mapper:        mapper,
	}
}

// Configure replaces the database the repository talks to.
func (r *SQLRepository[T, ID]) Configure(db Database) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.db = db
}

// Database returns the database currently in use.
func (r *SQLRepository[T, ID]) Database() Database {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.db
}

// TableName returns the table the repository reads and writes.
func (r *SQLRepository[T, ID]) TableName() string {
	return r.tableName
}

// IDColumn returns the primary key column.
func (r *SQLRepository[T, ID]) IDColumn() string {
	return r.idColumn
}

// EntityID returns the primary key of entity.
func (r *SQLRepository[T, ID]) EntityID(entity *T) ID {
	return r.mapper.GetID(entity)
}

// AssignID sets the primary key of entity.
func (r *SQLRepository[T, ID]) AssignID(entity *T, id ID) {
	r.mapper.SetID(entity, id)
}

func (r *SQLRepository[T, ID]) builder(db Database) *query.SQLBuilder {
	return query.NewSQLBuilder(db.Dialect())
}

func (r *SQLRepository[T, ID]) placeholders(d query.Dialect, from, count int) []string {
	out := make([]string, count)
	for i := range out {
		out[i] = d.Placeholder(from + i)
	}
	return out
}

// Create inserts a new entity. When the entity's id is the zero value the id
// column is left to the database and the generated key is written back.
func (r *SQLRepository[T, ID]) Create(ctx context.Context, entity *T) error {
	if entity == nil {
		return ErrNilEntity
	}

	columns, values, err := r.mapper.ToRow(entity)
	if err != nil {
		return fmt.Errorf("failed to map entity to row: %w", err)
	}

	var zero ID
	identity := r.mapper.GetID(entity) == zero
	if identity {
		columns, values = withoutColumn(columns, values, r.idColumn)
	}

	db := r.Database()
	dialect := db.Dialect()
	before, after := "", ""
	if identity {
		before, after = dialect.InsertReturning(r.idColumn)
	}

	parts := []string{
		"insert into", r.tableName,
		"(" + strings.Join(columns, ", ") + ")",
		before,
		"values (" + strings.Join(r.placeholders(dialect, 1, len(columns)), ", ") + ")",
		after,
	}
	stmt := joinNonEmpty(parts)

	if !identity {
		if _, err := db.ExecuteNonQuery(ctx, stmt, values...); err != nil {
			return fmt.Errorf("failed to create entity: %w", err)
		}
		return nil
	}

	var generated any
	if before == "" && after == "" {
		generated, err = db.ExecuteInsert(ctx, stmt, values...)
	} else {
		generated, err = db.ExecuteScalar(ctx, stmt, values...)
	}
	if err != nil {
		return fmt.Errorf("failed to create entity: %w", err)
	}

	id, err := convertTo[ID](generated)
	if err != nil {
		return fmt.Errorf("failed to read generated id: %w", err)
	}
	r.mapper.SetID(entity, id)
	return nil
}

// FindByID retrieves an entity by its ID. It returns sql.ErrNoRows when absent.
func (r *SQLRepository[T, ID]) FindByID(ctx context.Context, id ID) (*T, error) {
	db := r.Database()
	stmt := fmt.Sprintf("select * from %s where %s = %s", r.tableName, r.idColumn, db.Dialect().Placeholder(1))

	entities, err := r.read(ctx, db, stmt, id)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, sql.ErrNoRows
	}
	return &entities[0], nil
}

// GetAll returns every row of the table.
func (r *SQLRepository[T, ID]) GetAll(ctx context.Context) ([]T, error) {
	return r.Find(ctx, nil)
}

// Find returns the entities matching src. A nil src matches every row.
func (r *SQLRepository[T, ID]) Find(ctx context.Context, src query.Source) ([]T, error) {
	d, err := sourceData(src)
	if err != nil {
		return nil, err
	}
	return r.findData(ctx, d)
}

func (r *SQLRepository[T, ID]) findData(ctx context.Context, d query.Data) ([]T, error) {
	db := r.Database()
	stmt, err := r.builder(db).Build(d, r.tableName)
	if err != nil {
		return nil, err
	}
	return r.read(ctx, db, stmt)
}

// FindOne returns the first entity matching src, or sql.ErrNoRows.
func (r *SQLRepository[T, ID]) FindOne(ctx context.Context, src query.Source) (*T, error) {
	d, err := sourceData(src)
	if err != nil {
		return nil, err
	}
	d.RecordLimit = 1
	d.IsRecordLimitEnabled = true

	entities, err := r.findData(ctx, d)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, sql.ErrNoRows
	}
	return &entities[0], nil
}

// FindPaged returns page (1-based) of the entities matching src together with
// the total count. A non-positive pageSize returns every match on a single page.
func (r *SQLRepository[T, ID]) FindPaged(ctx context.Context, src query.Source, page, pageSize int) (*PagedList[T], error) {
	d, err := sourceData(src)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}

	total, err := r.countData(ctx, d)
	if err != nil {
		return nil, err
	}

	if pageSize > 0 {
		d.RecordLimit = pageSize
		d.IsRecordLimitEnabled = true
		d.Offset = (page - 1) * pageSize
	}
	items, err := r.findData(ctx, d)
	if err != nil {
		return nil, err
	}
	return NewPagedList(items, page, pageSize, total), nil
}

// FindAll retrieves entities matching the query options with support for filtering, sorting, and pagination.
// Filters are combined with AND logic. Returns an empty slice if no entities match.
func (r *SQLRepository[T, ID]) FindAll(ctx context.Context, opts QueryOptions) ([]T, error) {
	q, err := opts.Query()
	if err != nil {
		return nil, err
	}
	return r.Find(ctx, q)
}

// Count returns the number of entities matching the filter
func (r *SQLRepository[T, ID]) Count(ctx context.Context, filter Filter) (int64, error) {
	q, err := filter.Query()
	if err != nil {
		return 0, err
	}
	return r.CountWhere(ctx, q)
}

// Update updates an existing entity.
// Entities implementing Versioned are written with optimistic locking: the stored
// version must equal the entity's version, and the entity leaves with version+1.
// Returns sql.ErrNoRows if the entity doesn't exist.
func (r *SQLRepository[T, ID]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return ErrNilEntity
	}

	if versioned, ok := any(entity).(Versioned); ok {
		expected := versioned.GetVersion()
		versioned.SetVersion(expected + 1)
		if err := r.CompareAndSwap(ctx, entity, expected); err != nil {
			versioned.SetVersion(expected)
			return err
		}
		return nil
	}

	db := r.Database()
	stmt, values, err := r.updateStatement(db.Dialect(), entity, false)
	if err != nil {
		return err
	}

	affected, err := db.ExecuteNonQuery(ctx, stmt, values...)
	if err != nil {
		return fmt.Errorf("failed to update entity: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CompareAndSwap writes entity as it is, but only if the stored version still
// equals expectedVersion. The version carried by the entity is written unchanged.
// A stale expectation returns *OptimisticLockError; a missing row returns sql.ErrNoRows.
func (r *SQLRepository[T, ID]) CompareAndSwap(ctx context.Context, entity *T, expectedVersion int64) error {
	if entity == nil {
		return ErrNilEntity
	}
	if _, ok := any(entity).(Versioned); !ok {
		return ErrNotVersioned
	}

	db := r.Database()
	stmt, values, err := r.updateStatement(db.Dialect(), entity, true)
	if err != nil {
		return err
	}
	values = append(values, expectedVersion)

	affected, err := db.ExecuteNonQuery(ctx, stmt, values...)
	if err != nil {
		return fmt.Errorf("failed to update entity: %w", err)
	}
	if affected > 0 {
		return nil
	}

	id := r.mapper.GetID(entity)
	checkStmt := fmt.Sprintf("select %s from %s where %s = %s",
		r.versionColumn, r.tableName, r.idColumn, db.Dialect().Placeholder(1))
	actual, err := db.ExecuteScalar(ctx, checkStmt, id)
	if err != nil {
		return fmt.Errorf("failed to check entity version: %w", err)
	}
	if actual == nil {
		return sql.ErrNoRows
	}
	actualVersion, err := convertTo[int64](actual)
	if err != nil {
		return fmt.Errorf("failed to check entity version: %w", err)
	}
	return NewOptimisticLockError(fmt.Sprintf("%v", id), expectedVersion, actualVersion)
}

// updateStatement renders "update t set c = p, ... where id = p [and version = p]".
// The id column is never part of the set list. The returned values end with the id;
// the caller appends the expected version when versionCheck is set.
func (r *SQLRepository[T, ID]) updateStatement(dialect query.Dialect, entity *T, versionCheck bool) (string, []any, error) {
	columns, values, err := r.mapper.ToRow(entity)
	if err != nil {
		return "", nil, fmt.Errorf("failed to map entity to row: %w", err)
	}
	columns, values = withoutColumn(columns, values, r.idColumn)

	setClauses := make([]string, len(columns))
	for i, col := range columns {
		setClauses[i] = fmt.Sprintf("%s = %s", col, dialect.Placeholder(i+1))
	}

	stmt := fmt.Sprintf("update %s set %s where %s = %s",
		r.tableName, strings.Join(setClauses, ", "), r.idColumn, dialect.Placeholder(len(values)+1))
	if versionCheck {
		stmt += fmt.Sprintf(" and %s = %s", r.versionColumn, dialect.Placeholder(len(values)+2))
	}

	values = append(values, r.mapper.GetID(entity))
	return stmt, values, nil
}

// Delete removes an entity by its ID. It returns sql.ErrNoRows when nothing was deleted.
func (r *SQLRepository[T, ID]) Delete(ctx context.Context, id ID) error {
	db := r.Database()
	stmt := fmt.Sprintf("delete from %s where %s = %s", r.tableName, r.idColumn, db.Dialect().Placeholder(1))

	affected, err := db.ExecuteNonQuery(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteWhere removes every row matching src and returns how many were deleted.
// Criteria without conditions are refused with ErrMissingCriteria.
func (r *SQLRepository[T, ID]) DeleteWhere(ctx context.Context, src query.Source) (int64, error) {
	d, err := sourceData(src)
	if err != nil {
		return 0, err
	}
	if !d.HasConditions() {
		return 0, ErrMissingCriteria
	}

	db := r.Database()
	stmt, err := r.builder(db).BuildDelete(d, r.tableName)
	if err != nil {
		return 0, err
	}
	affected, err := db.ExecuteNonQuery(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("failed to delete entities: %w", err)
	}
	return affected, nil
}

// ToTable returns the rows matching src without entity mapping.
func (r *SQLRepository[T, ID]) ToTable(ctx context.Context, src query.Source) (*Table, error) {
	d, err := sourceData(src)
	if err != nil {
		return nil, err
	}
	db := r.Database()
	stmt, err := r.builder(db).Build(d, r.tableName)
	if err != nil {
		return nil, err
	}
	return db.ExecuteTable(ctx, stmt)
}

// ToTableBySQL runs a caller-supplied statement and returns its rows.
func (r *SQLRepository[T, ID]) ToTableBySQL(ctx context.Context, sqlText string, args ...any) (*Table, error) {
	return r.Database().ExecuteTable(ctx, sqlText, args...)
}

func (r *SQLRepository[T, ID]) read(ctx context.Context, db Database, stmt string, args ...any) ([]T, error) {
	entities := []T{}
	err := db.ExecuteReader(ctx, func(rows *sql.Rows) error {
		entity, err := r.mapper.FromRow(rows)
		if err != nil {
			return fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, *entity)
		return nil
	}, stmt, args...)
	if err != nil {
		return nil, err
	}
	return entities, nil
}

func sourceData(src query.Source) (query.Data, error) {
	if src == nil {
		return query.Data{}, nil
	}
	return src.Data()
}

func withoutColumn(columns []string, values []any, column string) ([]string, []any) {
	outCols := make([]string, 0, len(columns))
	outVals := make([]any, 0, len(values))
	for i, c := range columns {
		if strings.EqualFold(c, column) {
			continue
		}
		outCols = append(outCols, c)
		outVals = append(outVals, values[i])
	}
	return outCols, outVals
}

func joinNonEmpty(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
