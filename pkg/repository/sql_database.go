package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nimburion/querykit/pkg/observability/logger"
	"github.com/nimburion/querykit/pkg/observability/metrics"
	"github.com/nimburion/querykit/pkg/query"
)

// SQLDatabase implements Database on top of an SQLExecutor (*sql.DB, *sql.Tx or a store adapter).
// Every statement is logged at debug level and recorded in the statement metrics.
type SQLDatabase struct {
	executor SQLExecutor
	dialect  query.Dialect
	logger   logger.Logger
}

// DatabaseOption configures an SQLDatabase.
type DatabaseOption func(*SQLDatabase)

// WithLogger sets the logger used for statement logging.
func WithLogger(log logger.Logger) DatabaseOption {
	return func(d *SQLDatabase) {
		if log != nil {
			d.logger = log
		}
	}
}

// NewSQLDatabase creates a Database speaking dialect over executor.
// A nil dialect selects query.SQLServer.
func NewSQLDatabase(executor SQLExecutor, dialect query.Dialect, opts ...DatabaseOption) *SQLDatabase {
	if dialect == nil {
		dialect = query.SQLServer
	}
	d := &SQLDatabase{
		executor: executor,
		dialect:  dialect,
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dialect returns the SQL dialect of the database.
func (d *SQLDatabase) Dialect() query.Dialect {
	return d.dialect
}

// ExecuteScalar returns the first column of the first row, or nil for an empty result.
func (d *SQLDatabase) ExecuteScalar(ctx context.Context, sqlText string, args ...any) (value any, err error) {
	defer d.observe(ctx, sqlText, time.Now(), &err)

	err = d.executor.QueryRowContext(ctx, sqlText, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to execute scalar: %w", err)
	}
	return normalizeScanned(value), nil
}

// ExecuteNonQuery runs a statement and returns the affected row count.
func (d *SQLDatabase) ExecuteNonQuery(ctx context.Context, sqlText string, args ...any) (affected int64, err error) {
	defer d.observe(ctx, sqlText, time.Now(), &err)

	result, err := d.executor.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute statement: %w", err)
	}
	affected, err = result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

// ExecuteInsert runs an insert and returns the driver's last insert id.
func (d *SQLDatabase) ExecuteInsert(ctx context.Context, sqlText string, args ...any) (id int64, err error) {
	defer d.observe(ctx, sqlText, time.Now(), &err)

	result, err := d.executor.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute insert: %w", err)
	}
	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// ExecuteTable loads the complete result set.
func (d *SQLDatabase) ExecuteTable(ctx context.Context, sqlText string, args ...any) (table *Table, err error) {
	defer d.observe(ctx, sqlText, time.Now(), &err)

	rows, err := d.executor.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query table: %w", err)
	}
	defer rows.Close()

	return scanTable(rows)
}

// ExecuteReader streams the result set through scan.
func (d *SQLDatabase) ExecuteReader(ctx context.Context, scan func(*sql.Rows) error, sqlText string, args ...any) (err error) {
	defer d.observe(ctx, sqlText, time.Now(), &err)

	rows, err := d.executor.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}
	return nil
}

// BuildInParam creates a named input parameter.
func (d *SQLDatabase) BuildInParam(name string, t DbType, value any) (sql.NamedArg, error) {
	return InParam(name, t, value)
}

// BuildOutParam creates a named output parameter.
func (d *SQLDatabase) BuildOutParam(name string, t DbType) sql.NamedArg {
	return OutParam(name, t)
}

func (d *SQLDatabase) observe(ctx context.Context, sqlText string, start time.Time, err *error) {
	elapsed := time.Since(start)
	kind := statementKind(sqlText)
	metrics.RecordQuery(d.dialect.Name(), kind, *err, elapsed)

	log := d.logger.WithContext(ctx)
	if *err != nil {
		log.Debug("statement failed", "dialect", d.dialect.Name(), "sql", sqlText, "duration", elapsed, "error", *err)
		return
	}
	log.Debug("statement executed", "dialect", d.dialect.Name(), "operation", kind, "sql", sqlText, "duration", elapsed)
}
