package store

import (
	"context"
	"database/sql"

	"github.com/nimburion/querykit/pkg/query"
)

// Adapter is the minimal lifecycle and health contract for storage adapters.
type Adapter interface {
	HealthCheck(ctx context.Context) error
	Close() error
}

// SQLAdapter is a relational store adapter. It executes statements, binds
// transactions to contexts and reports the dialect it speaks, so it can back
// both repository.SQLDatabase and repository.TransactionManager.
type SQLAdapter interface {
	Adapter
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Dialect() query.Dialect
	DB() *sql.DB
}
