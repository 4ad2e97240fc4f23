// Package sqlstore holds the database/sql plumbing shared by the relational store adapters:
// pool configuration, startup ping, health checks and context-bound transactions.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nimburion/querykit/pkg/observability/logger"
	"github.com/nimburion/querykit/pkg/observability/tracing"
)

// Config holds the connection settings of a relational store.
type Config struct {
	// Driver is the database/sql driver name.
	Driver string
	// Name is the human readable system name used in logs, e.g. "PostgreSQL".
	Name string

	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	QueryTimeout    time.Duration
	PingTimeout     time.Duration
}

// Adapter wraps a *sql.DB. It satisfies repository.SQLExecutor and
// repository.TransactionManager: statements issued with a context returned by
// WithTransaction run inside that transaction.
type Adapter struct {
	db     *sql.DB
	logger logger.Logger
	config Config
}

// Open opens and pings the database described by cfg.
func Open(cfg Config, log logger.Logger) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Driver
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 5 * time.Second
	}

	db, err := sql.Open(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Name, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Name, err)
	}

	log.Info(cfg.Name+" connection established",
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
		"conn_max_lifetime", cfg.ConnMaxLifetime,
		"conn_max_idle_time", cfg.ConnMaxIdleTime,
	)

	return New(db, cfg, log), nil
}

// New wraps an already opened *sql.DB.
func New(db *sql.DB, cfg Config, log logger.Logger) *Adapter {
	if log == nil {
		log = logger.NewNop()
	}
	return &Adapter{
		db:     db,
		logger: log,
		config: cfg,
	}
}

// DB returns the underlying *sql.DB for direct access when needed
func (a *Adapter) DB() *sql.DB {
	return a.db
}

// Name returns the system name used in logs.
func (a *Adapter) Name() string {
	return a.config.Name
}

// Ping verifies the database connection is alive
func (a *Adapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// HealthCheck verifies the database connection is healthy with a timeout
func (a *Adapter) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := a.db.PingContext(ctx); err != nil {
		a.logger.Error(a.config.Name+" health check failed", "error", err)
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// Close gracefully closes the database connection
func (a *Adapter) Close() error {
	a.logger.Info("closing " + a.config.Name + " connection")

	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close "+a.config.Name+" connection", "error", err)
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	a.logger.Info(a.config.Name + " connection closed successfully")
	return nil
}

// WithTransaction executes the given function within a database transaction
// If the function returns an error, the transaction is rolled back
// Otherwise, the transaction is committed
// A context that already carries a transaction is reused, so nested calls join the outer transaction.
func (a *Adapter) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := GetTx(ctx); ok {
		return fn(ctx)
	}

	ctx, span := tracing.StartTransactionSpan(ctx, a.config.Driver)
	defer func() { tracing.End(span, err) }()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				a.logger.Error("failed to rollback transaction after panic",
					"panic", p,
					"rollback_error", rbErr,
				)
			}
			panic(p)
		}
	}()

	txCtx := context.WithValue(ctx, txContextKey, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			a.logger.Error("failed to rollback transaction",
				"original_error", err,
				"rollback_error", rbErr,
			)
			return fmt.Errorf("failed to rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

type contextKey string

const txContextKey contextKey = "sqlstore_tx"

// GetTx extracts a transaction from the context, if present
func GetTx(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txContextKey).(*sql.Tx)
	return tx, ok
}

// ExecContext executes a statement with the transaction from context if available.
// The configured query timeout applies when ctx has no deadline.
func (a *Adapter) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	queryCtx, cancel := a.withQueryTimeout(ctx)
	defer cancel()
	if tx, ok := GetTx(ctx); ok {
		return tx.ExecContext(queryCtx, query, args...)
	}
	return a.db.ExecContext(queryCtx, query, args...)
}

// QueryContext executes a query with the transaction from context if available.
// The query timeout is not applied: rows outlive this call, so cancellation is left to ctx.
func (a *Adapter) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if tx, ok := GetTx(ctx); ok {
		return tx.QueryContext(ctx, query, args...)
	}
	return a.db.QueryContext(ctx, query, args...)
}

// QueryRowContext executes a query that returns a single row with the transaction from context if available.
func (a *Adapter) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	if tx, ok := GetTx(ctx); ok {
		return tx.QueryRowContext(ctx, query, args...)
	}
	return a.db.QueryRowContext(ctx, query, args...)
}

func (a *Adapter) withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.config.QueryTimeout)
}
