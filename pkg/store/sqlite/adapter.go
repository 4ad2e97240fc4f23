// Package sqlite provides an embedded SQLite store adapter backed by the pure Go modernc driver.
package sqlite

import (
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nimburion/querykit/pkg/observability/logger"
	"github.com/nimburion/querykit/pkg/query"
	"github.com/nimburion/querykit/pkg/store/sqlstore"
)

// SQLiteAdapter provides access to a SQLite database file.
// SQLite serializes writers, so the pool is fixed at one connection; this also
// keeps ":memory:" databases alive for the lifetime of the adapter.
type SQLiteAdapter struct {
	*sqlstore.Adapter
}

// Config holds SQLite configuration.
type Config struct {
	// URL is a file path or DSN such as "file:app.db?_pragma=busy_timeout(5000)" or ":memory:".
	URL          string
	QueryTimeout time.Duration
}

// NewSQLiteAdapter opens the database and verifies it with a ping.
func NewSQLiteAdapter(cfg Config, log logger.Logger) (*SQLiteAdapter, error) {
	adapter, err := sqlstore.Open(sqlstore.Config{
		Driver:       "sqlite",
		Name:         "SQLite",
		URL:          cfg.URL,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		QueryTimeout: cfg.QueryTimeout,
	}, log)
	if err != nil {
		return nil, err
	}
	return &SQLiteAdapter{Adapter: adapter}, nil
}

// Dialect returns the SQL dialect spoken by SQLite.
func (a *SQLiteAdapter) Dialect() query.Dialect {
	return query.SQLite
}
