package postgres

import (
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/nimburion/querykit/pkg/observability/logger"
	"github.com/nimburion/querykit/pkg/query"
	"github.com/nimburion/querykit/pkg/store/sqlstore"
)

// PostgreSQLAdapter provides PostgreSQL database connectivity with connection pooling
type PostgreSQLAdapter struct {
	*sqlstore.Adapter
}

// Config holds PostgreSQL connection configuration
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	QueryTimeout    time.Duration
}

// NewPostgreSQLAdapter creates a new PostgreSQL adapter with connection pooling
func NewPostgreSQLAdapter(cfg Config, log logger.Logger) (*PostgreSQLAdapter, error) {
	adapter, err := sqlstore.Open(sqlstore.Config{
		Driver:          "postgres",
		Name:            "PostgreSQL",
		URL:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		QueryTimeout:    cfg.QueryTimeout,
	}, log)
	if err != nil {
		return nil, err
	}
	return &PostgreSQLAdapter{Adapter: adapter}, nil
}

// Dialect returns the SQL dialect spoken by PostgreSQL.
func (a *PostgreSQLAdapter) Dialect() query.Dialect {
	return query.Postgres
}
