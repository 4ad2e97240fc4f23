package store

import (
	"fmt"
	"strings"

	"github.com/nimburion/querykit/pkg/config"
	"github.com/nimburion/querykit/pkg/observability/logger"
	"github.com/nimburion/querykit/pkg/query"
	"github.com/nimburion/querykit/pkg/repository"
	"github.com/nimburion/querykit/pkg/store/mysql"
	"github.com/nimburion/querykit/pkg/store/postgres"
	"github.com/nimburion/querykit/pkg/store/sqlite"
	"github.com/nimburion/querykit/pkg/store/sqlserver"
)

// NewSQLAdapter selects and opens the relational store adapter named by cfg.Type.
func NewSQLAdapter(cfg config.DatabaseConfig, log logger.Logger) (SQLAdapter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case config.DatabaseTypeSQLServer:
		return sqlserver.NewSQLServerAdapter(sqlserver.Config{
			URL:             cfg.URL,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
			QueryTimeout:    cfg.QueryTimeout,
		}, log)
	case config.DatabaseTypePostgres:
		return postgres.NewPostgreSQLAdapter(postgres.Config{
			URL:             cfg.URL,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
			QueryTimeout:    cfg.QueryTimeout,
		}, log)
	case config.DatabaseTypeMySQL:
		return mysql.NewMySQLAdapter(mysql.Config{
			URL:             cfg.URL,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
			QueryTimeout:    cfg.QueryTimeout,
		}, log)
	case config.DatabaseTypeSQLite:
		return sqlite.NewSQLiteAdapter(sqlite.Config{
			URL:          cfg.URL,
			QueryTimeout: cfg.QueryTimeout,
		}, log)
	default:
		return nil, fmt.Errorf("unsupported database.type %q (supported: sqlserver, postgres, mysql, sqlite)", cfg.Type)
	}
}

// Dialect returns the SQL dialect for cfg: database.dialect when set, otherwise the one of database.type.
func Dialect(cfg config.DatabaseConfig) (query.Dialect, error) {
	if name := strings.TrimSpace(cfg.Dialect); name != "" {
		return query.DialectFor(name)
	}
	return query.DialectFor(cfg.Type)
}

// NewDatabase opens the adapter named by cfg and wraps it as a traced repository.Database.
// The returned adapter owns the connection pool and must be closed by the caller.
func NewDatabase(cfg config.DatabaseConfig, log logger.Logger) (repository.Database, SQLAdapter, error) {
	adapter, err := NewSQLAdapter(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	dialect, err := Dialect(cfg)
	if err != nil {
		_ = adapter.Close()
		return nil, nil, err
	}
	db := repository.NewSQLDatabase(adapter, dialect, repository.WithLogger(log))
	return repository.NewTracedDatabase(db, ""), adapter, nil
}
