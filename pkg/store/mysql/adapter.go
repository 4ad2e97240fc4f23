package mysql

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/nimburion/querykit/pkg/observability/logger"
	"github.com/nimburion/querykit/pkg/query"
	"github.com/nimburion/querykit/pkg/store/sqlstore"
)

// MySQLAdapter provides MySQL connectivity with pooled connections.
type MySQLAdapter struct {
	*sqlstore.Adapter
}

// Config holds MySQL configuration.
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	QueryTimeout    time.Duration
}

// NewMySQLAdapter opens a MySQL pool and verifies it with a ping.
// URL is a go-sql-driver DSN such as "user:pass@tcp(host:3306)/db?parseTime=true".
// The DSN is opened with clientFoundRows set (see DSN).
func NewMySQLAdapter(cfg Config, log logger.Logger) (*MySQLAdapter, error) {
	url := cfg.URL
	if url != "" {
		var err error
		if url, err = DSN(url); err != nil {
			return nil, err
		}
	}
	adapter, err := sqlstore.Open(sqlstore.Config{
		Driver:          "mysql",
		Name:            "MySQL",
		URL:             url,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		QueryTimeout:    cfg.QueryTimeout,
	}, log)
	if err != nil {
		return nil, err
	}
	return &MySQLAdapter{Adapter: adapter}, nil
}

// Dialect returns the SQL dialect spoken by MySQL.
func (a *MySQLAdapter) Dialect() query.Dialect {
	return query.MySQL
}

// DSN enables clientFoundRows on dsn, so an update that matches a row but changes
// no value reports one affected row instead of zero. Repositories read zero
// affected rows as a missing entity.
func DSN(dsn string) (string, error) {
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	parsed.ClientFoundRows = true
	return parsed.FormatDSN(), nil
}
