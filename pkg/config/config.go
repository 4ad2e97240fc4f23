package config

import "time"

// Database type constants
const (
	// DatabaseTypeSQLServer represents Microsoft SQL Server
	DatabaseTypeSQLServer = "sqlserver"
	// DatabaseTypePostgres represents PostgreSQL database
	DatabaseTypePostgres = "postgres"
	// DatabaseTypeMySQL represents MySQL database
	DatabaseTypeMySQL = "mysql"
	// DatabaseTypeSQLite represents an embedded SQLite database
	DatabaseTypeSQLite = "sqlite"
)

// Config is the root configuration structure
type Config struct {
	Service       ServiceConfig
	Database      DatabaseConfig
	Repository    RepositoryConfig
	Observability ObservabilityConfig
}

// ServiceConfig configures service identity metadata.
type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig configures the database connection
type DatabaseConfig struct {
	Type string `mapstructure:"type"` // sqlserver, postgres, mysql, sqlite
	URL  string `mapstructure:"url"`
	// Dialect overrides the SQL dialect derived from Type.
	Dialect         string        `mapstructure:"dialect"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// RepositoryConfig configures repository behavior
type RepositoryConfig struct {
	StrictVersioning bool   `mapstructure:"strict_versioning"`
	DefaultPageSize  int    `mapstructure:"default_page_size"`
	FiltersFile      string `mapstructure:"filters_file"`
	VersionColumn    string `mapstructure:"version_column"`
	VersionRefColumn string `mapstructure:"version_ref_column"`
	MigrationsDir    string `mapstructure:"migrations_dir"`
}

// ObservabilityConfig configures logging, metrics, and tracing
type ObservabilityConfig struct {
	LogLevel          string  `mapstructure:"log_level"`
	LogFormat         string  `mapstructure:"log_format"` // json, text
	ServiceName       string  `mapstructure:"service_name"`
	TracingEnabled    bool    `mapstructure:"tracing_enabled"`
	TracingSampleRate float64 `mapstructure:"tracing_sample_rate"`
	TracingEndpoint   string  `mapstructure:"tracing_endpoint"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "querykit",
			Environment: "production",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 2 * time.Minute,
			QueryTimeout:    10 * time.Second,
			ConnectTimeout:  5 * time.Second,
		},
		Repository: RepositoryConfig{
			DefaultPageSize:  20,
			VersionColumn:    "version",
			VersionRefColumn: "version_ref_id",
			MigrationsDir:    "migrations",
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogFormat:         "json",
			ServiceName:       "querykit",
			TracingSampleRate: 0.1,
		},
	}
}
