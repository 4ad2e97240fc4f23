package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Loader defines the interface for loading configuration
type Loader interface {
	Load() (*Config, error)
	Validate(*Config) error
}

// ViperLoader implements Loader using Viper for configuration management
type ViperLoader struct {
	configFile         string
	envPrefix          string
	serviceNameDefault string
}

// NewViperLoader creates a new ViperLoader
// configFile: path to configuration file (optional, can be empty)
// envPrefix: prefix for environment variables (e.g., "APP")
func NewViperLoader(configFile, envPrefix string) *ViperLoader {
	return &ViperLoader{
		configFile: configFile,
		envPrefix:  envPrefix,
	}
}

// WithServiceNameDefault sets the default service.name used when no config/env override is provided.
func (l *ViperLoader) WithServiceNameDefault(serviceName string) *ViperLoader {
	if l == nil {
		return l
	}
	l.serviceNameDefault = strings.TrimSpace(serviceName)
	return l
}

// ConfigFile returns the configuration file path, or empty string if none.
func (l *ViperLoader) ConfigFile() string {
	return l.configFile
}

// Load loads configuration with precedence: ENV > file > defaults
func (l *ViperLoader) Load() (*Config, error) {
	v := viper.New()
	l.setDefaults(v, DefaultConfig())

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configFile, err)
		}
	}

	v.SetEnvPrefix(l.envPrefix)
	l.bindLegacyEnvVars()
	l.bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// bindEnvVars explicitly binds environment variables for nested structs
func (l *ViperLoader) bindEnvVars(v *viper.Viper) {
	v.BindEnv("service.name", l.prefixedEnv("SERVICE_NAME"))
	v.BindEnv("service.environment", l.prefixedEnv("SERVICE_ENVIRONMENT"), l.prefixedEnv("ENVIRONMENT"))

	// Database
	v.BindEnv("database.type", l.prefixedEnv("DB_TYPE"))
	v.BindEnv("database.url", l.prefixedEnv("DB_URL"))
	v.BindEnv("database.dialect", l.prefixedEnv("DB_DIALECT"))
	v.BindEnv("database.max_open_conns", l.prefixedEnv("DB_MAX_OPEN_CONNS"))
	v.BindEnv("database.max_idle_conns", l.prefixedEnv("DB_MAX_IDLE_CONNS"))
	v.BindEnv("database.conn_max_lifetime", l.prefixedEnv("DB_CONN_MAX_LIFETIME"))
	v.BindEnv("database.conn_max_idle_time", l.prefixedEnv("DB_CONN_MAX_IDLE_TIME"))
	v.BindEnv("database.query_timeout", l.prefixedEnv("DB_QUERY_TIMEOUT"))
	v.BindEnv("database.connect_timeout", l.prefixedEnv("DB_CONNECT_TIMEOUT"))

	// Repository
	v.BindEnv("repository.strict_versioning", l.prefixedEnv("REPOSITORY_STRICT_VERSIONING"))
	v.BindEnv("repository.default_page_size", l.prefixedEnv("REPOSITORY_DEFAULT_PAGE_SIZE"))
	v.BindEnv("repository.filters_file", l.prefixedEnv("REPOSITORY_FILTERS_FILE"))
	v.BindEnv("repository.version_column", l.prefixedEnv("REPOSITORY_VERSION_COLUMN"))
	v.BindEnv("repository.version_ref_column", l.prefixedEnv("REPOSITORY_VERSION_REF_COLUMN"))
	v.BindEnv("repository.migrations_dir", l.prefixedEnv("REPOSITORY_MIGRATIONS_DIR"))

	// Observability
	v.BindEnv("observability.log_level", l.prefixedEnv("LOG_LEVEL"))
	v.BindEnv("observability.log_format", l.prefixedEnv("LOG_FORMAT"))
	v.BindEnv("observability.service_name", l.prefixedEnv("OBSERVABILITY_SERVICE_NAME"))
	v.BindEnv("observability.tracing_enabled", l.prefixedEnv("TRACING_ENABLED"))
	v.BindEnv("observability.tracing_sample_rate", l.prefixedEnv("TRACING_SAMPLE_RATE"))
	v.BindEnv("observability.tracing_endpoint", l.prefixedEnv("TRACING_ENDPOINT"))
}

// bindLegacyEnvVars maps legacy env vars to current abbreviated names when abbreviated vars are absent.
func (l *ViperLoader) bindLegacyEnvVars() {
	aliases := []struct {
		abbrevSuffix string
		legacySuffix string
	}{
		{"DB_TYPE", "DATABASE_TYPE"},
		{"DB_URL", "DATABASE_URL"},
		{"DB_DIALECT", "DATABASE_DIALECT"},
		{"DB_MAX_OPEN_CONNS", "DATABASE_MAX_OPEN_CONNS"},
		{"DB_MAX_IDLE_CONNS", "DATABASE_MAX_IDLE_CONNS"},
		{"DB_CONN_MAX_LIFETIME", "DATABASE_CONN_MAX_LIFETIME"},
		{"DB_QUERY_TIMEOUT", "DATABASE_QUERY_TIMEOUT"},
		{"DB_CONNECT_TIMEOUT", "DATABASE_CONNECT_TIMEOUT"},
	}

	for _, alias := range aliases {
		abbrevEnv := l.prefixedEnv(alias.abbrevSuffix)
		if _, hasAbbrev := os.LookupEnv(abbrevEnv); hasAbbrev {
			continue
		}
		if legacyValue, hasLegacy := os.LookupEnv(l.prefixedEnv(alias.legacySuffix)); hasLegacy {
			_ = os.Setenv(abbrevEnv, legacyValue)
		}
	}
}

func (l *ViperLoader) prefixedEnv(suffix string) string {
	prefix := strings.TrimSpace(l.envPrefix)
	if prefix == "" {
		prefix = "APP"
	}
	return fmt.Sprintf("%s_%s", strings.ToUpper(prefix), suffix)
}

func (l *ViperLoader) defaultServiceName(fallback string) string {
	if l != nil {
		if configured := strings.TrimSpace(l.serviceNameDefault); configured != "" {
			return configured
		}
	}
	return strings.TrimSpace(fallback)
}

// setDefaults sets default values in Viper from the default config
func (l *ViperLoader) setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("service.name", l.defaultServiceName(cfg.Service.Name))
	v.SetDefault("service.environment", cfg.Service.Environment)

	v.SetDefault("database.type", cfg.Database.Type)
	v.SetDefault("database.url", cfg.Database.URL)
	v.SetDefault("database.dialect", cfg.Database.Dialect)
	v.SetDefault("database.max_open_conns", cfg.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", cfg.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", cfg.Database.ConnMaxLifetime)
	v.SetDefault("database.conn_max_idle_time", cfg.Database.ConnMaxIdleTime)
	v.SetDefault("database.query_timeout", cfg.Database.QueryTimeout)
	v.SetDefault("database.connect_timeout", cfg.Database.ConnectTimeout)

	v.SetDefault("repository.strict_versioning", cfg.Repository.StrictVersioning)
	v.SetDefault("repository.default_page_size", cfg.Repository.DefaultPageSize)
	v.SetDefault("repository.filters_file", cfg.Repository.FiltersFile)
	v.SetDefault("repository.version_column", cfg.Repository.VersionColumn)
	v.SetDefault("repository.version_ref_column", cfg.Repository.VersionRefColumn)
	v.SetDefault("repository.migrations_dir", cfg.Repository.MigrationsDir)

	v.SetDefault("observability.log_level", cfg.Observability.LogLevel)
	v.SetDefault("observability.log_format", cfg.Observability.LogFormat)
	v.SetDefault("observability.service_name", l.defaultServiceName(cfg.Observability.ServiceName))
	v.SetDefault("observability.tracing_enabled", cfg.Observability.TracingEnabled)
	v.SetDefault("observability.tracing_sample_rate", cfg.Observability.TracingSampleRate)
	v.SetDefault("observability.tracing_endpoint", cfg.Observability.TracingEndpoint)
}

// Validate validates the configuration and returns every problem found.
func (l *ViperLoader) Validate(cfg *Config) error {
	var errs []error

	cfg.Database.Type = strings.ToLower(strings.TrimSpace(cfg.Database.Type))
	cfg.Database.Dialect = strings.ToLower(strings.TrimSpace(cfg.Database.Dialect))

	validTypes := []string{DatabaseTypeSQLServer, DatabaseTypePostgres, DatabaseTypeMySQL, DatabaseTypeSQLite}
	if cfg.Database.Type != "" {
		if !contains(validTypes, cfg.Database.Type) {
			errs = append(errs, fmt.Errorf("invalid database.type: %s (must be one of: %v)", cfg.Database.Type, validTypes))
		}
		if cfg.Database.URL == "" {
			errs = append(errs, errors.New("database.url is required when database.type is specified"))
		}
	}
	if cfg.Database.Dialect != "" && !contains(validTypes, cfg.Database.Dialect) {
		errs = append(errs, fmt.Errorf("invalid database.dialect: %s (must be one of: %v)", cfg.Database.Dialect, validTypes))
	}
	if cfg.Database.MaxOpenConns < 0 {
		errs = append(errs, errors.New("database.max_open_conns must not be negative"))
	}
	if cfg.Database.MaxIdleConns < 0 {
		errs = append(errs, errors.New("database.max_idle_conns must not be negative"))
	}
	if cfg.Database.MaxOpenConns > 0 && cfg.Database.MaxIdleConns > cfg.Database.MaxOpenConns {
		errs = append(errs, errors.New("database.max_idle_conns must not exceed database.max_open_conns"))
	}
	if cfg.Database.QueryTimeout < 0 {
		errs = append(errs, errors.New("database.query_timeout must not be negative"))
	}

	if cfg.Repository.DefaultPageSize <= 0 {
		errs = append(errs, errors.New("repository.default_page_size must be greater than 0"))
	}
	if strings.TrimSpace(cfg.Repository.VersionColumn) == "" {
		errs = append(errs, errors.New("repository.version_column is required"))
	}
	if strings.TrimSpace(cfg.Repository.VersionRefColumn) == "" {
		errs = append(errs, errors.New("repository.version_ref_column is required"))
	}
	if cfg.Repository.VersionColumn != "" && cfg.Repository.VersionColumn == cfg.Repository.VersionRefColumn {
		errs = append(errs, errors.New("repository.version_column and repository.version_ref_column must differ"))
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, strings.ToLower(cfg.Observability.LogLevel)) {
		errs = append(errs, fmt.Errorf("invalid observability.log_level: %s (must be one of: %v)", cfg.Observability.LogLevel, validLogLevels))
	}
	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, strings.ToLower(cfg.Observability.LogFormat)) {
		errs = append(errs, fmt.Errorf("invalid observability.log_format: %s (must be one of: %v)", cfg.Observability.LogFormat, validLogFormats))
	}
	if cfg.Observability.TracingEnabled && cfg.Observability.TracingEndpoint == "" {
		errs = append(errs, errors.New("observability.tracing_endpoint is required when tracing is enabled"))
	}
	if cfg.Observability.TracingSampleRate < 0 || cfg.Observability.TracingSampleRate > 1 {
		errs = append(errs, errors.New("observability.tracing_sample_rate must be between 0 and 1"))
	}

	return errors.Join(errs...)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
