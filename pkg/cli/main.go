// Package cli provides the querykit command line: rendering and running query
// criteria, schema migrations, health checks and configuration inspection.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	climigrate "github.com/nimburion/querykit/pkg/cli/migrate"
	"github.com/nimburion/querykit/pkg/config"
	"github.com/nimburion/querykit/pkg/health"
	"github.com/nimburion/querykit/pkg/migrate"
	"github.com/nimburion/querykit/pkg/observability/logger"
	"github.com/nimburion/querykit/pkg/observability/metrics"
	"github.com/nimburion/querykit/pkg/observability/tracing"
	"github.com/nimburion/querykit/pkg/repository"
	"github.com/nimburion/querykit/pkg/store"
	"github.com/nimburion/querykit/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	policiesAnnotationPrefix = "policies."
	defaultPolicyContext     = "run"
)

// CommandPolicy defines the supported command policy values.
type CommandPolicy string

const (
	PolicyAlways      CommandPolicy = "always"
	PolicyNever       CommandPolicy = "never"
	PolicyOnce        CommandPolicy = "once"
	PolicyMigration   CommandPolicy = "migration"
	PolicyRun         CommandPolicy = "run"
	PolicyManual      CommandPolicy = "manual"
	PolicyOnDemand    CommandPolicy = "on_demand"
	PolicyConditional CommandPolicy = "conditional"
)

// CommandOptions configures the root command.
type CommandOptions struct {
	Name        string
	Description string
	ConfigPath  string
	// Optional: called with the resolved path to the configuration file after flags are parsed.
	ConfigPathResolved func(string)
	EnvPrefix          string

	// Optional: custom config validation (runs after the built-in validation)
	ValidateConfig func(cfg *config.Config) error

	// Optional: store factory, defaults to store.NewSQLAdapter.
	OpenAdapter func(cfg config.DatabaseConfig, log logger.Logger) (store.SQLAdapter, error)

	// Optional: root of migration files, defaults to the working directory.
	MigrationFiles fs.FS

	// Optional: additional custom commands
	CustomCommands []*cobra.Command
}

// NewCommand creates the CLI with render, query, migrate, healthcheck, version and config subcommands.
func NewCommand(opts CommandOptions) *cobra.Command {
	if opts.EnvPrefix == "" {
		opts.EnvPrefix = "APP"
	}
	if opts.OpenAdapter == nil {
		opts.OpenAdapter = store.NewSQLAdapter
	}

	rootCmd := &cobra.Command{
		Use:           opts.Name,
		Short:         opts.Description,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	SetCommandPolicies(rootCmd, map[string]CommandPolicy{defaultPolicyContext: PolicyAlways})

	var cfgPath string
	var secretFilePath string
	var serviceNameOverride string
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config-file", "c", opts.ConfigPath, "config file path")
	rootCmd.PersistentFlags().StringVar(&secretFilePath, "secret-file", "", "path to secrets file (sets APP_SECRETS_FILE)")
	rootCmd.PersistentFlags().StringVar(&serviceNameOverride, "service-name", "", "service name override")

	loadConfig := func(*pflag.FlagSet) (*config.Config, logger.Logger, error) {
		if opts.ConfigPathResolved != nil {
			opts.ConfigPathResolved(cfgPath)
		}
		return LoadConfigAndLogger(cfgPath, opts.EnvPrefix, secretFilePath, opts.ValidateConfig, opts.Name, serviceNameOverride)
	}

	// version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Current(opts.Name)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Service:    %s\n", info.Service)
			fmt.Fprintf(out, "Version:    %s\n", info.Version)
			fmt.Fprintf(out, "Commit:     %s\n", info.Commit)
			buildTime := info.BuildTime
			if ts, ok := info.ParseBuildTime(); ok {
				buildTime = ts.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(out, "Build Time: %s\n", buildTime)
			fmt.Fprintf(out, "Release:    %s\n", info.Channel())
		},
	}
	SetCommandPolicies(versionCmd, map[string]CommandPolicy{defaultPolicyContext: PolicyAlways})
	rootCmd.AddCommand(versionCmd)

	// render command
	renderCmd := newRenderCommand()
	SetCommandPolicies(renderCmd, map[string]CommandPolicy{defaultPolicyContext: PolicyOnDemand})
	rootCmd.AddCommand(renderCmd)

	// query command
	var queryOpts RenderOptions
	var showStats bool
	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Run query criteria against the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			queryOpts.HasLimit = cmd.Flags().Changed("limit")
			cfg, log, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			registry := metrics.NewRegistry()
			before, err := registry.QueryCounts()
			if err != nil {
				return err
			}
			err = withDatabase(cmd.Context(), cfg, log, opts.OpenAdapter, func(ctx context.Context, db repository.Database, _ store.SQLAdapter) error {
				return RunQuery(ctx, db, queryOpts, cmd.OutOrStdout())
			})
			if err != nil || !showStats {
				return err
			}
			after, err := registry.QueryCounts()
			if err != nil {
				return err
			}
			return writeStats(cmd.ErrOrStderr(), before, after)
		},
	}
	addCriteriaFlags(queryCmd, &queryOpts)
	queryCmd.Flags().BoolVar(&showStats, "stats", false, "Print executed statement counts to stderr")
	SetCommandPolicies(queryCmd, map[string]CommandPolicy{defaultPolicyContext: PolicyManual})
	rootCmd.AddCommand(queryCmd)

	// migrate command with subcommands
	migrateCmd := climigrate.NewCommand(climigrate.CommandOptions{
		LoadConfig:  loadConfig,
		OpenAdapter: opts.OpenAdapter,
		Files:       opts.MigrationFiles,
	})
	SetCommandPolicies(migrateCmd, map[string]CommandPolicy{"migration": PolicyMigration})
	for _, sub := range migrateCmd.Commands() {
		switch sub.Name() {
		case "down":
			SetCommandPolicies(sub, map[string]CommandPolicy{"migration": PolicyOnce})
		default:
			SetCommandPolicies(sub, map[string]CommandPolicy{"migration": PolicyRun})
		}
	}
	rootCmd.AddCommand(migrateCmd)

	// healthcheck command
	var checkName string
	var listChecks bool
	healthCmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check the configured database and named filter file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return withDatabase(cmd.Context(), cfg, log, opts.OpenAdapter, func(ctx context.Context, _ repository.Database, adapter store.SQLAdapter) error {
				registry := health.NewRegistry()
				registry.Register(health.NewStoreChecker("database", adapter, migrationStatus(cfg, adapter, opts.MigrationFiles)))
				registry.Register(health.NewFiltersChecker("filters", cfg.Repository.FiltersFile))

				out := cmd.OutOrStdout()
				switch {
				case listChecks:
					for _, name := range registry.List() {
						fmt.Fprintln(out, name)
					}
					return nil
				case checkName != "":
					result, err := registry.CheckOne(ctx, checkName)
					if err != nil {
						return fmt.Errorf("%w (available: %s)", err, strings.Join(registry.List(), ", "))
					}
					return reportHealth(out, health.AggregatedResult{Status: result.Status, Checks: []health.CheckResult{result}})
				}
				return reportHealth(out, registry.Check(ctx))
			})
		},
	}
	healthCmd.Flags().StringVar(&checkName, "check", "", "run only the named check")
	healthCmd.Flags().BoolVar(&listChecks, "list", false, "list the available checks")
	healthCmd.MarkFlagsMutuallyExclusive("check", "list")
	SetCommandPolicies(healthCmd, map[string]CommandPolicy{defaultPolicyContext: PolicyAlways})
	rootCmd.AddCommand(healthCmd)

	// config command
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}
	SetCommandPolicies(configCmd, map[string]CommandPolicy{defaultPolicyContext: PolicyAlways})

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfigWithSecrets(opts, cfgPath, secretFilePath, serviceNameOverride)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
			return nil
		},
	}
	SetCommandPolicies(validateCmd, map[string]CommandPolicy{defaultPolicyContext: PolicyAlways})
	configCmd.AddCommand(validateCmd)

	var showSecrets bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, secrets, err := loadConfigWithSecrets(opts, cfgPath, secretFilePath, serviceNameOverride)
			if err != nil {
				return err
			}
			if showSecrets {
				fmt.Fprint(cmd.OutOrStdout(), cfg.String())
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), cfg.Redacted(secrets))
			return nil
		},
	}
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "show secret values")
	SetCommandPolicies(showCmd, map[string]CommandPolicy{defaultPolicyContext: PolicyAlways})
	configCmd.AddCommand(showCmd)

	rootCmd.AddCommand(configCmd)

	// Add custom service-specific commands
	for _, customCmd := range opts.CustomCommands {
		ensureDefaultPolicy(customCmd)
		rootCmd.AddCommand(customCmd)
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = false
	rootCmd.InitDefaultCompletionCmd()
	for _, subCmd := range rootCmd.Commands() {
		if subCmd != nil && subCmd.Name() == "completion" {
			SetCommandPolicies(subCmd, map[string]CommandPolicy{defaultPolicyContext: PolicyAlways})
			break
		}
	}

	return rootCmd
}

// SetCommandPolicies stores policies as a map[string]string on command annotations using the "policies." prefix.
func SetCommandPolicies(cmd *cobra.Command, policies map[string]CommandPolicy) {
	if cmd == nil {
		return
	}
	if cmd.Annotations == nil {
		cmd.Annotations = make(map[string]string)
	}
	for _, key := range policyAnnotationKeys(cmd.Annotations) {
		delete(cmd.Annotations, key)
	}
	for context, policy := range policies {
		trimmedContext := strings.TrimSpace(context)
		if trimmedContext == "" {
			continue
		}
		cmd.Annotations[policiesAnnotationPrefix+trimmedContext] = string(policy)
	}
}

// GetCommandPolicies returns command policies from annotations.
func GetCommandPolicies(cmd *cobra.Command) map[string]string {
	out := map[string]string{}
	if cmd == nil {
		return out
	}
	for key, value := range cmd.Annotations {
		if !strings.HasPrefix(key, policiesAnnotationPrefix) {
			continue
		}
		context := strings.TrimPrefix(key, policiesAnnotationPrefix)
		if strings.TrimSpace(context) == "" {
			continue
		}
		out[context] = value
	}
	return out
}

func ensureDefaultPolicy(cmd *cobra.Command) {
	if cmd == nil {
		return
	}
	if len(GetCommandPolicies(cmd)) == 0 {
		SetCommandPolicies(cmd, map[string]CommandPolicy{defaultPolicyContext: PolicyAlways})
	}
}

func policyAnnotationKeys(annotations map[string]string) []string {
	keys := make([]string, 0, len(annotations))
	for key := range annotations {
		if strings.HasPrefix(key, policiesAnnotationPrefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// LoadConfigAndLogger loads configuration (secrets included), applies the service
// name resolution and builds the logger described by the observability section.
func LoadConfigAndLogger(
	cfgPath,
	envPrefix,
	secretFilePath string,
	customValidator func(*config.Config) error,
	defaultServiceName string,
	serviceNameOverride string,
) (*config.Config, logger.Logger, error) {
	cfg, _, err := readConfig(cfgPath, envPrefix, secretFilePath, defaultServiceName, serviceNameOverride)
	if err != nil {
		return nil, nil, err
	}

	// Run custom validation if provided (built-in validation already ran while loading)
	if customValidator != nil {
		if err := customValidator(cfg); err != nil {
			return nil, nil, fmt.Errorf("custom validation failed: %w", err)
		}
	}

	logCfg := logger.Config{
		Level:  logger.LogLevel(cfg.Observability.LogLevel),
		Format: logger.LogFormat(cfg.Observability.LogFormat),
	}
	log, err := logger.NewZapLogger(logCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	logConfigIfDebug(log, cfg)
	return cfg, log, nil
}

func loadConfigWithSecrets(opts CommandOptions, cfgPath, secretFilePath, serviceNameOverride string) (*config.Config, *config.Config, error) {
	if opts.ConfigPathResolved != nil {
		opts.ConfigPathResolved(cfgPath)
	}
	cfg, secrets, err := readConfig(cfgPath, opts.EnvPrefix, secretFilePath, opts.Name, serviceNameOverride)
	if err != nil {
		return nil, nil, err
	}
	if opts.ValidateConfig != nil {
		if err := opts.ValidateConfig(cfg); err != nil {
			return nil, nil, fmt.Errorf("custom validation failed: %w", err)
		}
	}
	return cfg, secrets, nil
}

func readConfig(cfgPath, envPrefix, secretFilePath, defaultServiceName, serviceNameOverride string) (*config.Config, *config.Config, error) {
	if err := applySecretFileFlag(envPrefix, secretFilePath); err != nil {
		return nil, nil, err
	}
	cfg, secrets, err := config.NewViperLoader(cfgPath, resolveEnvPrefix(envPrefix)).
		WithServiceNameDefault(defaultServiceName).
		LoadWithSecrets()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	applyResolvedServiceName(cfg, defaultServiceName, serviceNameOverride)
	return cfg, secrets, nil
}

// withDatabase opens the configured store, wraps it as a traced repository.Database
// and closes everything once fn returns.
func withDatabase(
	ctx context.Context,
	cfg *config.Config,
	log logger.Logger,
	open func(config.DatabaseConfig, logger.Logger) (store.SQLAdapter, error),
	fn func(ctx context.Context, db repository.Database, adapter store.SQLAdapter) error,
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.Database.Type) == "" {
		return errors.New("database.type is not configured")
	}

	build := version.Current(cfg.Service.Name)
	log.Debug("opening database", "type", cfg.Database.Type, "build", build.String())
	tp, err := tracing.NewTracerProvider(ctx, tracing.NewTracerConfig(cfg, build.Version))
	if err != nil {
		return fmt.Errorf("create tracer provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("failed to shut down tracer provider", "error", err)
		}
	}()

	adapter, err := open(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if closeErr := adapter.Close(); closeErr != nil {
			log.Error("failed to close database", "error", closeErr)
		}
	}()

	dialect, err := store.Dialect(cfg.Database)
	if err != nil {
		return err
	}
	db := repository.NewTracedDatabase(repository.NewSQLDatabase(adapter, dialect, repository.WithLogger(log)), cfg.Service.Name)
	return fn(ctx, db, adapter)
}

// migrationStatus returns the schema status reader, or nil when the configured
// migrations directory cannot be loaded.
func migrationStatus(cfg *config.Config, adapter store.SQLAdapter, files fs.FS) health.MigrationStatusFunc {
	if strings.TrimSpace(cfg.Repository.MigrationsDir) == "" {
		return nil
	}
	files, dir, err := climigrate.MigrationFiles(files, cfg.Repository.MigrationsDir)
	if err != nil {
		return nil
	}
	dialect, err := store.Dialect(cfg.Database)
	if err != nil {
		return nil
	}
	m, err := migrate.NewSQLManager(adapter.DB(), dialect, files, dir)
	if err != nil {
		return nil
	}
	return m.Status
}

func reportHealth(out io.Writer, result health.AggregatedResult) error {
	checks := append([]health.CheckResult(nil), result.Checks...)
	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })
	for _, check := range checks {
		detail := check.Message
		if check.Error != "" {
			detail = check.Error
		}
		fmt.Fprintf(out, "%-10s %s: %s\n", check.Status, check.Name, detail)
	}
	if result.Status == health.StatusUnhealthy {
		return errors.New("healthcheck failed")
	}
	return nil
}

func applySecretFileFlag(envPrefix, secretFilePath string) error {
	if secretFilePath == "" {
		return nil
	}
	info, err := os.Stat(secretFilePath)
	if err != nil {
		return fmt.Errorf("secret file %s is not accessible: %w", secretFilePath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("secret file %s must not be a directory", secretFilePath)
	}
	return os.Setenv(resolveEnvPrefix(envPrefix)+"_SECRETS_FILE", filepath.Clean(secretFilePath))
}

// Execute runs the command and exits with appropriate code.
func Execute(cmd *cobra.Command) {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logConfigIfDebug(log logger.Logger, cfg *config.Config) {
	if log == nil || cfg == nil {
		return
	}

	if !strings.EqualFold(cfg.Observability.LogLevel, string(logger.DebugLevel)) {
		return
	}

	log.Debug("effective configuration", "config", cfg.String())
}

func resolveEnvPrefix(prefix string) string {
	trimmed := strings.TrimSpace(prefix)
	if trimmed == "" {
		return "APP"
	}
	return strings.ToUpper(trimmed)
}

func applyResolvedServiceName(cfg *config.Config, defaultServiceName, serviceNameOverride string) {
	if cfg == nil {
		return
	}
	cfg.Service.Name = resolveServiceNameValue(cfg.Service.Name, defaultServiceName, serviceNameOverride)
}

func resolveServiceNameValue(currentConfigName, defaultServiceName, serviceNameOverride string) string {
	if override := strings.TrimSpace(serviceNameOverride); override != "" {
		return override
	}
	if configured := strings.TrimSpace(currentConfigName); configured != "" {
		return configured
	}
	if fallback := strings.TrimSpace(defaultServiceName); fallback != "" {
		return fallback
	}
	return "app"
}
