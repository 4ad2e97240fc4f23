// Package migrate builds the "migrate" command tree on top of pkg/migrate.
package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/nimburion/querykit/pkg/config"
	"github.com/nimburion/querykit/pkg/migrate"
	"github.com/nimburion/querykit/pkg/observability/logger"
	"github.com/nimburion/querykit/pkg/security"
	"github.com/nimburion/querykit/pkg/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// LoadConfigFunc loads configuration and logger for a command invocation.
type LoadConfigFunc func(flags *pflag.FlagSet) (*config.Config, logger.Logger, error)

// OpenAdapterFunc opens the store the migrations run against.
type OpenAdapterFunc func(cfg config.DatabaseConfig, log logger.Logger) (store.SQLAdapter, error)

// CommandOptions configures the migrate command.
type CommandOptions struct {
	// Required: config and logger loader.
	LoadConfig LoadConfigFunc
	// Optional: defaults to store.NewSQLAdapter.
	OpenAdapter OpenAdapterFunc
	// Optional: migration files root; defaults to the working directory.
	Files fs.FS
	// Optional: timeout of a single migrate run.
	Timeout time.Duration
}

// NewCommand returns "migrate" with up, down and status subcommands.
func NewCommand(opts CommandOptions) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
	}
	var migrationsPath string
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "migrations-path", "", "migrations directory override")

	run := func(direction string) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			parsed, err := migrate.ParseCommand(append([]string{direction}, args...))
			if err != nil {
				return err
			}
			return runMigrations(cmd, opts, migrationsPath, parsed)
		}
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run pending migrations",
		Args:  cobra.NoArgs,
		RunE:  run("up"),
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Rollback applied migrations",
		Args:  cobra.MaximumNArgs(1),
		RunE:  run("down"),
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Args:  cobra.NoArgs,
		RunE:  run("status"),
	})
	return migrateCmd
}

func runMigrations(cmd *cobra.Command, opts CommandOptions, pathOverride string, command migrate.Command) error {
	if opts.LoadConfig == nil {
		return fmt.Errorf("config loader is required")
	}
	cfg, log, err := opts.LoadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	open := opts.OpenAdapter
	if open == nil {
		open = store.NewSQLAdapter
	}
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

	dir := cfg.Repository.MigrationsDir
	if pathOverride != "" {
		dir = pathOverride
	}
	files, path, err := MigrationFiles(opts.Files, dir)
	if err != nil {
		return err
	}

	report, err := migrate.RunWithDB(cmd.Context(), adapter.DB(), command,
		migrate.Options{Path: path, Timeout: opts.Timeout, Logger: log.With("service", cfg.Service.Name)},
		migrate.SQLOperations(dialect, files))
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout())
}

// MigrationFiles resolves dir against files. Absolute directories become their own
// root; relative ones must stay inside files.
func MigrationFiles(files fs.FS, dir string) (fs.FS, string, error) {
	if filepath.IsAbs(dir) {
		return os.DirFS(dir), ".", nil
	}
	if err := security.ValidateFilePath(dir, ""); err != nil {
		return nil, "", fmt.Errorf("migrations path %q: %w", dir, err)
	}
	if files == nil {
		files = os.DirFS(".")
	}
	return files, filepath.ToSlash(filepath.Clean(dir)), nil
}
