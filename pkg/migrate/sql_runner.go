package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/nimburion/querykit/pkg/query"
)

// OperationsBuilder builds migrate Operations using an opened SQL database handle.
type OperationsBuilder func(ctx context.Context, db *sql.DB, path string) (Operations, error)

// NewOperations exposes a SQLManager as migrate command hooks.
func NewOperations(m *SQLManager) Operations {
	return Operations{
		Up:     m.Up,
		Down:   m.Down,
		Status: m.Status,
	}
}

// SQLOperations returns a builder loading migration files from files at the requested path.
func SQLOperations(dialect query.Dialect, files fs.FS) OperationsBuilder {
	return func(_ context.Context, db *sql.DB, path string) (Operations, error) {
		m, err := NewSQLManager(db, dialect, files, path)
		if err != nil {
			return Operations{}, err
		}
		return NewOperations(m), nil
	}
}

// RunWithDB builds operations for opts.Path from an open database handle and runs cmd.
func RunWithDB(ctx context.Context, sqlDB *sql.DB, cmd Command, opts Options, builder OperationsBuilder) (*Report, error) {
	if builder == nil {
		return nil, fmt.Errorf("operations builder is required")
	}
	if sqlDB == nil {
		return nil, fmt.Errorf("database handle is required")
	}

	ops, err := builder(ctx, sqlDB, opts.Path)
	if err != nil {
		return nil, err
	}
	return Run(ctx, cmd, opts, ops)
}
