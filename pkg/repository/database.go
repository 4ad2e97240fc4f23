package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/nimburion/querykit/pkg/query"
)

// SQLExecutor defines the interface for executing SQL queries
// This can be a *sql.DB, *sql.Tx, or any adapter that provides these methods
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Database is the statement-level contract repositories are written against.
// Implementations must be safe for concurrent use.
type Database interface {
	// ExecuteScalar returns the first column of the first row, or nil when the result is empty.
	ExecuteScalar(ctx context.Context, sqlText string, args ...any) (any, error)

	// ExecuteNonQuery runs a statement and returns the number of affected rows.
	ExecuteNonQuery(ctx context.Context, sqlText string, args ...any) (int64, error)

	// ExecuteInsert runs an insert and returns the identity generated by the driver.
	ExecuteInsert(ctx context.Context, sqlText string, args ...any) (int64, error)

	// ExecuteTable loads the whole result set into memory.
	ExecuteTable(ctx context.Context, sqlText string, args ...any) (*Table, error)

	// ExecuteReader calls scan once per row. Returning an error from scan stops the iteration.
	ExecuteReader(ctx context.Context, scan func(*sql.Rows) error, sqlText string, args ...any) error

	// BuildInParam creates a named input parameter, converting value to t.
	BuildInParam(name string, t DbType, value any) (sql.NamedArg, error)

	// BuildOutParam creates a named output parameter whose value is read with OutValue.
	BuildOutParam(name string, t DbType) sql.NamedArg

	// Dialect is the SQL grammar the database speaks.
	Dialect() query.Dialect
}

// DbType is the logical type of a statement parameter.
type DbType int

// Parameter types
const (
	DbTypeString DbType = iota
	DbTypeInt32
	DbTypeInt64
	DbTypeDecimal
	DbTypeBoolean
	DbTypeDateTime
	DbTypeBinary
)

// String returns the lowercase name of the type.
func (t DbType) String() string {
	switch t {
	case DbTypeString:
		return "string"
	case DbTypeInt32:
		return "int32"
	case DbTypeInt64:
		return "int64"
	case DbTypeDecimal:
		return "decimal"
	case DbTypeBoolean:
		return "boolean"
	case DbTypeDateTime:
		return "datetime"
	case DbTypeBinary:
		return "binary"
	default:
		return fmt.Sprintf("DbType(%d)", int(t))
	}
}

// InParam converts value to t and wraps it as a named argument.
func InParam(name string, t DbType, value any) (sql.NamedArg, error) {
	if value == nil {
		return sql.Named(name, nil), nil
	}

	var (
		v   any
		err error
	)
	switch t {
	case DbTypeString:
		v, err = cast.ToStringE(value)
	case DbTypeInt32:
		v, err = cast.ToInt32E(value)
	case DbTypeInt64:
		v, err = cast.ToInt64E(value)
	case DbTypeDecimal:
		v, err = cast.ToFloat64E(value)
	case DbTypeBoolean:
		v, err = cast.ToBoolE(value)
	case DbTypeDateTime:
		v, err = cast.ToTimeE(value)
	case DbTypeBinary:
		switch b := value.(type) {
		case []byte:
			v = b
		case string:
			v = []byte(b)
		default:
			err = fmt.Errorf("unable to cast %#v of type %T to []byte", value, value)
		}
	default:
		err = fmt.Errorf("unsupported parameter type %s", t)
	}
	if err != nil {
		return sql.NamedArg{}, fmt.Errorf("parameter %s: %w", name, err)
	}
	return sql.Named(name, v), nil
}

// OutParam creates a named output argument holding a destination of type t.
func OutParam(name string, t DbType) sql.NamedArg {
	var dest any
	switch t {
	case DbTypeInt32:
		dest = new(int32)
	case DbTypeInt64:
		dest = new(int64)
	case DbTypeDecimal:
		dest = new(float64)
	case DbTypeBoolean:
		dest = new(bool)
	case DbTypeDateTime:
		dest = new(time.Time)
	case DbTypeBinary:
		dest = new([]byte)
	default:
		dest = new(string)
	}
	return sql.Named(name, sql.Out{Dest: dest})
}

// OutValue returns the value written by the driver into an output parameter.
func OutValue(arg sql.NamedArg) any {
	out, ok := arg.Value.(sql.Out)
	if !ok {
		return arg.Value
	}
	switch p := out.Dest.(type) {
	case *string:
		return *p
	case *int32:
		return *p
	case *int64:
		return *p
	case *float64:
		return *p
	case *bool:
		return *p
	case *time.Time:
		return *p
	case *[]byte:
		return *p
	default:
		return out.Dest
	}
}

// statementKind returns the lowercase leading keyword of a statement, used as a metric and span label.
func statementKind(sqlText string) string {
	fields := strings.Fields(sqlText)
	if len(fields) == 0 {
		return "other"
	}
	switch kw := strings.ToLower(fields[0]); kw {
	case "select", "insert", "update", "delete":
		return kw
	default:
		return "other"
	}
}
