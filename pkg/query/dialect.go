package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect isolates the vendor-specific parts of the generated SQL.
type Dialect interface {
	// Name is the configuration name of the dialect.
	Name() string
	// QuoteIdentifier quotes a single identifier.
	QuoteIdentifier(identifier string) string
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
	// LimitPrefix is rendered right after "select" (SQL Server "top N").
	LimitPrefix(d Data) string
	// LimitSuffix is rendered after the order by clause ("limit N offset M").
	LimitSuffix(d Data) string
	// InsertReturning returns the clause placed before VALUES and the clause
	// appended after it so that an insert yields the generated id as a row.
	// Both are empty when the driver reports the id through LastInsertId.
	InsertReturning(idColumn string) (beforeValues, afterValues string)
}

// Built-in dialects.
var (
	SQLServer Dialect = sqlServerDialect{}
	Postgres  Dialect = standardDialect{name: "postgres", open: `"`, close: `"`, numbered: true, returning: true}
	MySQL     Dialect = standardDialect{name: "mysql", open: "`", close: "`"}
	SQLite    Dialect = standardDialect{name: "sqlite", open: `"`, close: `"`}
)

// DialectFor resolves a dialect by configuration name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlserver", "mssql":
		return SQLServer, nil
	case "postgres", "postgresql":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return nil, fmt.Errorf("%w %q (supported: sqlserver, postgres, mysql, sqlite)", ErrUnknownDialect, name)
	}
}

type sqlServerDialect struct{}

func (sqlServerDialect) Name() string { return "sqlserver" }

func (sqlServerDialect) QuoteIdentifier(identifier string) string {
	return "[" + strings.ReplaceAll(identifier, "]", "]]") + "]"
}

func (sqlServerDialect) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }

func (sqlServerDialect) LimitPrefix(d Data) string {
	if !d.IsRecordLimitEnabled || d.Offset > 0 {
		return ""
	}
	return "top " + strconv.Itoa(d.RecordLimit)
}

// LimitSuffix uses offset/fetch paging, which SQL Server only accepts after an order by.
func (sqlServerDialect) LimitSuffix(d Data) string {
	if d.Offset <= 0 {
		return ""
	}
	var b strings.Builder
	if len(d.Orderings) == 0 {
		b.WriteString("order by (select null) ")
	}
	b.WriteString("offset " + strconv.Itoa(d.Offset) + " rows")
	if d.IsRecordLimitEnabled {
		b.WriteString(" fetch next " + strconv.Itoa(d.RecordLimit) + " rows only")
	}
	return b.String()
}

func (sqlServerDialect) InsertReturning(idColumn string) (string, string) {
	return "output inserted." + idColumn, ""
}

type standardDialect struct {
	name      string
	open      string
	close     string
	numbered  bool
	returning bool
}

func (s standardDialect) Name() string { return s.name }

func (s standardDialect) QuoteIdentifier(identifier string) string {
	return s.open + strings.ReplaceAll(identifier, s.close, s.close+s.close) + s.close
}

func (s standardDialect) Placeholder(n int) string {
	if s.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (standardDialect) LimitPrefix(Data) string { return "" }

func (s standardDialect) LimitSuffix(d Data) string {
	var parts []string
	if d.IsRecordLimitEnabled {
		parts = append(parts, "limit "+strconv.Itoa(d.RecordLimit))
	} else if d.Offset > 0 && s.name != "postgres" {
		// mysql and sqlite accept offset only together with a limit
		parts = append(parts, "limit -1")
		if s.name == "mysql" {
			parts[0] = "limit 18446744073709551615"
		}
	}
	if d.Offset > 0 {
		parts = append(parts, "offset "+strconv.Itoa(d.Offset))
	}
	return strings.Join(parts, " ")
}

func (s standardDialect) InsertReturning(idColumn string) (string, string) {
	if !s.returning {
		return "", ""
	}
	return "", "returning " + idColumn
}
