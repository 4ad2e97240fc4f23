package repository

import (
	"context"
	"database/sql"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nimburion/querykit/pkg/observability/tracing"
	"github.com/nimburion/querykit/pkg/query"
)

// TracedDatabase wraps a Database and opens an OpenTelemetry span around every statement.
type TracedDatabase struct {
	next Database
	name string
}

// NewTracedDatabase decorates next. name is reported as db.name and may be empty.
func NewTracedDatabase(next Database, name string) *TracedDatabase {
	return &TracedDatabase{next: next, name: name}
}

func (d *TracedDatabase) start(ctx context.Context, sqlText string) (context.Context, trace.Span) {
	opts := []tracing.DatabaseSpanOption{
		tracing.WithDBSystem(d.next.Dialect().Name()),
		tracing.WithDBStatement(sqlText),
	}
	if d.name != "" {
		opts = append(opts, tracing.WithDBName(d.name))
	}
	return tracing.StartDatabaseSpan(ctx, spanOperation(sqlText), opts...)
}

func spanOperation(sqlText string) tracing.SpanOperation {
	switch statementKind(sqlText) {
	case "insert":
		return tracing.SpanOperationDBInsert
	case "update":
		return tracing.SpanOperationDBUpdate
	case "delete":
		return tracing.SpanOperationDBDelete
	default:
		return tracing.SpanOperationDBQuery
	}
}

// ExecuteScalar implements Database.
func (d *TracedDatabase) ExecuteScalar(ctx context.Context, sqlText string, args ...any) (any, error) {
	ctx, span := d.start(ctx, sqlText)
	v, err := d.next.ExecuteScalar(ctx, sqlText, args...)
	tracing.End(span, err)
	return v, err
}

// ExecuteNonQuery implements Database.
func (d *TracedDatabase) ExecuteNonQuery(ctx context.Context, sqlText string, args ...any) (int64, error) {
	ctx, span := d.start(ctx, sqlText)
	n, err := d.next.ExecuteNonQuery(ctx, sqlText, args...)
	if err == nil {
		span.SetAttributes(attribute.Int64("db.rows_affected", n))
	}
	tracing.End(span, err)
	return n, err
}

// ExecuteInsert implements Database.
func (d *TracedDatabase) ExecuteInsert(ctx context.Context, sqlText string, args ...any) (int64, error) {
	ctx, span := d.start(ctx, sqlText)
	id, err := d.next.ExecuteInsert(ctx, sqlText, args...)
	tracing.End(span, err)
	return id, err
}

// ExecuteTable implements Database.
func (d *TracedDatabase) ExecuteTable(ctx context.Context, sqlText string, args ...any) (*Table, error) {
	ctx, span := d.start(ctx, sqlText)
	t, err := d.next.ExecuteTable(ctx, sqlText, args...)
	tracing.End(span, err)
	return t, err
}

// ExecuteReader implements Database.
func (d *TracedDatabase) ExecuteReader(ctx context.Context, scan func(*sql.Rows) error, sqlText string, args ...any) error {
	ctx, span := d.start(ctx, sqlText)
	err := d.next.ExecuteReader(ctx, scan, sqlText, args...)
	tracing.End(span, err)
	return err
}

// BuildInParam implements Database.
func (d *TracedDatabase) BuildInParam(name string, t DbType, value any) (sql.NamedArg, error) {
	return d.next.BuildInParam(name, t, value)
}

// BuildOutParam implements Database.
func (d *TracedDatabase) BuildOutParam(name string, t DbType) sql.NamedArg {
	return d.next.BuildOutParam(name, t)
}

// Dialect implements Database.
func (d *TracedDatabase) Dialect() query.Dialect {
	return d.next.Dialect()
}
