// Package tracing provides OpenTelemetry tracing for database access.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanOperation represents a traced operation type.
type SpanOperation string

// Span operation constants
const (
	// SpanOperationDBQuery represents a database query operation
	SpanOperationDBQuery SpanOperation = "db.query"
	// SpanOperationDBInsert represents a database insert operation
	SpanOperationDBInsert SpanOperation = "db.insert"
	// SpanOperationDBUpdate represents a database update operation
	SpanOperationDBUpdate SpanOperation = "db.update"
	// SpanOperationDBDelete represents a database delete operation
	SpanOperationDBDelete SpanOperation = "db.delete"
	// SpanOperationDBTx represents a database transaction
	SpanOperationDBTx SpanOperation = "db.transaction"
)

const instrumentationName = "github.com/nimburion/querykit/pkg/repository"

// StartDatabaseSpan creates a client span for a database operation.
// The span is named "DB <operation>" or "DB <operation> <table>" when a table is given.
func StartDatabaseSpan(ctx context.Context, operation SpanOperation, opts ...DatabaseSpanOption) (context.Context, trace.Span) {
	spanOpts := &databaseSpanOptions{
		attributes: []attribute.KeyValue{
			attribute.String("db.operation", string(operation)),
		},
	}
	for _, opt := range opts {
		opt(spanOpts)
	}

	spanName := fmt.Sprintf("DB %s", operation)
	if spanOpts.table != "" {
		spanName = fmt.Sprintf("DB %s %s", operation, spanOpts.table)
	}

	ctx, span := otel.Tracer(instrumentationName).Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(spanOpts.attributes...)
	return ctx, span
}

// StartTransactionSpan creates the parent span of the statements issued inside a transaction.
func StartTransactionSpan(ctx context.Context, system string) (context.Context, trace.Span) {
	return StartDatabaseSpan(ctx, SpanOperationDBTx, WithDBSystem(system))
}

// DatabaseSpanOption configures a database span.
type DatabaseSpanOption func(*databaseSpanOptions)

type databaseSpanOptions struct {
	table      string
	attributes []attribute.KeyValue
}

// WithDBTable sets the database table name for the span.
func WithDBTable(table string) DatabaseSpanOption {
	return func(opts *databaseSpanOptions) {
		opts.table = table
		opts.attributes = append(opts.attributes, attribute.String("db.table", table))
	}
}

// WithDBSystem sets the database system (e.g., "postgres", "sqlserver").
func WithDBSystem(system string) DatabaseSpanOption {
	return func(opts *databaseSpanOptions) {
		opts.attributes = append(opts.attributes, attribute.String("db.system", system))
	}
}

// WithDBStatement sets the SQL text.
func WithDBStatement(statement string) DatabaseSpanOption {
	return func(opts *databaseSpanOptions) {
		opts.attributes = append(opts.attributes, attribute.String("db.statement", statement))
	}
}

// WithDBName sets the database name.
func WithDBName(name string) DatabaseSpanOption {
	return func(opts *databaseSpanOptions) {
		opts.attributes = append(opts.attributes, attribute.String("db.name", name))
	}
}

// WithDBRowsAffected records the number of rows a statement changed.
func WithDBRowsAffected(n int64) DatabaseSpanOption {
	return func(opts *databaseSpanOptions) {
		opts.attributes = append(opts.attributes, attribute.Int64("db.rows_affected", n))
	}
}

// RecordError records an error in the span and sets the span status to error.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// RecordSuccess sets the span status to OK.
func RecordSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// End sets the span status from err and ends the span.
func End(span trace.Span, err error) {
	if err != nil {
		RecordError(span, err)
	} else {
		RecordSuccess(span)
	}
	span.End()
}
