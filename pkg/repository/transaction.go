package repository

import "context"

// TransactionManager provides transaction management capabilities.
// The store adapters implement it by binding the *sql.Tx to the context passed to fn,
// so every statement issued with that context joins the transaction.
type TransactionManager interface {
	// WithTransaction executes the given function within a transaction
	// If the function returns an error, the transaction is rolled back
	// Otherwise, the transaction is committed
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransactionFunc adapts a function to TransactionManager.
type TransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// WithTransaction calls f.
func (f TransactionFunc) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// inTransaction runs fn inside tm, or directly when tm is nil.
func inTransaction(ctx context.Context, tm TransactionManager, fn func(ctx context.Context) error) error {
	if tm == nil {
		return fn(ctx)
	}
	return tm.WithTransaction(ctx, fn)
}
