package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nimburion/querykit/pkg/query"
)

// Aggregate function names accepted by ExecuteAggregate.
const (
	AggregateSum   = "sum"
	AggregateMin   = "min"
	AggregateMax   = "max"
	AggregateAvg   = "avg"
	AggregateCount = "count"
)

// ExecuteAggregate runs "select fn(column) from table [where ...]" and returns
// the raw scalar. Orderings and limits of src are ignored.
func (r *SQLRepository[T, ID]) ExecuteAggregate(ctx context.Context, fn, column string, src query.Source) (any, error) {
	d, err := sourceData(src)
	if err != nil {
		return nil, err
	}
	return r.aggregateData(ctx, fn, column, d)
}

func (r *SQLRepository[T, ID]) aggregateData(ctx context.Context, fn, column string, d query.Data) (any, error) {
	db := r.Database()
	stmt, err := r.builder(db).BuildAggregate(fn, column, d, r.tableName)
	if err != nil {
		return nil, err
	}
	v, err := db.ExecuteScalar(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s(%s): %w", fn, column, err)
	}
	return v, nil
}

// Sum returns the sum of column over the rows matching src, 0 when none match.
func (r *SQLRepository[T, ID]) Sum(ctx context.Context, column string, src query.Source) (float64, error) {
	return AggregateAs[float64](ctx, r, AggregateSum, column, src)
}

// Avg returns the average of column over the rows matching src, 0 when none match.
func (r *SQLRepository[T, ID]) Avg(ctx context.Context, column string, src query.Source) (float64, error) {
	return AggregateAs[float64](ctx, r, AggregateAvg, column, src)
}

// Min returns the smallest value of column, nil when no row matches.
func (r *SQLRepository[T, ID]) Min(ctx context.Context, column string, src query.Source) (any, error) {
	return r.ExecuteAggregate(ctx, AggregateMin, column, src)
}

// Max returns the largest value of column, nil when no row matches.
func (r *SQLRepository[T, ID]) Max(ctx context.Context, column string, src query.Source) (any, error) {
	return r.ExecuteAggregate(ctx, AggregateMax, column, src)
}

// CountWhere returns the number of rows matching src.
func (r *SQLRepository[T, ID]) CountWhere(ctx context.Context, src query.Source) (int64, error) {
	d, err := sourceData(src)
	if err != nil {
		return 0, err
	}
	return r.countData(ctx, d)
}

func (r *SQLRepository[T, ID]) countData(ctx context.Context, d query.Data) (int64, error) {
	v, err := r.aggregateData(ctx, AggregateCount, "*", d)
	if err != nil {
		return 0, err
	}
	return convertTo[int64](v)
}

// AggregateAs runs an aggregate and converts the scalar to R.
// A NULL aggregate (no matching rows) yields the zero R.
func AggregateAs[R any, T any, ID comparable](ctx context.Context, r *SQLRepository[T, ID], fn, column string, src query.Source) (R, error) {
	var zero R
	v, err := r.ExecuteAggregate(ctx, fn, column, src)
	if err != nil {
		return zero, err
	}
	return convertTo[R](v)
}

// Distinct returns the distinct values of column among the rows matching src,
// in the order given by src's orderings.
func Distinct[V any, T any, ID comparable](ctx context.Context, r *SQLRepository[T, ID], column string, src query.Source) ([]V, error) {
	d, err := sourceData(src)
	if err != nil {
		return nil, err
	}
	db := r.Database()
	stmt, err := r.builder(db).BuildDistinct(column, d, r.tableName)
	if err != nil {
		return nil, err
	}

	values := []V{}
	err = db.ExecuteReader(ctx, func(rows *sql.Rows) error {
		var raw any
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("failed to scan %s: %w", column, err)
		}
		v, err := convertTo[V](raw)
		if err != nil {
			return err
		}
		values = append(values, v)
		return nil
	}, stmt)
	if err != nil {
		return nil, err
	}
	return values, nil
}

// Group counts the rows matching src per distinct value of column.
func Group[K comparable, T any, ID comparable](ctx context.Context, r *SQLRepository[T, ID], column string, src query.Source) (map[K]int64, error) {
	d, err := sourceData(src)
	if err != nil {
		return nil, err
	}
	db := r.Database()
	stmt, err := r.builder(db).BuildGroup(column, d, r.tableName)
	if err != nil {
		return nil, err
	}

	groups := make(map[K]int64)
	err = db.ExecuteReader(ctx, func(rows *sql.Rows) error {
		var rawKey, rawCount any
		if err := rows.Scan(&rawKey, &rawCount); err != nil {
			return fmt.Errorf("failed to scan group %s: %w", column, err)
		}
		key, err := convertTo[K](rawKey)
		if err != nil {
			return err
		}
		count, err := convertTo[int64](rawCount)
		if err != nil {
			return err
		}
		groups[key] += count
		return nil
	}, stmt)
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// Lookup loads the entities matching src keyed by the value of column.
// When several entities share a key the last one read wins.
func Lookup[K comparable, T any, ID comparable](ctx context.Context, r *SQLRepository[T, ID], column string, src query.Source) (map[K]T, error) {
	entities, err := r.Find(ctx, src)
	if err != nil {
		return nil, err
	}

	out := make(map[K]T, len(entities))
	for i := range entities {
		columns, values, err := r.mapper.ToRow(&entities[i])
		if err != nil {
			return nil, fmt.Errorf("failed to map entity to row: %w", err)
		}
		idx := -1
		for j, c := range columns {
			if c == column {
				idx = j
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("column %q is not mapped by the entity", column)
		}
		key, err := convertTo[K](values[idx])
		if err != nil {
			return nil, err
		}
		out[key] = entities[i]
	}
	return out, nil
}
