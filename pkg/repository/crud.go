package repository

import (
	"context"
	"sort"

	"github.com/nimburion/querykit/pkg/query"
)

// Reader provides read operations for entities
type Reader[T any, ID comparable] interface {
	FindByID(ctx context.Context, id ID) (*T, error)
	GetAll(ctx context.Context) ([]T, error)
	Find(ctx context.Context, src query.Source) ([]T, error)
	FindPaged(ctx context.Context, src query.Source, page, pageSize int) (*PagedList[T], error)
	FindAll(ctx context.Context, opts QueryOptions) ([]T, error)
	Count(ctx context.Context, filter Filter) (int64, error)
}

// Writer provides write operations for entities
type Writer[T any, ID comparable] interface {
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id ID) error
}

// Repository combines Reader and Writer interfaces for complete CRUD operations
type Repository[T any, ID comparable] interface {
	Reader[T, ID]
	Writer[T, ID]
}

// QueryOptions encapsulates filtering, sorting, and pagination options for queries
type QueryOptions struct {
	Filter     Filter
	Sort       Sort
	Pagination Pagination
}

// Filter represents equality criteria keyed by column, combined with AND.
// A nil value matches NULL.
type Filter map[string]interface{}

// Sort specifies field and direction for sorting results
type Sort struct {
	Field string
	Order SortOrder
}

// SortOrder defines the sort direction for queries.
type SortOrder string

// Sort order constants
const (
	// SortAsc sorts in ascending order
	SortAsc SortOrder = "asc"
	// SortDesc sorts in descending order
	SortDesc SortOrder = "desc"
)

// Pagination specifies page-based pagination parameters
type Pagination struct {
	Page     int
	PageSize int
}

// Offset calculates the offset for database queries
func (p Pagination) Offset() int {
	if p.Page <= 0 || p.PageSize <= 0 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Limit returns the page size for database queries
func (p Pagination) Limit() int {
	return p.PageSize
}

// Query translates the options into criteria. Filter keys are applied in sorted
// order so the generated SQL is stable.
func (o QueryOptions) Query() (*query.Query[struct{}], error) {
	q, err := o.Filter.Query()
	if err != nil {
		return nil, err
	}
	if o.Sort.Field != "" {
		if o.Sort.Order == SortDesc {
			q.OrderByDescending(query.Column(o.Sort.Field))
		} else {
			q.OrderBy(query.Column(o.Sort.Field))
		}
	}
	if o.Pagination.PageSize > 0 {
		q.Limit(o.Pagination.Limit()).Offset(o.Pagination.Offset())
	}
	return q, q.Err()
}

// Query translates the filter into criteria.
func (f Filter) Query() (*query.Query[struct{}], error) {
	q := query.New[struct{}]()

	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		q.And(query.Column(k))
		if f[k] == nil {
			q.Null()
			continue
		}
		lit, err := query.Value(f[k])
		if err != nil {
			return nil, err
		}
		if _, isList := lit.(query.ListLit); isList {
			q.In(lit.(query.ListLit)...)
		} else {
			q.Is(lit)
		}
	}
	return q, q.Err()
}
