package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/nimburion/querykit/pkg/query"
)

// ErrNamedFilterNotFound is returned when a named filter has not been registered.
var ErrNamedFilterNotFound = errors.New("named filter not found")

// RegisterNamedFilter stores src under name, replacing any previous filter.
// The criteria are captured at registration, so later changes to src do not leak in.
func (r *SQLRepository[T, ID]) RegisterNamedFilter(name string, src query.Source) error {
	if src == nil {
		return fmt.Errorf("named filter %q: nil criteria", name)
	}
	d, err := src.Data()
	if err != nil {
		return fmt.Errorf("named filter %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[name] = d
	return nil
}

// NamedFilter returns the criteria registered under name.
func (r *SQLRepository[T, ID]) NamedFilter(name string) (query.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.filters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNamedFilterNotFound, name)
	}
	return src, nil
}

// NamedFilters lists the registered filter names in sorted order.
func (r *SQLRepository[T, ID]) NamedFilters() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadNamedFilters registers every filter of a YAML definition file.
func (r *SQLRepository[T, ID]) LoadNamedFilters(reader io.Reader) error {
	filters, err := query.LoadFilters(reader)
	if err != nil {
		return err
	}
	for name, src := range filters {
		if err := r.RegisterNamedFilter(name, src); err != nil {
			return err
		}
	}
	return nil
}

// FindByNamedFilter returns the entities matching the named filter.
func (r *SQLRepository[T, ID]) FindByNamedFilter(ctx context.Context, name string) ([]T, error) {
	src, err := r.NamedFilter(name)
	if err != nil {
		return nil, err
	}
	return r.Find(ctx, src)
}

// FindPagedByNamedFilter returns one page of the entities matching the named filter.
func (r *SQLRepository[T, ID]) FindPagedByNamedFilter(ctx context.Context, name string, page, pageSize int) (*PagedList[T], error) {
	src, err := r.NamedFilter(name)
	if err != nil {
		return nil, err
	}
	return r.FindPaged(ctx, src, page, pageSize)
}

// ExecuteNamedAggregate runs an aggregate restricted by the named filter.
func (r *SQLRepository[T, ID]) ExecuteNamedAggregate(ctx context.Context, fn, column, name string) (any, error) {
	src, err := r.NamedFilter(name)
	if err != nil {
		return nil, err
	}
	return r.ExecuteAggregate(ctx, fn, column, src)
}
