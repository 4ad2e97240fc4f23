package repository

// PagedList is one page of a larger result set.
type PagedList[T any] struct {
	Items []T
	// PageIndex is 1-based.
	PageIndex  int
	PageSize   int
	TotalCount int64
	TotalPages int
}

// NewPagedList builds a page and derives TotalPages as ceil(totalCount/pageSize).
// TotalPages is 0 when pageSize is not positive.
func NewPagedList[T any](items []T, pageIndex, pageSize int, totalCount int64) *PagedList[T] {
	if items == nil {
		items = []T{}
	}
	return &PagedList[T]{
		Items:      items,
		PageIndex:  pageIndex,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages(totalCount, pageSize),
	}
}

func totalPages(totalCount int64, pageSize int) int {
	if pageSize <= 0 || totalCount <= 0 {
		return 0
	}
	size := int64(pageSize)
	return int((totalCount + size - 1) / size)
}

// HasPrevious reports whether a page precedes this one.
func (p *PagedList[T]) HasPrevious() bool {
	return p.PageIndex > 1
}

// HasNext reports whether a page follows this one.
func (p *PagedList[T]) HasNext() bool {
	return p.PageIndex < p.TotalPages
}
