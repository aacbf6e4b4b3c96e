package shared

import (
	"context"
	"math"
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// DefaultFetchPageSize is the page size used by FetchAll unless overridden.
const DefaultFetchPageSize = 1000

// FetchAll drains a range-based fetch function page by page until a short
// page is returned. fetch receives the half-open range [offset, offset+limit).
func FetchAll[T any](ctx context.Context, pageSize int, fetch func(ctx context.Context, offset, limit int) ([]T, error)) ([]T, error) {
	if pageSize <= 0 {
		pageSize = DefaultFetchPageSize
	}
	var all []T
	for offset := 0; ; offset += pageSize {
		page, err := fetch(ctx, offset, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}
