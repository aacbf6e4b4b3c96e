package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchAllDrainsUntilShortPage(t *testing.T) {
	data := make([]int, 0, 250)
	for i := 0; i < 250; i++ {
		data = append(data, i)
	}

	var calls int
	all, err := FetchAll(context.Background(), 100, func(ctx context.Context, offset, limit int) ([]int, error) {
		calls++
		if offset >= len(data) {
			return nil, nil
		}
		end := offset + limit
		if end > len(data) {
			end = len(data)
		}
		return data[offset:end], nil
	})

	require.NoError(t, err)
	require.Equal(t, data, all)
	require.Equal(t, 3, calls)
}

func TestFetchAllExactPageBoundary(t *testing.T) {
	var calls int
	all, err := FetchAll(context.Background(), 5, func(ctx context.Context, offset, limit int) ([]int, error) {
		calls++
		if offset >= 10 {
			return nil, nil
		}
		page := make([]int, limit)
		return page, nil
	})

	require.NoError(t, err)
	require.Len(t, all, 10)
	// A full final page needs one more call to observe the end.
	require.Equal(t, 3, calls)
}

func TestFetchAllPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := FetchAll(context.Background(), 10, func(ctx context.Context, offset, limit int) ([]int, error) {
		if offset == 10 {
			return nil, boom
		}
		return make([]int, limit), nil
	})
	require.ErrorIs(t, err, boom)
}

func TestNewPaginationDefaults(t *testing.T) {
	p := NewPagination(0, 0, 45)
	require.Equal(t, 1, p.Page)
	require.Equal(t, 20, p.PerPage)
	require.Equal(t, 3, p.TotalPages)
}
