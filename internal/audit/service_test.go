package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	rows []Entry

	lastFilters Filters
	lastLimit   int
	lastOffset  int
}

func (m *memoryRepo) Timeline(_ context.Context, filters Filters, limit, offset int) ([]Entry, error) {
	m.lastFilters = filters
	m.lastLimit = limit
	m.lastOffset = offset

	var out []Entry
	for _, row := range m.rows {
		if filters.Actor != "" && row.Actor != filters.Actor {
			continue
		}
		if filters.Entity != "" && row.Entity != filters.Entity {
			continue
		}
		out = append(out, row)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func seedRows(n int) []Entry {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	rows := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, Entry{
			ID:     int64(n - i),
			Actor:  "wanjiru",
			Action: "orders:tab-created",
			Entity: "tab",
			At:     base.Add(-time.Duration(i) * time.Minute),
		})
	}
	return rows
}

func TestTimelinePagingDefaults(t *testing.T) {
	repo := &memoryRepo{rows: seedRows(25)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), Filters{})
	require.NoError(t, err)
	require.Len(t, result.Rows, 20)
	require.Equal(t, Paging{Page: 1, PageSize: 20, HasNext: true}, result.Paging)
	require.Equal(t, 21, repo.lastLimit)
	require.Equal(t, 0, repo.lastOffset)

	result, err = svc.Timeline(context.Background(), Filters{Page: 2})
	require.NoError(t, err)
	require.Len(t, result.Rows, 5)
	require.False(t, result.Paging.HasNext)
	require.Equal(t, 20, repo.lastOffset)
}

func TestTimelinePageSizeClamped(t *testing.T) {
	repo := &memoryRepo{rows: seedRows(60)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), Filters{PageSize: 500})
	require.NoError(t, err)
	require.Len(t, result.Rows, 50)
	require.Equal(t, 50, result.Paging.PageSize)
	require.True(t, result.Paging.HasNext)
}

func TestTimelineFiltersPassedThrough(t *testing.T) {
	repo := &memoryRepo{rows: seedRows(3)}
	svc := NewService(repo)

	_, err := svc.Timeline(context.Background(), Filters{Actor: "otieno", Entity: "payment"})
	require.NoError(t, err)
	require.Equal(t, "otieno", repo.lastFilters.Actor)
	require.Equal(t, "payment", repo.lastFilters.Entity)
}
