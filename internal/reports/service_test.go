package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	totals Totals
	calls  int
}

func (r *countingRepo) Gather(ctx context.Context, from, to time.Time) (Totals, error) {
	r.calls++
	return r.totals, nil
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestDailyReportComputesNetProfit(t *testing.T) {
	repo := &countingRepo{totals: Totals{
		TotalOrders:        42,
		TotalSales:         10000,
		TotalPaid:          8000,
		TotalUnpaid:        2000,
		TotalExpenditure:   1500,
		TotalPayroll:       3000,
		TotalInventoryCost: 2500,
	}}
	svc := NewService(repo, newTestCache(t))

	report, err := svc.Daily(context.Background(), time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), report.From)
	require.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), report.To)
	require.Equal(t, int64(42), report.TotalOrders)
	// 10000 - (2000 + 1500 + 3000 + 2500)
	require.InDelta(t, 1000, report.NetProfit, 1e-9)
}

func TestReportCachedUntilInvalidated(t *testing.T) {
	repo := &countingRepo{totals: Totals{TotalSales: 500}}
	svc := NewService(repo, newTestCache(t))
	ctx := context.Background()
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	first, err := svc.Daily(ctx, day)
	require.NoError(t, err)
	second, err := svc.Daily(ctx, day)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.calls)

	// a version bump orphans the cached entry
	require.NoError(t, svc.Invalidate(ctx))
	repo.totals.TotalSales = 900
	third, err := svc.Daily(ctx, day)
	require.NoError(t, err)
	require.InDelta(t, 900, third.TotalSales, 1e-9)
	require.Equal(t, 2, repo.calls)
}

func TestReportWithoutCache(t *testing.T) {
	repo := &countingRepo{totals: Totals{TotalSales: 100}}
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Monthly(ctx, 2026, time.March)
	require.NoError(t, err)
	_, err = svc.Monthly(ctx, 2026, time.March)
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}

func TestRangeValidation(t *testing.T) {
	svc := NewService(&countingRepo{}, nil)
	from := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	_, err := svc.Range(context.Background(), from, from)
	require.ErrorIs(t, err, ErrInvalidWindow)

	report, err := svc.Range(context.Background(), from, from.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Equal(t, from.AddDate(0, 0, 7), report.To)
}

func TestEmptyWindowReportsZeros(t *testing.T) {
	svc := NewService(&countingRepo{}, nil)

	report, err := svc.Daily(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Zero(t, report.TotalOrders)
	require.Zero(t, report.TotalSales)
	require.Zero(t, report.TotalUnpaid)
	require.Zero(t, report.NetProfit)
}
