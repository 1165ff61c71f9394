package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/tavern-pos/tavern/internal/shared"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Gather runs the window aggregates concurrently. Each query
// zero-coalesces its sum so empty windows never surface nulls.
func (r *Repository) Gather(ctx context.Context, from, to time.Time) (Totals, error) {
	var totals Totals
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.count(ctx, &totals.TotalOrders, `
			SELECT COUNT(DISTINCT t.id)
			FROM tabs t
			WHERE t.created_at >= $1 AND t.created_at < $2`, from, to)
	})
	g.Go(func() error {
		return r.sum(ctx, &totals.TotalSales, `
			SELECT COALESCE(SUM(o.total), 0)
			FROM orders o
			WHERE o.created_at >= $1 AND o.created_at < $2`, from, to)
	})
	g.Go(func() error {
		return r.sum(ctx, &totals.TotalPaid, `
			SELECT COALESCE(SUM(p.amount_paid), 0)
			FROM payments p
			WHERE p.date_paid >= $1 AND p.date_paid < $2`, from, to)
	})
	g.Go(func() error {
		// outstanding balance of tabs opened in the window
		return r.sum(ctx, &totals.TotalUnpaid, `
			SELECT COALESCE(SUM(due.balance), 0)
			FROM (
				SELECT GREATEST(
					COALESCE((SELECT SUM(o.total) FROM orders o WHERE o.tab_id = t.id), 0)
					- COALESCE((SELECT SUM(p.amount_paid) FROM payments p WHERE p.tab_id = t.id), 0),
					0) AS balance
				FROM tabs t
				WHERE t.created_at >= $1 AND t.created_at < $2
			) due`, from, to)
	})
	g.Go(func() error {
		return r.sum(ctx, &totals.TotalExpenditure, `
			SELECT COALESCE(SUM(e.amount), 0)
			FROM expenditures e
			WHERE e.spent_at >= $1 AND e.spent_at < $2`, from, to)
	})
	g.Go(func() error {
		return r.sum(ctx, &totals.TotalPayroll, `
			SELECT COALESCE(SUM(p.amount), 0)
			FROM payroll_entries p
			WHERE p.paid_at >= $1 AND p.paid_at < $2`, from, to)
	})
	g.Go(func() error {
		return r.sum(ctx, &totals.TotalInventoryCost, `
			SELECT COALESCE(SUM(b.total_quantity * b.purchasing_price), 0)
			FROM stock_batches b
			WHERE b.date_purchased >= $1 AND b.date_purchased < $2`, from, to)
	})
	g.Go(func() error {
		return r.sum(ctx, &totals.BreakageLoss, `
			SELECT COALESCE(SUM(br.quantity * b.purchasing_price), 0)
			FROM stock_breakages br
			JOIN stock_batches b ON b.id = br.batch_id
			WHERE br.recorded_at >= $1 AND br.recorded_at < $2`, from, to)
	})
	g.Go(func() error {
		return r.sum(ctx, &totals.CreditOutstanding, `
			SELECT COALESCE(SUM(e.amount - e.amount_repaid), 0)
			FROM credit_extensions e
			WHERE e.created_at >= $1 AND e.created_at < $2`, from, to)
	})

	if err := g.Wait(); err != nil {
		return Totals{}, shared.TranslateStoreError(err)
	}
	return totals, nil
}

func (r *Repository) sum(ctx context.Context, dest *float64, query string, from, to time.Time) error {
	return r.pool.QueryRow(ctx, query, from, to).Scan(dest)
}

func (r *Repository) count(ctx context.Context, dest *int64, query string, from, to time.Time) error {
	return r.pool.QueryRow(ctx, query, from, to).Scan(dest)
}
