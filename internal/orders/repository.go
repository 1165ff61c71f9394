package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tavern-pos/tavern/internal/platform/db"
	"github.com/tavern-pos/tavern/internal/shared"
	"github.com/tavern-pos/tavern/internal/stock"
)

// TxRepository is the write surface available inside an order
// transaction. Stock exposes the batch operations bound to the same
// transaction so depletion commits or rolls back with the tab.
type TxRepository interface {
	GenerateNumber(ctx context.Context, date time.Time) (string, error)
	InsertTab(ctx context.Context, tab *Tab) error
	InsertOrder(ctx context.Context, order *Order) error
	Stock() stock.TxRepository
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return shared.TranslateStoreError(db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, stock: stock.NewTxRepository(tx)})
	}))
}

type txRepository struct {
	tx    pgx.Tx
	stock stock.TxRepository
}

func (t *txRepository) Stock() stock.TxRepository { return t.stock }

func (t *txRepository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	// TAB-{YY}{MM}-{SEQ}
	var count int64
	err := t.tx.QueryRow(ctx, `SELECT count(*) FROM tabs WHERE created_at >= date_trunc('month', $1::timestamptz)`, date).Scan(&count)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TAB-%s-%04d", date.Format("0601"), count+1), nil
}

func (t *txRepository) InsertTab(ctx context.Context, tab *Tab) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO tabs (number, customer_name, customer_phone, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		tab.Number, tab.CustomerName, tab.CustomerPhone, tab.CreatedBy, tab.CreatedAt,
	).Scan(&tab.ID)
}

func (t *txRepository) InsertOrder(ctx context.Context, order *Order) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO orders (tab_id, batch_id, dish_id, description, pricing, quantity, unit_price, shots_per_container, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		order.TabID, order.BatchID, order.DishID, order.Description, order.Pricing,
		order.Quantity, order.UnitPrice, order.Shots, order.Total, order.CreatedAt,
	).Scan(&order.ID)
}

const tabTotals = `
	COALESCE((SELECT SUM(o.total) FROM orders o WHERE o.tab_id = t.id), 0) AS total_payable,
	COALESCE((SELECT SUM(p.amount_paid) FROM payments p WHERE p.tab_id = t.id), 0) AS total_paid`

func (r *Repository) GetTab(ctx context.Context, id int64) (Tab, error) {
	var tab Tab
	err := r.pool.QueryRow(ctx, `
		SELECT t.id, t.number, COALESCE(t.customer_name, ''), COALESCE(t.customer_phone, ''),
		       t.created_by, t.created_at, `+tabTotals+`
		FROM tabs t
		WHERE t.id = $1`, id,
	).Scan(&tab.ID, &tab.Number, &tab.CustomerName, &tab.CustomerPhone,
		&tab.CreatedBy, &tab.CreatedAt, &tab.TotalPayable, &tab.TotalPaid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tab{}, ErrTabNotFound
		}
		return Tab{}, shared.TranslateStoreError(err)
	}
	tab.TotalRemaining = tab.TotalPayable - tab.TotalPaid

	rows, err := r.pool.Query(ctx, `
		SELECT id, tab_id, batch_id, dish_id, description, pricing, quantity,
		       unit_price, COALESCE(shots_per_container, 0), total, created_at
		FROM orders
		WHERE tab_id = $1
		ORDER BY id`, id)
	if err != nil {
		return Tab{}, shared.TranslateStoreError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.TabID, &o.BatchID, &o.DishID, &o.Description, &o.Pricing,
			&o.Quantity, &o.UnitPrice, &o.Shots, &o.Total, &o.CreatedAt); err != nil {
			return Tab{}, shared.TranslateStoreError(err)
		}
		tab.Orders = append(tab.Orders, o)
	}
	return tab, shared.TranslateStoreError(rows.Err())
}

func (r *Repository) ListTabs(ctx context.Context, filter TabFilter) ([]Tab, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	to := filter.To
	if to.IsZero() {
		to = time.Now().Add(24 * time.Hour)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.number, COALESCE(t.customer_name, ''), COALESCE(t.customer_phone, ''),
		       t.created_by, t.created_at, `+tabTotals+`
		FROM tabs t
		WHERE t.created_at >= $1 AND t.created_at < $2
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $3`, filter.From, to, limit)
	if err != nil {
		return nil, shared.TranslateStoreError(err)
	}
	defer rows.Close()

	tabs := make([]Tab, 0)
	for rows.Next() {
		var tab Tab
		if err := rows.Scan(&tab.ID, &tab.Number, &tab.CustomerName, &tab.CustomerPhone,
			&tab.CreatedBy, &tab.CreatedAt, &tab.TotalPayable, &tab.TotalPaid); err != nil {
			return nil, shared.TranslateStoreError(err)
		}
		tab.TotalRemaining = tab.TotalPayable - tab.TotalPaid
		tabs = append(tabs, tab)
	}
	return tabs, shared.TranslateStoreError(rows.Err())
}
