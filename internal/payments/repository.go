package payments

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tavern-pos/tavern/internal/credit"
	"github.com/tavern-pos/tavern/internal/orders"
	"github.com/tavern-pos/tavern/internal/platform/db"
	"github.com/tavern-pos/tavern/internal/shared"
)

// TabTotals is the payable/paid snapshot taken with the tab row locked.
type TabTotals struct {
	TabID   int64
	Payable float64
	Paid    float64
}

// TxRepository is the write surface inside a payment transaction. The
// credit operations live here because extending credit is part of the
// payment write, not a separate call.
type TxRepository interface {
	LockTab(ctx context.Context, tabID int64) (TabTotals, error)
	OpenPayment(ctx context.Context, tabID int64) (*Payment, error)
	InsertPayment(ctx context.Context, p *Payment) error
	UpdatePayment(ctx context.Context, p *Payment) error
	LockCreditCustomer(ctx context.Context, id int64) (credit.CreditCustomer, error)
	SumExtensionsBetween(ctx context.Context, customerID int64, from, to time.Time) (float64, error)
	InsertExtension(ctx context.Context, e *credit.CreditExtension) error
	SetTabCustomer(ctx context.Context, tabID int64, name, phone string) error
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return shared.TranslateStoreError(db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	}))
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) LockTab(ctx context.Context, tabID int64) (TabTotals, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `SELECT id FROM tabs WHERE id = $1 FOR UPDATE`, tabID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TabTotals{}, orders.ErrTabNotFound
		}
		return TabTotals{}, err
	}
	totals := TabTotals{TabID: tabID}
	err = t.tx.QueryRow(ctx, `
		SELECT COALESCE((SELECT SUM(o.total) FROM orders o WHERE o.tab_id = $1), 0),
		       COALESCE((SELECT SUM(p.amount_paid) FROM payments p WHERE p.tab_id = $1), 0)`,
		tabID,
	).Scan(&totals.Payable, &totals.Paid)
	if err != nil {
		return TabTotals{}, err
	}
	return totals, nil
}

func (t *txRepository) OpenPayment(ctx context.Context, tabID int64) (*Payment, error) {
	var p Payment
	err := t.tx.QueryRow(ctx, `
		SELECT id, tab_id, amount_paid, method, status, date_paid, recorded_by, created_at
		FROM payments
		WHERE tab_id = $1 AND status <> 'PAID'
		ORDER BY id DESC
		LIMIT 1
		FOR UPDATE`, tabID,
	).Scan(&p.ID, &p.TabID, &p.AmountPaid, &p.Method, &p.Status, &p.DatePaid, &p.RecordedBy, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *txRepository) InsertPayment(ctx context.Context, p *Payment) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO payments (tab_id, amount_paid, method, status, date_paid, recorded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $5)
		RETURNING id, created_at`,
		p.TabID, p.AmountPaid, p.Method, p.Status, p.DatePaid, p.RecordedBy,
	).Scan(&p.ID, &p.CreatedAt)
}

func (t *txRepository) UpdatePayment(ctx context.Context, p *Payment) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE payments
		SET amount_paid = $2, method = $3, status = $4, date_paid = $5
		WHERE id = $1`,
		p.ID, p.AmountPaid, p.Method, p.Status, p.DatePaid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (t *txRepository) LockCreditCustomer(ctx context.Context, id int64) (credit.CreditCustomer, error) {
	var c credit.CreditCustomer
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, COALESCE(phone, ''), credit_limit, created_at
		FROM credit_customers
		WHERE id = $1
		FOR UPDATE`, id,
	).Scan(&c.ID, &c.Name, &c.Phone, &c.CreditLimit, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return credit.CreditCustomer{}, credit.ErrCustomerNotFound
	}
	return c, err
}

func (t *txRepository) SumExtensionsBetween(ctx context.Context, customerID int64, from, to time.Time) (float64, error) {
	var sum float64
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM credit_extensions
		WHERE customer_id = $1 AND created_at >= $2 AND created_at < $3`,
		customerID, from, to,
	).Scan(&sum)
	return sum, err
}

func (t *txRepository) InsertExtension(ctx context.Context, e *credit.CreditExtension) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO credit_extensions (payment_id, customer_id, amount, amount_repaid, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		e.PaymentID, e.CustomerID, e.Amount, e.AmountRepaid, e.CreatedAt,
	).Scan(&e.ID)
}

func (t *txRepository) SetTabCustomer(ctx context.Context, tabID int64, name, phone string) error {
	_, err := t.tx.Exec(ctx, `UPDATE tabs SET customer_name = $2, customer_phone = $3 WHERE id = $1`, tabID, name, phone)
	return err
}

func (r *Repository) ListByTab(ctx context.Context, tabID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tab_id, amount_paid, method, status, date_paid, recorded_by, created_at
		FROM payments
		WHERE tab_id = $1
		ORDER BY id`, tabID)
	if err != nil {
		return nil, shared.TranslateStoreError(err)
	}
	defer rows.Close()

	out := make([]Payment, 0)
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.TabID, &p.AmountPaid, &p.Method, &p.Status, &p.DatePaid, &p.RecordedBy, &p.CreatedAt); err != nil {
			return nil, shared.TranslateStoreError(err)
		}
		out = append(out, p)
	}
	return out, shared.TranslateStoreError(rows.Err())
}

func (r *Repository) Get(ctx context.Context, id int64) (Payment, error) {
	var p Payment
	err := r.pool.QueryRow(ctx, `
		SELECT id, tab_id, amount_paid, method, status, date_paid, recorded_by, created_at
		FROM payments
		WHERE id = $1`, id,
	).Scan(&p.ID, &p.TabID, &p.AmountPaid, &p.Method, &p.Status, &p.DatePaid, &p.RecordedBy, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrPaymentNotFound
	}
	return p, shared.TranslateStoreError(err)
}
