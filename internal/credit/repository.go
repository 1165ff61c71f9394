package credit

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tavern-pos/tavern/internal/platform/db"
	"github.com/tavern-pos/tavern/internal/shared"
)

// PaymentState is the locked view of the payment row an extension
// hangs off, taken inside the repayment transaction.
type PaymentState struct {
	PaymentID  int64
	TabID      int64
	AmountPaid float64
}

// TxRepository is the write surface inside a repayment transaction.
type TxRepository interface {
	LockExtension(ctx context.Context, id int64) (CreditExtension, error)
	LockPayment(ctx context.Context, paymentID int64) (PaymentState, error)
	TabTotals(ctx context.Context, tabID int64) (payable, paid float64, err error)
	UpdatePayment(ctx context.Context, paymentID int64, amountPaid float64, status string) error
	UpdateExtensionRepaid(ctx context.Context, id int64, amountRepaid float64) error
	InsertHistory(ctx context.Context, h *RepaymentHistory) error
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

func (t *txRepository) LockExtension(ctx context.Context, id int64) (CreditExtension, error) {
	var e CreditExtension
	err := t.tx.QueryRow(ctx, `
		SELECT id, payment_id, customer_id, amount, amount_repaid, created_at
		FROM credit_extensions
		WHERE id = $1
		FOR UPDATE`, id,
	).Scan(&e.ID, &e.PaymentID, &e.CustomerID, &e.Amount, &e.AmountRepaid, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CreditExtension{}, ErrExtensionNotFound
	}
	return e, err
}

func (t *txRepository) LockPayment(ctx context.Context, paymentID int64) (PaymentState, error) {
	var p PaymentState
	err := t.tx.QueryRow(ctx, `
		SELECT id, tab_id, amount_paid
		FROM payments
		WHERE id = $1
		FOR UPDATE`, paymentID,
	).Scan(&p.PaymentID, &p.TabID, &p.AmountPaid)
	return p, err
}

func (t *txRepository) TabTotals(ctx context.Context, tabID int64) (float64, float64, error) {
	var payable, paid float64
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE((SELECT SUM(o.total) FROM orders o WHERE o.tab_id = $1), 0),
		       COALESCE((SELECT SUM(p.amount_paid) FROM payments p WHERE p.tab_id = $1), 0)`,
		tabID,
	).Scan(&payable, &paid)
	return payable, paid, err
}

func (t *txRepository) UpdatePayment(ctx context.Context, paymentID int64, amountPaid float64, status string) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE payments SET amount_paid = $2, status = $3, date_paid = NOW() WHERE id = $1`,
		paymentID, amountPaid, status)
	return err
}

func (t *txRepository) UpdateExtensionRepaid(ctx context.Context, id int64, amountRepaid float64) error {
	_, err := t.tx.Exec(ctx, `UPDATE credit_extensions SET amount_repaid = $2 WHERE id = $1`, id, amountRepaid)
	return err
}

func (t *txRepository) InsertHistory(ctx context.Context, h *RepaymentHistory) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO credit_repayments (extension_id, amount, recorded_by, recorded_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		h.ExtensionID, h.Amount, h.RecordedBy, h.RecordedAt,
	).Scan(&h.ID)
}

const customerColumns = `id, name, COALESCE(phone, ''), credit_limit, created_at`

func (r *Repository) InsertCustomer(ctx context.Context, c *CreditCustomer) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO credit_customers (name, phone, credit_limit, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at`,
		c.Name, c.Phone, c.CreditLimit,
	).Scan(&c.ID, &c.CreatedAt)
	return shared.TranslateStoreError(err)
}

func (r *Repository) GetCustomer(ctx context.Context, id int64) (CreditCustomer, error) {
	var c CreditCustomer
	err := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM credit_customers WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Phone, &c.CreditLimit, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CreditCustomer{}, ErrCustomerNotFound
	}
	return c, shared.TranslateStoreError(err)
}

func (r *Repository) ListCustomers(ctx context.Context) ([]CreditCustomer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+customerColumns+` FROM credit_customers ORDER BY name`)
	if err != nil {
		return nil, shared.TranslateStoreError(err)
	}
	defer rows.Close()

	out := make([]CreditCustomer, 0)
	for rows.Next() {
		var c CreditCustomer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.CreditLimit, &c.CreatedAt); err != nil {
			return nil, shared.TranslateStoreError(err)
		}
		out = append(out, c)
	}
	return out, shared.TranslateStoreError(rows.Err())
}

func (r *Repository) UpdateCustomer(ctx context.Context, c CreditCustomer) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE credit_customers SET name = $2, phone = $3, credit_limit = $4 WHERE id = $1`,
		c.ID, c.Name, c.Phone, c.CreditLimit)
	if err != nil {
		return shared.TranslateStoreError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (r *Repository) GetExtension(ctx context.Context, id int64) (CreditExtension, error) {
	var e CreditExtension
	err := r.pool.QueryRow(ctx, `
		SELECT id, payment_id, customer_id, amount, amount_repaid, created_at
		FROM credit_extensions
		WHERE id = $1`, id,
	).Scan(&e.ID, &e.PaymentID, &e.CustomerID, &e.Amount, &e.AmountRepaid, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CreditExtension{}, ErrExtensionNotFound
	}
	return e, shared.TranslateStoreError(err)
}

func (r *Repository) ListExtensions(ctx context.Context, customerID int64, outstandingOnly bool) ([]CreditExtension, error) {
	q := `
		SELECT id, payment_id, customer_id, amount, amount_repaid, created_at
		FROM credit_extensions
		WHERE customer_id = $1`
	if outstandingOnly {
		q += ` AND amount_repaid < amount`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, q, customerID)
	if err != nil {
		return nil, shared.TranslateStoreError(err)
	}
	defer rows.Close()

	out := make([]CreditExtension, 0)
	for rows.Next() {
		var e CreditExtension
		if err := rows.Scan(&e.ID, &e.PaymentID, &e.CustomerID, &e.Amount, &e.AmountRepaid, &e.CreatedAt); err != nil {
			return nil, shared.TranslateStoreError(err)
		}
		out = append(out, e)
	}
	return out, shared.TranslateStoreError(rows.Err())
}

func (r *Repository) ListHistory(ctx context.Context, extensionID int64) ([]RepaymentHistory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, extension_id, amount, recorded_by, recorded_at
		FROM credit_repayments
		WHERE extension_id = $1
		ORDER BY id`, extensionID)
	if err != nil {
		return nil, shared.TranslateStoreError(err)
	}
	defer rows.Close()

	out := make([]RepaymentHistory, 0)
	for rows.Next() {
		var h RepaymentHistory
		if err := rows.Scan(&h.ID, &h.ExtensionID, &h.Amount, &h.RecordedBy, &h.RecordedAt); err != nil {
			return nil, shared.TranslateStoreError(err)
		}
		out = append(out, h)
	}
	return out, shared.TranslateStoreError(rows.Err())
}
