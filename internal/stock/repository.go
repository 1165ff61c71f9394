package stock

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tavern-pos/tavern/internal/platform/db"
	"github.com/tavern-pos/tavern/internal/shared"
)

// Repository persists stock data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service and by
// order creation, which depletes stock inside its own transaction.
type TxRepository interface {
	LockBatches(ctx context.Context, itemID int64) ([]Batch, error)
	LockBatch(ctx context.Context, batchID int64) (Batch, error)
	ApplyConsumption(ctx context.Context, c Consumption, now time.Time) (Batch, error)
	InsertBatch(ctx context.Context, b Batch) (int64, error)
	InsertBreakage(ctx context.Context, br Breakage) (int64, error)
	InsertStockOut(ctx context.Context, so StockOut) (int64, error)
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository wraps an open transaction. Order creation uses this to run
// depletion and order inserts as one atomic unit.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("stock repository not initialised")
	}
	return shared.TranslateStoreError(db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	}))
}

const batchColumns = `id, item_id, total_quantity, available_quantity, purchasing_price, selling_price, threshold, stock_status, date_purchased, date_perished, created_at`

func scanBatch(row pgx.Row) (Batch, error) {
	var b Batch
	var perished pgtype.Timestamptz
	err := row.Scan(&b.ID, &b.ItemID, &b.TotalQuantity, &b.AvailableQuantity, &b.PurchasingPrice, &b.SellingPrice, &b.Threshold, &b.Status, &b.DatePurchased, &perished, &b.CreatedAt)
	if err != nil {
		return Batch{}, err
	}
	if perished.Valid {
		t := perished.Time
		b.DatePerished = &t
	}
	return b, nil
}

// LockBatches loads all batches of one item in insertion order and takes row
// locks, serialising concurrent depletions per trunk.
func (r *txRepository) LockBatches(ctx context.Context, itemID int64) ([]Batch, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+batchColumns+` FROM stock_batches WHERE item_id = $1 ORDER BY id FOR UPDATE`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, ErrTrunkNotFound
	}
	return batches, nil
}

func (r *txRepository) LockBatch(ctx context.Context, batchID int64) (Batch, error) {
	b, err := scanBatch(r.tx.QueryRow(ctx, `SELECT `+batchColumns+` FROM stock_batches WHERE id = $1 FOR UPDATE`, batchID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Batch{}, ErrBatchNotFound
	}
	return b, err
}

// ApplyConsumption decrements one batch and, when it drains, stamps the
// unavailable status and perish date in the same UPDATE so the transition
// happens exactly once.
func (r *txRepository) ApplyConsumption(ctx context.Context, c Consumption, now time.Time) (Batch, error) {
	var row pgx.Row
	if c.Drained {
		row = r.tx.QueryRow(ctx, `UPDATE stock_batches
			SET available_quantity = 0, stock_status = 'UNAVAILABLE', date_perished = $3
			WHERE id = $1 AND stock_status = 'AVAILABLE' AND available_quantity >= $2 - 1e-9
			RETURNING `+batchColumns, c.BatchID, c.Quantity, now)
	} else {
		row = r.tx.QueryRow(ctx, `UPDATE stock_batches
			SET available_quantity = available_quantity - $2
			WHERE id = $1 AND stock_status = 'AVAILABLE' AND available_quantity >= $2
			RETURNING `+batchColumns, c.BatchID, c.Quantity)
	}
	b, err := scanBatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Batch{}, ErrBatchUnavailable
	}
	return b, err
}

func (r *txRepository) InsertBatch(ctx context.Context, b Batch) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO stock_batches (item_id, total_quantity, available_quantity, purchasing_price, selling_price, threshold, stock_status, date_purchased, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id`,
		b.ItemID, b.TotalQuantity, b.AvailableQuantity, b.PurchasingPrice, b.SellingPrice, b.Threshold, b.Status, b.DatePurchased,
	).Scan(&id)
	return id, err
}

func (r *txRepository) InsertBreakage(ctx context.Context, br Breakage) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO stock_breakages (batch_id, quantity, reason, recorded_by, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		br.BatchID, br.Quantity, br.Reason, br.RecordedBy, br.RecordedAt,
	).Scan(&id)
	return id, err
}

func (r *txRepository) InsertStockOut(ctx context.Context, so StockOut) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO stock_outs (code, item_id, quantity, reason, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		so.Code, so.ItemID, so.Quantity, so.Reason, so.CreatedBy, so.CreatedAt,
	).Scan(&id)
	return id, err
}

// GetTrunk summarises all batches for one item.
func (r *Repository) GetTrunk(ctx context.Context, itemID int64) (Trunk, error) {
	if r == nil {
		return Trunk{}, errors.New("stock repository not initialised")
	}
	var trunk Trunk
	err := r.pool.QueryRow(ctx, `SELECT id, name, unit FROM items WHERE id = $1`, itemID).Scan(&trunk.ItemID, &trunk.ItemName, &trunk.Unit)
	if errors.Is(err, pgx.ErrNoRows) {
		return Trunk{}, ErrTrunkNotFound
	}
	if err != nil {
		return Trunk{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+batchColumns+` FROM stock_batches WHERE item_id = $1 ORDER BY id`, itemID)
	if err != nil {
		return Trunk{}, err
	}
	defer rows.Close()
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return Trunk{}, err
		}
		trunk.Batches = append(trunk.Batches, b)
		trunk.TotalAdded += b.TotalQuantity
		trunk.TotalAvailable += b.AvailableQuantity
	}
	if err := rows.Err(); err != nil {
		return Trunk{}, err
	}
	trunk.Status = StatusUnavailable
	if trunk.TotalAvailable > 0 {
		trunk.Status = StatusAvailable
	}
	return trunk, nil
}

// ListTrunks summarises every item that has at least one batch.
func (r *Repository) ListTrunks(ctx context.Context) ([]Trunk, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.name, i.unit,
		       COALESCE(SUM(b.total_quantity), 0),
		       COALESCE(SUM(b.available_quantity), 0)
		FROM items i
		JOIN stock_batches b ON b.item_id = i.id
		GROUP BY i.id, i.name, i.unit
		ORDER BY i.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trunks []Trunk
	for rows.Next() {
		var t Trunk
		if err := rows.Scan(&t.ItemID, &t.ItemName, &t.Unit, &t.TotalAdded, &t.TotalAvailable); err != nil {
			return nil, err
		}
		t.Status = StatusUnavailable
		if t.TotalAvailable > 0 {
			t.Status = StatusAvailable
		}
		trunks = append(trunks, t)
	}
	return trunks, rows.Err()
}

// GetBatch loads a single batch.
func (r *Repository) GetBatch(ctx context.Context, batchID int64) (Batch, error) {
	b, err := scanBatch(r.pool.QueryRow(ctx, `SELECT `+batchColumns+` FROM stock_batches WHERE id = $1`, batchID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Batch{}, ErrBatchNotFound
	}
	return b, err
}

// ListBreakages lists spoilage events for one batch, newest first.
func (r *Repository) ListBreakages(ctx context.Context, batchID int64) ([]Breakage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, batch_id, quantity, reason, recorded_by, recorded_at
		FROM stock_breakages WHERE batch_id = $1 ORDER BY id DESC`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var breakages []Breakage
	for rows.Next() {
		var br Breakage
		if err := rows.Scan(&br.ID, &br.BatchID, &br.Quantity, &br.Reason, &br.RecordedBy, &br.RecordedAt); err != nil {
			return nil, err
		}
		breakages = append(breakages, br)
	}
	return breakages, rows.Err()
}
