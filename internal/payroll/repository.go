package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tavern-pos/tavern/internal/shared"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) InsertEntry(ctx context.Context, e *Entry) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payroll_entries (employee_name, role, amount, paid_at, recorded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at`,
		e.EmployeeName, e.Role, e.Amount, e.PaidAt, e.RecordedBy,
	).Scan(&e.ID, &e.CreatedAt)
	return shared.TranslateStoreError(err)
}

func (r *Repository) GetEntry(ctx context.Context, id int64) (Entry, error) {
	var e Entry
	err := r.pool.QueryRow(ctx, `
		SELECT id, employee_name, COALESCE(role, ''), amount, paid_at, recorded_by, created_at
		FROM payroll_entries
		WHERE id = $1`, id,
	).Scan(&e.ID, &e.EmployeeName, &e.Role, &e.Amount, &e.PaidAt, &e.RecordedBy, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	return e, shared.TranslateStoreError(err)
}

func (r *Repository) ListEntries(ctx context.Context, from, to time.Time) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, employee_name, COALESCE(role, ''), amount, paid_at, recorded_by, created_at
		FROM payroll_entries
		WHERE paid_at >= $1 AND paid_at < $2
		ORDER BY paid_at DESC, id DESC`, from, to)
	if err != nil {
		return nil, shared.TranslateStoreError(err)
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EmployeeName, &e.Role, &e.Amount, &e.PaidAt, &e.RecordedBy, &e.CreatedAt); err != nil {
			return nil, shared.TranslateStoreError(err)
		}
		out = append(out, e)
	}
	return out, shared.TranslateStoreError(rows.Err())
}

func (r *Repository) InsertExpenditure(ctx context.Context, e *Expenditure) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO expenditures (description, category, amount, spent_at, recorded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at`,
		e.Description, e.Category, e.Amount, e.SpentAt, e.RecordedBy,
	).Scan(&e.ID, &e.CreatedAt)
	return shared.TranslateStoreError(err)
}

func (r *Repository) GetExpenditure(ctx context.Context, id int64) (Expenditure, error) {
	var e Expenditure
	err := r.pool.QueryRow(ctx, `
		SELECT id, description, COALESCE(category, ''), amount, spent_at, recorded_by, created_at
		FROM expenditures
		WHERE id = $1`, id,
	).Scan(&e.ID, &e.Description, &e.Category, &e.Amount, &e.SpentAt, &e.RecordedBy, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Expenditure{}, ErrExpenditureNotFound
	}
	return e, shared.TranslateStoreError(err)
}

func (r *Repository) ListExpenditures(ctx context.Context, from, to time.Time) ([]Expenditure, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, description, COALESCE(category, ''), amount, spent_at, recorded_by, created_at
		FROM expenditures
		WHERE spent_at >= $1 AND spent_at < $2
		ORDER BY spent_at DESC, id DESC`, from, to)
	if err != nil {
		return nil, shared.TranslateStoreError(err)
	}
	defer rows.Close()

	out := make([]Expenditure, 0)
	for rows.Next() {
		var e Expenditure
		if err := rows.Scan(&e.ID, &e.Description, &e.Category, &e.Amount, &e.SpentAt, &e.RecordedBy, &e.CreatedAt); err != nil {
			return nil, shared.TranslateStoreError(err)
		}
		out = append(out, e)
	}
	return out, shared.TranslateStoreError(rows.Err())
}
