package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tavern-pos/tavern/internal/shared"
)

// Repository persists catalog data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateItem inserts an item; names are unique.
func (r *Repository) CreateItem(ctx context.Context, item Item) (Item, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO items (name, unit, created_at) VALUES ($1, $2, NOW())
		RETURNING id, created_at`, item.Name, item.Unit,
	).Scan(&item.ID, &item.CreatedAt)
	return item, shared.TranslateStoreError(err)
}

// GetItem loads one item.
func (r *Repository) GetItem(ctx context.Context, id int64) (Item, error) {
	var item Item
	err := r.pool.QueryRow(ctx, `SELECT id, name, unit, created_at FROM items WHERE id = $1`, id).
		Scan(&item.ID, &item.Name, &item.Unit, &item.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	return item, err
}

// ListItems lists all items alphabetically.
func (r *Repository) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, unit, created_at FROM items ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Unit, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ItemHasBatches reports whether inventory references the item.
func (r *Repository) ItemHasBatches(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stock_batches WHERE item_id = $1)`, id).Scan(&exists)
	return exists, err
}

// DeleteItem removes an unreferenced item.
func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return shared.TranslateStoreError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// CreateDish inserts a priced menu entry.
func (r *Repository) CreateDish(ctx context.Context, dish Dish) (Dish, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO dishes (name, price, created_at) VALUES ($1, $2, NOW())
		RETURNING id, created_at`, dish.Name, dish.Price,
	).Scan(&dish.ID, &dish.CreatedAt)
	return dish, shared.TranslateStoreError(err)
}

// GetDish loads one dish.
func (r *Repository) GetDish(ctx context.Context, id int64) (Dish, error) {
	var dish Dish
	err := r.pool.QueryRow(ctx, `SELECT id, name, price, created_at FROM dishes WHERE id = $1`, id).
		Scan(&dish.ID, &dish.Name, &dish.Price, &dish.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Dish{}, ErrDishNotFound
	}
	return dish, err
}

// ListDishes lists all dishes alphabetically.
func (r *Repository) ListDishes(ctx context.Context) ([]Dish, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, price, created_at FROM dishes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dishes []Dish
	for rows.Next() {
		var dish Dish
		if err := rows.Scan(&dish.ID, &dish.Name, &dish.Price, &dish.CreatedAt); err != nil {
			return nil, err
		}
		dishes = append(dishes, dish)
	}
	return dishes, rows.Err()
}

// UpdateDishPrice changes a dish's price.
func (r *Repository) UpdateDishPrice(ctx context.Context, id int64, price float64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE dishes SET price = $2 WHERE id = $1`, id, price)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDishNotFound
	}
	return nil
}
