package catalog

import (
	"context"
	"strings"
)

// RepositoryPort defines data access methods for the catalog.
type RepositoryPort interface {
	CreateItem(ctx context.Context, item Item) (Item, error)
	GetItem(ctx context.Context, id int64) (Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	ItemHasBatches(ctx context.Context, id int64) (bool, error)
	DeleteItem(ctx context.Context, id int64) error
	CreateDish(ctx context.Context, dish Dish) (Dish, error)
	GetDish(ctx context.Context, id int64) (Dish, error)
	ListDishes(ctx context.Context) ([]Dish, error)
	UpdateDishPrice(ctx context.Context, id int64, price float64) error
}

// Service handles catalog business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateItem registers a new stocked item.
func (s *Service) CreateItem(ctx context.Context, name string, unit Unit) (Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Item{}, ErrNameRequired
	}
	if !unit.Valid() {
		return Item{}, ErrInvalidUnit
	}
	return s.repo.CreateItem(ctx, Item{Name: name, Unit: unit})
}

// GetItem returns one item.
func (s *Service) GetItem(ctx context.Context, id int64) (Item, error) {
	return s.repo.GetItem(ctx, id)
}

// ListItems returns all items.
func (s *Service) ListItems(ctx context.Context) ([]Item, error) {
	return s.repo.ListItems(ctx)
}

// DeleteItem removes an item unless inventory references it.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	inUse, err := s.repo.ItemHasBatches(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return ErrItemInUse
	}
	return s.repo.DeleteItem(ctx, id)
}

// CreateDish registers a priced menu entry.
func (s *Service) CreateDish(ctx context.Context, name string, price float64) (Dish, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Dish{}, ErrNameRequired
	}
	if price < 0 {
		return Dish{}, ErrInvalidPrice
	}
	return s.repo.CreateDish(ctx, Dish{Name: name, Price: price})
}

// GetDish returns one dish.
func (s *Service) GetDish(ctx context.Context, id int64) (Dish, error) {
	return s.repo.GetDish(ctx, id)
}

// ListDishes returns all dishes.
func (s *Service) ListDishes(ctx context.Context) ([]Dish, error) {
	return s.repo.ListDishes(ctx)
}

// UpdateDishPrice changes a dish's price.
func (s *Service) UpdateDishPrice(ctx context.Context, id int64, price float64) error {
	if price < 0 {
		return ErrInvalidPrice
	}
	return s.repo.UpdateDishPrice(ctx, id, price)
}
