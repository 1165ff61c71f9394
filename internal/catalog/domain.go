package catalog

import (
	"fmt"
	"time"

	"github.com/tavern-pos/tavern/internal/shared"
)

// Unit enumerates supported units of measure for stocked items.
type Unit string

const (
	UnitKilogram Unit = "KILOGRAM"
	UnitLitre    Unit = "LITRE"
	UnitCrate    Unit = "CRATE"
	UnitCarton   Unit = "CARTON"
	UnitPiece    Unit = "PIECE"
	UnitTray     Unit = "TRAY"
)

var validUnits = map[Unit]bool{
	UnitKilogram: true,
	UnitLitre:    true,
	UnitCrate:    true,
	UnitCarton:   true,
	UnitPiece:    true,
	UnitTray:     true,
}

// Valid reports whether the unit is a known measure.
func (u Unit) Valid() bool { return validUnits[u] }

// Item is a stocked product (bar side). Immutable once referenced by a batch.
type Item struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Unit      Unit      `json:"unit"`
	CreatedAt time.Time `json:"created_at"`
}

// Dish is a priced restaurant menu entry.
type Dish struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrItemNotFound = fmt.Errorf("%w: item", shared.ErrNotFound)
	ErrDishNotFound = fmt.Errorf("%w: dish", shared.ErrNotFound)
	ErrInvalidUnit  = fmt.Errorf("%w: unknown unit of measure", shared.ErrValidation)
	ErrNameRequired = fmt.Errorf("%w: name is required", shared.ErrValidation)
	ErrInvalidPrice = fmt.Errorf("%w: price must not be negative", shared.ErrValidation)
	ErrItemInUse    = fmt.Errorf("%w: item is referenced by inventory", shared.ErrConflict)
)
