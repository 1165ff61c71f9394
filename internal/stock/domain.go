package stock

import (
	"fmt"
	"time"

	"github.com/tavern-pos/tavern/internal/shared"
)

// Status enumerates batch availability states.
type Status string

const (
	// StatusAvailable means the batch still has sellable quantity.
	StatusAvailable Status = "AVAILABLE"
	// StatusUnavailable means the batch is fully consumed or written off.
	// The transition is terminal; a trunk only recovers through a new batch.
	StatusUnavailable Status = "UNAVAILABLE"
)

// Batch models one purchased lot of an item. AvailableQuantity starts equal
// to TotalQuantity and only ever decreases.
type Batch struct {
	ID                int64      `json:"id"`
	ItemID            int64      `json:"item_id"`
	TotalQuantity     float64    `json:"total_quantity"`
	AvailableQuantity float64    `json:"available_quantity"`
	PurchasingPrice   float64    `json:"purchasing_price"`
	SellingPrice      float64    `json:"selling_price"`
	Threshold         float64    `json:"threshold"`
	Status            Status     `json:"status"`
	DatePurchased     time.Time  `json:"date_purchased"`
	DatePerished      *time.Time `json:"date_perished,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Trunk aggregates all batches of one item. The totals are derived, never
// stored.
type Trunk struct {
	ItemID         int64   `json:"item_id"`
	ItemName       string  `json:"item_name"`
	Unit           string  `json:"unit"`
	TotalAdded     float64 `json:"total_added"`
	TotalAvailable float64 `json:"total_available"`
	Status         Status  `json:"status"`
	Batches        []Batch `json:"batches,omitempty"`
}

// Breakage records a spoilage event against exactly one batch.
type Breakage struct {
	ID         int64     `json:"id"`
	BatchID    int64     `json:"batch_id"`
	Quantity   float64   `json:"quantity"`
	Reason     string    `json:"reason,omitempty"`
	RecordedBy string    `json:"recorded_by"`
	RecordedAt time.Time `json:"recorded_at"`
}

// StockOut is the header row of a standalone depletion call.
type StockOut struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	ItemID    int64     `json:"item_id"`
	Quantity  float64   `json:"quantity"`
	Reason    string    `json:"reason,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Consumption reports how much was taken from one batch.
type Consumption struct {
	BatchID  int64   `json:"batch_id"`
	Quantity float64 `json:"quantity"`
	Drained  bool    `json:"drained"`
}

// NewBatchInput describes a purchase entry.
type NewBatchInput struct {
	ItemID          int64
	TotalQuantity   float64
	PurchasingPrice float64
	SellingPrice    float64
	Threshold       float64
	DatePurchased   time.Time
}

// StockOutInput describes a standalone depletion request.
type StockOutInput struct {
	ItemID   int64
	Quantity float64
	Reason   string
	Code     string
}

// BreakageInput describes a spoilage report against one batch.
type BreakageInput struct {
	BatchID  int64
	Quantity float64
	Reason   string
}

// Domain errors, wrapping the shared taxonomy.
var (
	ErrInvalidQuantity   = fmt.Errorf("%w: quantity must be greater than zero", shared.ErrValidation)
	ErrInvalidPrice      = fmt.Errorf("%w: price must not be negative", shared.ErrValidation)
	ErrThresholdTooHigh  = fmt.Errorf("%w: threshold must be below total quantity", shared.ErrValidation)
	ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", shared.ErrConflict)
	ErrBatchUnavailable  = fmt.Errorf("%w: batch is unavailable", shared.ErrConflict)
	ErrBatchNotFound     = fmt.Errorf("%w: batch", shared.ErrNotFound)
	ErrTrunkNotFound     = fmt.Errorf("%w: no batches for item", shared.ErrNotFound)
)
