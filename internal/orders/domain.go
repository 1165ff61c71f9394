package orders

import (
	"fmt"
	"time"

	"github.com/tavern-pos/tavern/internal/shared"
)

var (
	ErrTabNotFound     = fmt.Errorf("%w: tab not found", shared.ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("%w: order not found", shared.ErrNotFound)
	ErrNoLines         = fmt.Errorf("%w: at least one order line is required", shared.ErrValidation)
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be positive", shared.ErrValidation)
	ErrInvalidShots    = fmt.Errorf("%w: shots per container must be positive", shared.ErrValidation)
	ErrLineTarget      = fmt.Errorf("%w: order line must reference either an item or a dish", shared.ErrValidation)
)

// PricingKind selects how an order line's total is derived from its
// quantity and the captured price.
type PricingKind string

const (
	PricingUnit PricingKind = "UNIT"
	PricingShot PricingKind = "SHOT"
)

// Order is a single immutable line on a tab. Bar lines reference the
// stock batch they were served from; kitchen lines reference a dish.
// Corrections are made by appending new lines, never by editing.
type Order struct {
	ID          int64       `json:"id"`
	TabID       int64       `json:"tab_id"`
	BatchID     *int64      `json:"batch_id,omitempty"`
	DishID      *int64      `json:"dish_id,omitempty"`
	Description string      `json:"description"`
	Pricing     PricingKind `json:"pricing"`
	Quantity    float64     `json:"quantity"`
	UnitPrice   float64     `json:"unit_price"`
	Shots       float64     `json:"shots_per_container,omitempty"`
	Total       float64     `json:"total"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Tab groups the orders of one customer visit. Totals are derived on
// read from the order lines and the payment ledger, never stored.
type Tab struct {
	ID             int64     `json:"id"`
	Number         string    `json:"number"`
	CustomerName   string    `json:"customer_name,omitempty"`
	CustomerPhone  string    `json:"customer_phone,omitempty"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	Orders         []Order   `json:"orders,omitempty"`
	TotalPayable   float64   `json:"total_payable"`
	TotalPaid      float64   `json:"total_paid"`
	TotalRemaining float64   `json:"total_remaining"`
	PaymentStatus  string    `json:"payment_status"`
}

// LineInput describes one requested line. Exactly one of ItemID and
// DishID must be set. For item lines Quantity is counted in containers
// and the line may be shot-priced; for dish lines it is portions.
type LineInput struct {
	ItemID            int64
	DishID            int64
	Quantity          float64
	ShotsPerContainer float64
}

type CreateTabInput struct {
	CustomerName  string
	CustomerPhone string
	Lines         []LineInput
}

type TabFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}
