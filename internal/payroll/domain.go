package payroll

import (
	"fmt"
	"time"

	"github.com/tavern-pos/tavern/internal/shared"
)

var (
	ErrEntryNotFound       = fmt.Errorf("%w: payroll entry", shared.ErrNotFound)
	ErrExpenditureNotFound = fmt.Errorf("%w: expenditure", shared.ErrNotFound)
	ErrNameRequired        = fmt.Errorf("%w: employee name is required", shared.ErrValidation)
	ErrDescriptionRequired = fmt.Errorf("%w: description is required", shared.ErrValidation)
	ErrInvalidAmount       = fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
)

// Entry is one wage payment to a member of staff.
type Entry struct {
	ID           int64     `json:"id"`
	EmployeeName string    `json:"employee_name"`
	Role         string    `json:"role,omitempty"`
	Amount       float64   `json:"amount"`
	PaidAt       time.Time `json:"paid_at"`
	RecordedBy   string    `json:"recorded_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// Expenditure is a non-payroll operating expense: gas refills, repairs,
// county levies and the like.
type Expenditure struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Category    string    `json:"category,omitempty"`
	Amount      float64   `json:"amount"`
	SpentAt     time.Time `json:"spent_at"`
	RecordedBy  string    `json:"recorded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type NewEntryInput struct {
	EmployeeName string
	Role         string
	Amount       float64
	PaidAt       time.Time
}

type NewExpenditureInput struct {
	Description string
	Category    string
	Amount      float64
	SpentAt     time.Time
}
