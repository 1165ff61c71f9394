package credit

import (
	"fmt"
	"time"

	"github.com/tavern-pos/tavern/internal/shared"
)

var (
	ErrCustomerNotFound  = fmt.Errorf("%w: credit customer", shared.ErrNotFound)
	ErrExtensionNotFound = fmt.Errorf("%w: credit extension", shared.ErrNotFound)
	ErrNameRequired      = fmt.Errorf("%w: name is required", shared.ErrValidation)
	ErrInvalidLimit      = fmt.Errorf("%w: credit limit must not be negative", shared.ErrValidation)
	ErrInvalidAmount     = fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	ErrLimitExceeded     = fmt.Errorf("%w: advance exceeds credit limit", shared.ErrValidation)
	ErrDailyLimitReached = fmt.Errorf("%w: credit already extended today leaves no room for this advance", shared.ErrValidation)
	ErrOverRepayment     = fmt.Errorf("%w: repayment exceeds outstanding credit", shared.ErrConflict)
)

// CreditCustomer is a regular allowed to take drinks on credit up to a
// daily limit.
type CreditCustomer struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	CreditLimit float64   `json:"credit_limit"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreditExtension links a payment to the customer whose credit covered
// its shortfall. Amount is the credit granted at payment time;
// AmountRepaid accumulates repayments and never exceeds Amount.
type CreditExtension struct {
	ID           int64     `json:"id"`
	PaymentID    int64     `json:"payment_id"`
	CustomerID   int64     `json:"customer_id"`
	Amount       float64   `json:"amount"`
	AmountRepaid float64   `json:"amount_repaid"`
	CreatedAt    time.Time `json:"created_at"`
}

// Outstanding is the credit still owed on the extension.
func (e CreditExtension) Outstanding() float64 {
	return e.Amount - e.AmountRepaid
}

// RepaymentHistory records one instalment against an extension.
type RepaymentHistory struct {
	ID          int64     `json:"id"`
	ExtensionID int64     `json:"extension_id"`
	Amount      float64   `json:"amount"`
	RecordedBy  string    `json:"recorded_by"`
	RecordedAt  time.Time `json:"recorded_at"`
}

type NewCustomerInput struct {
	Name        string
	Phone       string
	CreditLimit float64
}

type RepayInput struct {
	ExtensionID int64
	Amount      float64
}
