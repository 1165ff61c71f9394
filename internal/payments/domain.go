package payments

import (
	"fmt"
	"time"

	"github.com/tavern-pos/tavern/internal/shared"
)

var (
	ErrPaymentNotFound        = fmt.Errorf("%w: payment not found", shared.ErrNotFound)
	ErrInvalidAmount          = fmt.Errorf("%w: amount must not be negative", shared.ErrValidation)
	ErrZeroCashAmount         = fmt.Errorf("%w: amount must be positive for non-credit payments", shared.ErrValidation)
	ErrInvalidMethod          = fmt.Errorf("%w: unknown payment method", shared.ErrValidation)
	ErrOverpayment            = fmt.Errorf("%w: amount exceeds outstanding balance", shared.ErrValidation)
	ErrCreditCustomerRequired = fmt.Errorf("%w: credit payments require a credit customer", shared.ErrValidation)
	ErrTabSettled             = fmt.Errorf("%w: tab is already settled", shared.ErrConflict)
)

// Status classifies how much of a tab's payable has been covered.
type Status string

const (
	StatusUnpaid  Status = "UNPAID"
	StatusPartial Status = "PARTIAL"
	StatusPaid    Status = "PAID"
)

const amountEpsilon = 1e-9

// Classify is the single rule deciding a payment status from the
// cumulative amount paid against the amount payable. Every reader and
// writer of payment state goes through it.
func Classify(paid, payable float64) Status {
	switch {
	case paid <= amountEpsilon:
		return StatusUnpaid
	case paid+amountEpsilon >= payable:
		return StatusPaid
	default:
		return StatusPartial
	}
}

// ClassifyLabel adapts Classify for callers that carry the status as a
// plain string.
func ClassifyLabel(paid, payable float64) string {
	return string(Classify(paid, payable))
}

// Method enumerates how money changed hands.
type Method string

const (
	MethodCash        Method = "CASH"
	MethodMobileMoney Method = "MOBILE_MONEY"
	MethodCard        Method = "CARD"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodMobileMoney, MethodCard:
		return true
	}
	return false
}

// Payment is one ledger row against a tab. At most one row per tab is
// open (not yet PAID); further payments accumulate onto it so the
// ledger records settlement progress, not every till interaction.
type Payment struct {
	ID         int64     `json:"id"`
	TabID      int64     `json:"tab_id"`
	AmountPaid float64   `json:"amount_paid"`
	Method     Method    `json:"method"`
	Status     Status    `json:"status"`
	DatePaid   time.Time `json:"date_paid"`
	RecordedBy string    `json:"recorded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecordPaymentInput describes one till interaction. When ByCredit is
// set the unpaid remainder is covered by the named customer's credit;
// Amount may then be zero for a pure credit sale.
type RecordPaymentInput struct {
	TabID            int64
	Amount           float64
	Method           Method
	ByCredit         bool
	CreditCustomerID int64
}
