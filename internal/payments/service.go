package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/tavern-pos/tavern/internal/credit"
	"github.com/tavern-pos/tavern/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListByTab(ctx context.Context, tabID int64) ([]Payment, error)
	Get(ctx context.Context, id int64) (Payment, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Notifier sends best-effort messages off the transaction path.
type Notifier interface {
	Notify(ctx context.Context, message string, recipients []string)
}

// Service coordinates the payment ledger.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	notifier Notifier
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		audit:    audit,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PaymentResult reports the ledger row after a till interaction.
type PaymentResult struct {
	Payment     Payment                 `json:"payment"`
	Extension   *credit.CreditExtension `json:"extension,omitempty"`
	Outstanding float64                 `json:"outstanding"`
}

// RecordPayment applies one till interaction to a tab. The tab row is
// locked first so concurrent payments serialize; all credit checks run
// before any write. A tab keeps at most one open ledger row: further
// payments accumulate onto it until Classify reports it PAID.
func (s *Service) RecordPayment(ctx context.Context, input RecordPaymentInput) (PaymentResult, error) {
	if input.TabID == 0 {
		return PaymentResult{}, fmt.Errorf("%w: tab required", shared.ErrValidation)
	}
	if input.Amount < 0 {
		return PaymentResult{}, ErrInvalidAmount
	}
	if !input.ByCredit && input.Amount <= amountEpsilon {
		return PaymentResult{}, ErrZeroCashAmount
	}
	if input.Amount > amountEpsilon && !input.Method.Valid() {
		return PaymentResult{}, ErrInvalidMethod
	}
	if input.ByCredit && input.CreditCustomerID == 0 {
		return PaymentResult{}, ErrCreditCustomerRequired
	}
	now := s.now()

	var result PaymentResult
	var customer credit.CreditCustomer
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		totals, err := tx.LockTab(ctx, input.TabID)
		if err != nil {
			return err
		}
		outstanding := totals.Payable - totals.Paid
		if outstanding <= amountEpsilon {
			return ErrTabSettled
		}
		if input.Amount > outstanding+amountEpsilon {
			return fmt.Errorf("%w: outstanding %g, offered %g", ErrOverpayment, outstanding, input.Amount)
		}

		cumulative := totals.Paid + input.Amount
		status := Classify(cumulative, totals.Payable)

		var advance float64
		if input.ByCredit {
			advance = totals.Payable - input.Amount
			customer, err = tx.LockCreditCustomer(ctx, input.CreditCustomerID)
			if err != nil {
				return err
			}
			from, to := dayWindow(now)
			committed, err := tx.SumExtensionsBetween(ctx, customer.ID, from, to)
			if err != nil {
				return err
			}
			if err := credit.CheckAdvance(customer.CreditLimit, committed, advance); err != nil {
				return err
			}
		}

		payment, err := tx.OpenPayment(ctx, input.TabID)
		if err != nil {
			return err
		}
		if payment != nil {
			payment.AmountPaid += input.Amount
			if input.Method.Valid() {
				payment.Method = input.Method
			}
			payment.Status = status
			payment.DatePaid = now
			if err := tx.UpdatePayment(ctx, payment); err != nil {
				return err
			}
		} else {
			payment = &Payment{
				TabID:      input.TabID,
				AmountPaid: input.Amount,
				Method:     input.Method,
				Status:     status,
				DatePaid:   now,
				RecordedBy: shared.ActorName(ctx),
			}
			if err := tx.InsertPayment(ctx, payment); err != nil {
				return err
			}
		}

		result = PaymentResult{Payment: *payment, Outstanding: totals.Payable - cumulative}
		if input.ByCredit {
			ext := &credit.CreditExtension{
				PaymentID:  payment.ID,
				CustomerID: customer.ID,
				Amount:     advance,
				CreatedAt:  now,
			}
			if err := tx.InsertExtension(ctx, ext); err != nil {
				return err
			}
			if err := tx.SetTabCustomer(ctx, input.TabID, customer.Name, customer.Phone); err != nil {
				return err
			}
			result.Extension = ext
		}
		return nil
	})
	if err != nil {
		return PaymentResult{}, err
	}

	if result.Extension != nil && s.notifier != nil && customer.Phone != "" {
		msg := fmt.Sprintf("Hello %s, a credit of %.2f was recorded against your account. Outstanding balance today: %.2f.",
			customer.Name, result.Extension.Amount, result.Extension.Amount)
		s.notifier.Notify(ctx, msg, []string{customer.Phone})
	}
	s.recordAudit(ctx, "payments:recorded", result.Payment.ID, map[string]any{
		"tab_id": input.TabID,
		"amount": input.Amount,
		"status": result.Payment.Status,
		"credit": input.ByCredit,
	})
	return result, nil
}

// ListByTab returns the ledger rows of one tab.
func (s *Service) ListByTab(ctx context.Context, tabID int64) ([]Payment, error) {
	if tabID == 0 {
		return nil, fmt.Errorf("%w: tab required", shared.ErrValidation)
	}
	return s.repo.ListByTab(ctx, tabID)
}

// Get returns one ledger row.
func (s *Service) Get(ctx context.Context, id int64) (Payment, error) {
	if id == 0 {
		return Payment{}, fmt.Errorf("%w: payment required", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// dayWindow bounds the UTC day containing at. Credit committed inside
// the window counts against the customer's daily headroom.
func dayWindow(at time.Time) (time.Time, time.Time) {
	day := at.UTC().Truncate(24 * time.Hour)
	return day, day.Add(24 * time.Hour)
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Actor:    shared.ActorName(ctx),
		Action:   action,
		Entity:   "payment",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
}
