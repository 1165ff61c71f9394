package credit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tavern-pos/tavern/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	InsertCustomer(ctx context.Context, c *CreditCustomer) error
	GetCustomer(ctx context.Context, id int64) (CreditCustomer, error)
	ListCustomers(ctx context.Context) ([]CreditCustomer, error)
	UpdateCustomer(ctx context.Context, c CreditCustomer) error
	GetExtension(ctx context.Context, id int64) (CreditExtension, error)
	ListExtensions(ctx context.Context, customerID int64, outstandingOnly bool) ([]CreditExtension, error)
	ListHistory(ctx context.Context, extensionID int64) ([]RepaymentHistory, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Notifier sends best-effort messages off the transaction path.
type Notifier interface {
	Notify(ctx context.Context, message string, recipients []string)
}

// Classifier derives a payment status label from cumulative paid and
// payable amounts. Wired from the payments package so the repayment
// cascade and the ledger agree on one rule.
type Classifier func(paid, payable float64) string

// Service manages credit customers and the repayment cascade.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	notifier Notifier
	classify Classifier
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, notifier Notifier, classify Classifier) *Service {
	return &Service{
		repo:     repo,
		audit:    audit,
		notifier: notifier,
		classify: classify,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateCustomer registers a regular who may take drinks on credit.
func (s *Service) CreateCustomer(ctx context.Context, input NewCustomerInput) (CreditCustomer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return CreditCustomer{}, ErrNameRequired
	}
	if input.CreditLimit < 0 {
		return CreditCustomer{}, ErrInvalidLimit
	}
	customer := CreditCustomer{Name: name, Phone: strings.TrimSpace(input.Phone), CreditLimit: input.CreditLimit}
	if err := s.repo.InsertCustomer(ctx, &customer); err != nil {
		return CreditCustomer{}, err
	}
	s.recordAudit(ctx, "credit:customer-created", customer.ID, map[string]any{"name": customer.Name})
	return customer, nil
}

// UpdateCustomer changes a customer's contact or limit.
func (s *Service) UpdateCustomer(ctx context.Context, c CreditCustomer) (CreditCustomer, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.ID == 0 {
		return CreditCustomer{}, fmt.Errorf("%w: customer required", shared.ErrValidation)
	}
	if c.Name == "" {
		return CreditCustomer{}, ErrNameRequired
	}
	if c.CreditLimit < 0 {
		return CreditCustomer{}, ErrInvalidLimit
	}
	if err := s.repo.UpdateCustomer(ctx, c); err != nil {
		return CreditCustomer{}, err
	}
	return s.repo.GetCustomer(ctx, c.ID)
}

// GetCustomer returns one credit customer.
func (s *Service) GetCustomer(ctx context.Context, id int64) (CreditCustomer, error) {
	if id == 0 {
		return CreditCustomer{}, fmt.Errorf("%w: customer required", shared.ErrValidation)
	}
	return s.repo.GetCustomer(ctx, id)
}

// ListCustomers returns all credit customers.
func (s *Service) ListCustomers(ctx context.Context) ([]CreditCustomer, error) {
	return s.repo.ListCustomers(ctx)
}

// ListExtensions returns a customer's extensions, optionally only the
// ones still owing.
func (s *Service) ListExtensions(ctx context.Context, customerID int64, outstandingOnly bool) ([]CreditExtension, error) {
	if customerID == 0 {
		return nil, fmt.Errorf("%w: customer required", shared.ErrValidation)
	}
	return s.repo.ListExtensions(ctx, customerID, outstandingOnly)
}

// ListHistory returns the instalments recorded against one extension.
func (s *Service) ListHistory(ctx context.Context, extensionID int64) ([]RepaymentHistory, error) {
	if extensionID == 0 {
		return nil, fmt.Errorf("%w: extension required", shared.ErrValidation)
	}
	return s.repo.ListHistory(ctx, extensionID)
}

// RepayResult reports the cascade outcome of one instalment.
type RepayResult struct {
	History       RepaymentHistory `json:"history"`
	Extension     CreditExtension  `json:"extension"`
	PaymentStatus string           `json:"payment_status"`
}

// Repay records one instalment against an extension. The history row,
// the extension's repaid total and the parent payment move together in
// one transaction; the payment status is recomputed from the tab's
// cumulative figures so a completed repayment settles the tab.
func (s *Service) Repay(ctx context.Context, input RepayInput) (RepayResult, error) {
	if input.ExtensionID == 0 {
		return RepayResult{}, fmt.Errorf("%w: extension required", shared.ErrValidation)
	}
	if input.Amount <= 0 {
		return RepayResult{}, ErrInvalidAmount
	}
	now := s.now()

	var result RepayResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ext, err := tx.LockExtension(ctx, input.ExtensionID)
		if err != nil {
			return err
		}
		if input.Amount > ext.Outstanding()+1e-9 {
			return fmt.Errorf("%w: outstanding %g, offered %g", ErrOverRepayment, ext.Outstanding(), input.Amount)
		}
		payment, err := tx.LockPayment(ctx, ext.PaymentID)
		if err != nil {
			return err
		}
		payable, paid, err := tx.TabTotals(ctx, payment.TabID)
		if err != nil {
			return err
		}
		status := s.classify(paid+input.Amount, payable)
		if err := tx.UpdatePayment(ctx, payment.PaymentID, payment.AmountPaid+input.Amount, status); err != nil {
			return err
		}
		ext.AmountRepaid += input.Amount
		if err := tx.UpdateExtensionRepaid(ctx, ext.ID, ext.AmountRepaid); err != nil {
			return err
		}
		history := RepaymentHistory{
			ExtensionID: ext.ID,
			Amount:      input.Amount,
			RecordedBy:  shared.ActorName(ctx),
			RecordedAt:  now,
		}
		if err := tx.InsertHistory(ctx, &history); err != nil {
			return err
		}
		result = RepayResult{History: history, Extension: ext, PaymentStatus: status}
		return nil
	})
	if err != nil {
		return RepayResult{}, err
	}

	s.notifyRepayment(ctx, result)
	s.recordAudit(ctx, "credit:repayment", result.Extension.ID, map[string]any{
		"amount":      input.Amount,
		"outstanding": result.Extension.Outstanding(),
		"status":      result.PaymentStatus,
	})
	return result, nil
}

func (s *Service) notifyRepayment(ctx context.Context, result RepayResult) {
	if s.notifier == nil {
		return
	}
	customer, err := s.repo.GetCustomer(ctx, result.Extension.CustomerID)
	if err != nil || customer.Phone == "" {
		return
	}
	msg := fmt.Sprintf("Hello %s, we received your payment of %.2f. Outstanding credit: %.2f.",
		customer.Name, result.History.Amount, result.Extension.Outstanding())
	s.notifier.Notify(ctx, msg, []string{customer.Phone})
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Actor:    shared.ActorName(ctx),
		Action:   action,
		Entity:   "credit_extension",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
}
