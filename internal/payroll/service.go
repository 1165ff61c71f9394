package payroll

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tavern-pos/tavern/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	InsertEntry(ctx context.Context, e *Entry) error
	GetEntry(ctx context.Context, id int64) (Entry, error)
	ListEntries(ctx context.Context, from, to time.Time) ([]Entry, error)
	InsertExpenditure(ctx context.Context, e *Expenditure) error
	GetExpenditure(ctx context.Context, id int64) (Expenditure, error)
	ListExpenditures(ctx context.Context, from, to time.Time) ([]Expenditure, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service records wage payments and operating expenses.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: func() time.Time { return time.Now().UTC() }}
}

// RecordEntry records one wage payment.
func (s *Service) RecordEntry(ctx context.Context, input NewEntryInput) (Entry, error) {
	name := strings.TrimSpace(input.EmployeeName)
	if name == "" {
		return Entry{}, ErrNameRequired
	}
	if input.Amount <= 0 {
		return Entry{}, ErrInvalidAmount
	}
	paidAt := input.PaidAt
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	entry := Entry{
		EmployeeName: name,
		Role:         strings.TrimSpace(input.Role),
		Amount:       input.Amount,
		PaidAt:       paidAt,
		RecordedBy:   shared.ActorName(ctx),
	}
	if err := s.repo.InsertEntry(ctx, &entry); err != nil {
		return Entry{}, err
	}
	s.recordAudit(ctx, "payroll:entry-recorded", "payroll_entry", entry.ID, map[string]any{
		"employee": entry.EmployeeName,
		"amount":   entry.Amount,
	})
	return entry, nil
}

// RecordExpenditure records one operating expense.
func (s *Service) RecordExpenditure(ctx context.Context, input NewExpenditureInput) (Expenditure, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return Expenditure{}, ErrDescriptionRequired
	}
	if input.Amount <= 0 {
		return Expenditure{}, ErrInvalidAmount
	}
	spentAt := input.SpentAt
	if spentAt.IsZero() {
		spentAt = s.now()
	}
	exp := Expenditure{
		Description: description,
		Category:    strings.TrimSpace(input.Category),
		Amount:      input.Amount,
		SpentAt:     spentAt,
		RecordedBy:  shared.ActorName(ctx),
	}
	if err := s.repo.InsertExpenditure(ctx, &exp); err != nil {
		return Expenditure{}, err
	}
	s.recordAudit(ctx, "payroll:expenditure-recorded", "expenditure", exp.ID, map[string]any{
		"description": exp.Description,
		"amount":      exp.Amount,
	})
	return exp, nil
}

// GetEntry returns one wage payment.
func (s *Service) GetEntry(ctx context.Context, id int64) (Entry, error) {
	if id == 0 {
		return Entry{}, fmt.Errorf("%w: entry required", shared.ErrValidation)
	}
	return s.repo.GetEntry(ctx, id)
}

// ListEntries returns wage payments in a window.
func (s *Service) ListEntries(ctx context.Context, from, to time.Time) ([]Entry, error) {
	if to.IsZero() {
		to = s.now().Add(24 * time.Hour)
	}
	return s.repo.ListEntries(ctx, from, to)
}

// GetExpenditure returns one operating expense.
func (s *Service) GetExpenditure(ctx context.Context, id int64) (Expenditure, error) {
	if id == 0 {
		return Expenditure{}, fmt.Errorf("%w: expenditure required", shared.ErrValidation)
	}
	return s.repo.GetExpenditure(ctx, id)
}

// ListExpenditures returns operating expenses in a window.
func (s *Service) ListExpenditures(ctx context.Context, from, to time.Time) ([]Expenditure, error) {
	if to.IsZero() {
		to = s.now().Add(24 * time.Hour)
	}
	return s.repo.ListExpenditures(ctx, from, to)
}

func (s *Service) recordAudit(ctx context.Context, action, entity string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Actor:    shared.ActorName(ctx),
		Action:   action,
		Entity:   entity,
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
}
