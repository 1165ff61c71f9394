// Package audit serves the read side of the audit trail written by
// shared.AuditLogger: who did what to which record, filterable and
// paged for back-office review.
package audit

import (
	"context"
	"time"
)

// Entry is one audit trail row.
type Entry struct {
	ID       int64          `json:"id"`
	Actor    string         `json:"actor"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"at"`
}

// Filters narrows the timeline query. Zero values mean no filter.
type Filters struct {
	From     time.Time
	To       time.Time
	Actor    string
	Entity   string
	Action   string
	Page     int
	PageSize int
}

// Paging describes the slice of the timeline returned.
type Paging struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
}

// Result bundles timeline rows with paging information.
type Result struct {
	Rows   []Entry `json:"rows"`
	Paging Paging  `json:"paging"`
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Timeline(ctx context.Context, filters Filters, limit, offset int) ([]Entry, error)
}

// Service coordinates audit timeline reads.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Timeline returns audit rows with paging. One extra row is fetched to
// decide whether a next page exists.
func (s *Service) Timeline(ctx context.Context, filters Filters) (Result, error) {
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	rows, err := s.repo.Timeline(ctx, filters, pageSize+1, offset)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	return Result{
		Rows:   rows,
		Paging: Paging{Page: page, PageSize: pageSize, HasNext: hasNext},
	}, nil
}
