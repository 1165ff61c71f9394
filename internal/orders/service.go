package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/tavern-pos/tavern/internal/catalog"
	"github.com/tavern-pos/tavern/internal/shared"
	"github.com/tavern-pos/tavern/internal/stock"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetTab(ctx context.Context, id int64) (Tab, error)
	ListTabs(ctx context.Context, filter TabFilter) ([]Tab, error)
}

// CatalogPort resolves the items and dishes referenced by order lines.
type CatalogPort interface {
	GetItem(ctx context.Context, id int64) (catalog.Item, error)
	GetDish(ctx context.Context, id int64) (catalog.Dish, error)
}

// LevelAlerter emits low-stock notifications for batches touched by a
// committed depletion.
type LevelAlerter interface {
	AlertLevels(ctx context.Context, batches []stock.Batch)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Classifier derives a payment status label from cumulative paid and
// payable amounts. Wired from the payments package so tab reads and
// the ledger agree on one rule.
type Classifier func(paid, payable float64) string

// Service coordinates tab and order creation.
type Service struct {
	repo     RepositoryPort
	catalog  CatalogPort
	audit    AuditPort
	alerts   LevelAlerter
	classify Classifier
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, cat CatalogPort, audit AuditPort, alerts LevelAlerter, classify Classifier) *Service {
	return &Service{
		repo:     repo,
		catalog:  cat,
		audit:    audit,
		alerts:   alerts,
		classify: classify,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// pricedLine is a line with its catalog lookups resolved, ready to be
// turned into order rows inside the transaction.
type pricedLine struct {
	input LineInput
	item  catalog.Item
	dish  catalog.Dish
}

// CreateTab opens a tab and appends its initial order lines. Bar lines
// consume from the item's trunk through the depletion engine inside the
// same transaction, so a shortfall on any line rolls back the whole tab.
// A bar line that spans several batches yields one order row per batch,
// each priced from the batch it was served from.
func (s *Service) CreateTab(ctx context.Context, input CreateTabInput) (Tab, error) {
	if len(input.Lines) == 0 {
		return Tab{}, ErrNoLines
	}
	priced := make([]pricedLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		if (line.ItemID == 0) == (line.DishID == 0) {
			return Tab{}, ErrLineTarget
		}
		if line.Quantity <= 0 {
			return Tab{}, ErrInvalidQuantity
		}
		if line.ShotsPerContainer < 0 {
			return Tab{}, ErrInvalidShots
		}
		pl := pricedLine{input: line}
		var err error
		if line.ItemID != 0 {
			pl.item, err = s.catalog.GetItem(ctx, line.ItemID)
		} else {
			if line.ShotsPerContainer > 0 {
				return Tab{}, fmt.Errorf("%w: dishes are not shot priced", shared.ErrValidation)
			}
			pl.dish, err = s.catalog.GetDish(ctx, line.DishID)
		}
		if err != nil {
			return Tab{}, err
		}
		priced = append(priced, pl)
	}

	now := s.now()
	tab := Tab{
		CustomerName:  input.CustomerName,
		CustomerPhone: input.CustomerPhone,
		CreatedBy:     shared.ActorName(ctx),
		CreatedAt:     now,
	}
	var touched []stock.Batch
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.GenerateNumber(ctx, now)
		if err != nil {
			return err
		}
		tab.Number = number
		if err := tx.InsertTab(ctx, &tab); err != nil {
			return err
		}
		for _, pl := range priced {
			rows, batches, err := s.buildLines(ctx, tx, tab.ID, pl, now)
			if err != nil {
				return err
			}
			for i := range rows {
				if err := tx.InsertOrder(ctx, &rows[i]); err != nil {
					return err
				}
				tab.Orders = append(tab.Orders, rows[i])
				tab.TotalPayable += rows[i].Total
			}
			touched = append(touched, batches...)
		}
		return nil
	})
	if err != nil {
		return Tab{}, err
	}
	tab.TotalRemaining = tab.TotalPayable
	if s.classify != nil {
		tab.PaymentStatus = s.classify(0, tab.TotalPayable)
	}

	if s.alerts != nil {
		s.alerts.AlertLevels(ctx, touched)
	}
	s.recordAudit(ctx, "orders:tab-created", tab.ID, map[string]any{
		"number":  tab.Number,
		"lines":   len(tab.Orders),
		"payable": tab.TotalPayable,
	})
	return tab, nil
}

// buildLines turns one requested line into order rows. Item lines run
// the depletion engine against the tab's transaction; each consumed
// batch becomes its own row, priced from that batch.
func (s *Service) buildLines(ctx context.Context, tx TxRepository, tabID int64, pl pricedLine, now time.Time) ([]Order, []stock.Batch, error) {
	if pl.input.DishID != 0 {
		dishID := pl.input.DishID
		pricing := UnitPricing{UnitPrice: pl.dish.Price}
		return []Order{{
			TabID:       tabID,
			DishID:      &dishID,
			Description: pl.dish.Name,
			Pricing:     pricing.Kind(),
			Quantity:    pl.input.Quantity,
			UnitPrice:   pl.dish.Price,
			Total:       pricing.Total(pl.input.Quantity),
			CreatedAt:   now,
		}}, nil, nil
	}

	consumed, batches, err := stock.Deplete(ctx, tx.Stock(), pl.input.ItemID, pl.input.Quantity, now)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[int64]stock.Batch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}
	rows := make([]Order, 0, len(consumed))
	for _, c := range consumed {
		batch := byID[c.BatchID]
		batchID := c.BatchID
		pricing := pricingFor(pl.input, batch.SellingPrice)
		rows = append(rows, Order{
			TabID:       tabID,
			BatchID:     &batchID,
			Description: pl.item.Name,
			Pricing:     pricing.Kind(),
			Quantity:    c.Quantity,
			UnitPrice:   batch.SellingPrice,
			Shots:       pl.input.ShotsPerContainer,
			Total:       pricing.Total(c.Quantity),
			CreatedAt:   now,
		})
	}
	return rows, batches, nil
}

// GetTab returns a tab with its order lines and derived totals.
func (s *Service) GetTab(ctx context.Context, id int64) (Tab, error) {
	if id == 0 {
		return Tab{}, fmt.Errorf("%w: tab required", shared.ErrValidation)
	}
	tab, err := s.repo.GetTab(ctx, id)
	if err != nil {
		return Tab{}, err
	}
	if s.classify != nil {
		tab.PaymentStatus = s.classify(tab.TotalPaid, tab.TotalPayable)
	}
	return tab, nil
}

// ListTabs returns tabs in a window, newest first.
func (s *Service) ListTabs(ctx context.Context, filter TabFilter) ([]Tab, error) {
	tabs, err := s.repo.ListTabs(ctx, filter)
	if err != nil {
		return nil, err
	}
	if s.classify != nil {
		for i := range tabs {
			tabs[i].PaymentStatus = s.classify(tabs[i].TotalPaid, tabs[i].TotalPayable)
		}
	}
	return tabs, nil
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Actor:    shared.ActorName(ctx),
		Action:   action,
		Entity:   "tab",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
}
