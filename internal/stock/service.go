package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tavern-pos/tavern/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetTrunk(ctx context.Context, itemID int64) (Trunk, error)
	ListTrunks(ctx context.Context) ([]Trunk, error)
	GetBatch(ctx context.Context, batchID int64) (Batch, error)
	ListBreakages(ctx context.Context, batchID int64) ([]Breakage, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Notifier sends best-effort messages. Delivery failures never surface here;
// implementations swallow and log them off the transaction path.
type Notifier interface {
	Notify(ctx context.Context, message string, recipients []string)
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// AlertRecipients receives low-stock and out-of-stock messages.
	AlertRecipients []string
	// CountDepletion, when set, records each depletion attempt with an
	// "ok" or "insufficient" outcome.
	CountDepletion func(outcome string)
}

// Service coordinates stock operations.
type Service struct {
	repo           RepositoryPort
	audit          AuditPort
	idempotency    *shared.IdempotencyStore
	notifier       Notifier
	recipients     []string
	countDepletion func(outcome string)
	now            func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore, notifier Notifier, cfg ServiceConfig) *Service {
	return &Service{
		repo:           repo,
		audit:          audit,
		idempotency:    idem,
		notifier:       notifier,
		recipients:     cfg.AlertRecipients,
		countDepletion: cfg.CountDepletion,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// AddBatch records a purchase entry, opening a new batch for the item.
func (s *Service) AddBatch(ctx context.Context, input NewBatchInput) (Batch, error) {
	if input.ItemID == 0 {
		return Batch{}, fmt.Errorf("%w: item required", shared.ErrValidation)
	}
	if input.TotalQuantity <= qtyEpsilon {
		return Batch{}, ErrInvalidQuantity
	}
	if input.PurchasingPrice < 0 || input.SellingPrice < 0 {
		return Batch{}, ErrInvalidPrice
	}
	if input.Threshold < 0 || input.Threshold >= input.TotalQuantity {
		return Batch{}, ErrThresholdTooHigh
	}
	purchased := input.DatePurchased
	if purchased.IsZero() {
		purchased = s.now()
	}

	batch := Batch{
		ItemID:            input.ItemID,
		TotalQuantity:     input.TotalQuantity,
		AvailableQuantity: input.TotalQuantity,
		PurchasingPrice:   input.PurchasingPrice,
		SellingPrice:      input.SellingPrice,
		Threshold:         input.Threshold,
		Status:            StatusAvailable,
		DatePurchased:     purchased,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertBatch(ctx, batch)
		if err != nil {
			return err
		}
		batch.ID = id
		return nil
	})
	if err != nil {
		return Batch{}, err
	}
	s.recordAudit(ctx, "stock:batch-added", "stock_batch", batch.ID, map[string]any{
		"item_id": batch.ItemID,
		"qty":     batch.TotalQuantity,
	})
	return batch, nil
}

// StockOutResult reports what a depletion consumed.
type StockOutResult struct {
	Code     string        `json:"code"`
	Consumed []Consumption `json:"consumed"`
}

// StockOut depletes an item's trunk outside of an order (bar usage,
// corrections). Zero or negative quantity is rejected outright rather than
// recorded as a no-op.
func (s *Service) StockOut(ctx context.Context, input StockOutInput) (StockOutResult, error) {
	if input.ItemID == 0 {
		return StockOutResult{}, fmt.Errorf("%w: item required", shared.ErrValidation)
	}
	if input.Quantity <= qtyEpsilon {
		return StockOutResult{}, ErrInvalidQuantity
	}
	now := s.now()
	code := input.Code
	if code == "" {
		code = fmt.Sprintf("OUT-%s", uuid.NewString())
	}

	insertedKey := false
	if s.idempotency != nil {
		key := fmt.Sprintf("stockout:%s:%d", code, input.ItemID)
		if err := s.idempotency.CheckAndInsert(ctx, key, "stock"); err != nil {
			return StockOutResult{}, err
		}
		insertedKey = true
	}

	var result StockOutResult
	var touched []Batch
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		consumed, batches, err := Deplete(ctx, tx, input.ItemID, input.Quantity, now)
		if err != nil {
			return err
		}
		if _, err := tx.InsertStockOut(ctx, StockOut{
			Code:      code,
			ItemID:    input.ItemID,
			Quantity:  input.Quantity,
			Reason:    input.Reason,
			CreatedBy: shared.ActorName(ctx),
			CreatedAt: now,
		}); err != nil {
			return err
		}
		result = StockOutResult{Code: code, Consumed: consumed}
		touched = batches
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) && s.countDepletion != nil {
			s.countDepletion("insufficient")
		}
		if insertedKey {
			_ = s.idempotency.Delete(ctx, fmt.Sprintf("stockout:%s:%d", code, input.ItemID))
		}
		return StockOutResult{}, err
	}
	if s.countDepletion != nil {
		s.countDepletion("ok")
	}

	s.alertOnLevels(ctx, touched)
	s.recordAudit(ctx, "stock:stock-out", "stock_out", input.ItemID, map[string]any{
		"code":     code,
		"qty":      input.Quantity,
		"consumed": len(result.Consumed),
	})
	return result, nil
}

// Deplete locks an item's batches, plans the depletion and applies it inside
// the supplied transaction. Order creation calls this with its own
// TxRepository so stock movement and order rows commit together.
func Deplete(ctx context.Context, tx TxRepository, itemID int64, quantity float64, now time.Time) ([]Consumption, []Batch, error) {
	batches, err := tx.LockBatches(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	plan, err := PlanDepletion(batches, quantity)
	if err != nil {
		return nil, nil, err
	}
	touched := make([]Batch, 0, len(plan))
	for _, c := range plan {
		updated, err := tx.ApplyConsumption(ctx, c, now)
		if err != nil {
			return nil, nil, err
		}
		touched = append(touched, updated)
	}
	return plan, touched, nil
}

// RecordBreakage writes a spoilage event against exactly one batch. The
// quantity never spreads to sibling batches.
func (s *Service) RecordBreakage(ctx context.Context, input BreakageInput) (Breakage, error) {
	if input.BatchID == 0 {
		return Breakage{}, fmt.Errorf("%w: batch required", shared.ErrValidation)
	}
	if input.Quantity <= qtyEpsilon {
		return Breakage{}, ErrInvalidQuantity
	}
	now := s.now()

	breakage := Breakage{
		BatchID:    input.BatchID,
		Quantity:   input.Quantity,
		Reason:     input.Reason,
		RecordedBy: shared.ActorName(ctx),
		RecordedAt: now,
	}
	var after Batch
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		batch, err := tx.LockBatch(ctx, input.BatchID)
		if err != nil {
			return err
		}
		if batch.Status != StatusAvailable {
			return ErrBatchUnavailable
		}
		if batch.AvailableQuantity+qtyEpsilon < input.Quantity {
			return fmt.Errorf("%w: batch holds %g, reported broken %g", ErrInsufficientStock, batch.AvailableQuantity, input.Quantity)
		}
		c := Consumption{
			BatchID:  input.BatchID,
			Quantity: input.Quantity,
			Drained:  batch.AvailableQuantity <= input.Quantity+qtyEpsilon,
		}
		after, err = tx.ApplyConsumption(ctx, c, now)
		if err != nil {
			return err
		}
		id, err := tx.InsertBreakage(ctx, breakage)
		if err != nil {
			return err
		}
		breakage.ID = id
		return nil
	})
	if err != nil {
		return Breakage{}, err
	}

	s.alertOnLevels(ctx, []Batch{after})
	s.recordAudit(ctx, "stock:breakage", "stock_batch", input.BatchID, map[string]any{
		"qty":    input.Quantity,
		"reason": input.Reason,
	})
	return breakage, nil
}

// GetTrunk returns the aggregate view of one item's batches.
func (s *Service) GetTrunk(ctx context.Context, itemID int64) (Trunk, error) {
	if itemID == 0 {
		return Trunk{}, fmt.Errorf("%w: item required", shared.ErrValidation)
	}
	return s.repo.GetTrunk(ctx, itemID)
}

// ListTrunks returns the aggregate view of every stocked item.
func (s *Service) ListTrunks(ctx context.Context) ([]Trunk, error) {
	return s.repo.ListTrunks(ctx)
}

// GetBatch returns one batch.
func (s *Service) GetBatch(ctx context.Context, batchID int64) (Batch, error) {
	if batchID == 0 {
		return Batch{}, fmt.Errorf("%w: batch required", shared.ErrValidation)
	}
	return s.repo.GetBatch(ctx, batchID)
}

// ListBreakages lists spoilage events for one batch.
func (s *Service) ListBreakages(ctx context.Context, batchID int64) ([]Breakage, error) {
	if batchID == 0 {
		return nil, fmt.Errorf("%w: batch required", shared.ErrValidation)
	}
	return s.repo.ListBreakages(ctx, batchID)
}

// AlertLevels lets callers that deplete batches in their own transaction
// (order creation) reuse the threshold notifications after commit.
func (s *Service) AlertLevels(ctx context.Context, batches []Batch) {
	s.alertOnLevels(ctx, batches)
}

// alertOnLevels emits threshold notifications for freshly decremented
// batches. Runs after commit; failures must never influence the mutation.
func (s *Service) alertOnLevels(ctx context.Context, batches []Batch) {
	if s.notifier == nil || len(s.recipients) == 0 {
		return
	}
	for _, b := range batches {
		switch {
		case b.AvailableQuantity <= qtyEpsilon:
			s.notifier.Notify(ctx, outOfStockMessage(b), s.recipients)
		case b.Threshold > 0 && b.AvailableQuantity <= b.Threshold:
			s.notifier.Notify(ctx, lowStockMessage(b), s.recipients)
		}
	}
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
