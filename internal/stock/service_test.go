package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	batches   map[int64]*Batch
	breakages []Breakage
	stockOuts []StockOut
	nextID    int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{batches: make(map[int64]*Batch)}
}

func (r *memoryRepo) seed(b Batch) {
	r.nextID++
	b.ID = r.nextID
	r.batches[b.ID] = &b
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	// The fake applies writes directly; rollback coverage lives in the
	// engine tests, which never mutate on failure.
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetTrunk(ctx context.Context, itemID int64) (Trunk, error) {
	trunk := Trunk{ItemID: itemID}
	for _, b := range r.sorted(itemID) {
		trunk.Batches = append(trunk.Batches, b)
		trunk.TotalAdded += b.TotalQuantity
		trunk.TotalAvailable += b.AvailableQuantity
	}
	if len(trunk.Batches) == 0 {
		return Trunk{}, ErrTrunkNotFound
	}
	trunk.Status = StatusUnavailable
	if trunk.TotalAvailable > 0 {
		trunk.Status = StatusAvailable
	}
	return trunk, nil
}

func (r *memoryRepo) ListTrunks(ctx context.Context) ([]Trunk, error) { return nil, nil }

func (r *memoryRepo) GetBatch(ctx context.Context, batchID int64) (Batch, error) {
	if b, ok := r.batches[batchID]; ok {
		return *b, nil
	}
	return Batch{}, ErrBatchNotFound
}

func (r *memoryRepo) ListBreakages(ctx context.Context, batchID int64) ([]Breakage, error) {
	var out []Breakage
	for _, br := range r.breakages {
		if br.BatchID == batchID {
			out = append(out, br)
		}
	}
	return out, nil
}

func (r *memoryRepo) sorted(itemID int64) []Batch {
	var out []Batch
	for id := int64(1); id <= r.nextID; id++ {
		if b, ok := r.batches[id]; ok && b.ItemID == itemID {
			out = append(out, *b)
		}
	}
	return out
}

func (tx *memoryTx) LockBatches(ctx context.Context, itemID int64) ([]Batch, error) {
	batches := tx.repo.sorted(itemID)
	if len(batches) == 0 {
		return nil, ErrTrunkNotFound
	}
	return batches, nil
}

func (tx *memoryTx) LockBatch(ctx context.Context, batchID int64) (Batch, error) {
	return tx.repo.GetBatch(ctx, batchID)
}

func (tx *memoryTx) ApplyConsumption(ctx context.Context, c Consumption, now time.Time) (Batch, error) {
	b, ok := tx.repo.batches[c.BatchID]
	if !ok || b.Status != StatusAvailable {
		return Batch{}, ErrBatchUnavailable
	}
	if c.Drained {
		b.AvailableQuantity = 0
		b.Status = StatusUnavailable
		t := now
		b.DatePerished = &t
	} else {
		if b.AvailableQuantity < c.Quantity {
			return Batch{}, ErrBatchUnavailable
		}
		b.AvailableQuantity -= c.Quantity
	}
	return *b, nil
}

func (tx *memoryTx) InsertBatch(ctx context.Context, b Batch) (int64, error) {
	tx.repo.seed(b)
	return tx.repo.nextID, nil
}

func (tx *memoryTx) InsertBreakage(ctx context.Context, br Breakage) (int64, error) {
	tx.repo.breakages = append(tx.repo.breakages, br)
	return int64(len(tx.repo.breakages)), nil
}

func (tx *memoryTx) InsertStockOut(ctx context.Context, so StockOut) (int64, error) {
	tx.repo.stockOuts = append(tx.repo.stockOuts, so)
	return int64(len(tx.repo.stockOuts)), nil
}

type captureNotifier struct {
	messages []string
}

func (n *captureNotifier) Notify(ctx context.Context, message string, recipients []string) {
	n.messages = append(n.messages, message)
}

func newTestService(repo *memoryRepo, notifier Notifier) *Service {
	return NewService(repo, nil, nil, notifier, ServiceConfig{AlertRecipients: []string{"+10000000000"}})
}

func TestAddBatchValidation(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.AddBatch(ctx, NewBatchInput{ItemID: 1, TotalQuantity: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddBatch(ctx, NewBatchInput{ItemID: 1, TotalQuantity: 10, Threshold: 10})
	require.ErrorIs(t, err, ErrThresholdTooHigh)

	_, err = svc.AddBatch(ctx, NewBatchInput{ItemID: 1, TotalQuantity: 10, PurchasingPrice: -1})
	require.ErrorIs(t, err, ErrInvalidPrice)
}

func TestStockOutSingleBatch(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(Batch{ItemID: 1, TotalQuantity: 10, AvailableQuantity: 10, Status: StatusAvailable})
	svc := newTestService(repo, nil)

	result, err := svc.StockOut(context.Background(), StockOutInput{ItemID: 1, Quantity: 4})
	require.NoError(t, err)
	require.Len(t, result.Consumed, 1)

	b, err := repo.GetBatch(context.Background(), 1)
	require.NoError(t, err)
	require.InDelta(t, 6, b.AvailableQuantity, 1e-9)
	require.Equal(t, StatusAvailable, b.Status)
}

func TestStockOutRejectsZeroQuantity(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(Batch{ItemID: 1, TotalQuantity: 10, AvailableQuantity: 10, Status: StatusAvailable})
	svc := newTestService(repo, nil)

	_, err := svc.StockOut(context.Background(), StockOutInput{ItemID: 1, Quantity: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	require.Empty(t, repo.stockOuts)
}

func TestStockOutAcrossBatchesNewestFirst(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(Batch{ItemID: 1, TotalQuantity: 10, AvailableQuantity: 10, Status: StatusAvailable})
	repo.seed(Batch{ItemID: 1, TotalQuantity: 5, AvailableQuantity: 5, Status: StatusAvailable})
	svc := newTestService(repo, nil)
	ctx := context.Background()

	result, err := svc.StockOut(ctx, StockOutInput{ItemID: 1, Quantity: 8})
	require.NoError(t, err)
	require.Len(t, result.Consumed, 2)

	newest, _ := repo.GetBatch(ctx, 2)
	require.InDelta(t, 0, newest.AvailableQuantity, 1e-9)
	require.Equal(t, StatusUnavailable, newest.Status)
	require.NotNil(t, newest.DatePerished)

	oldest, _ := repo.GetBatch(ctx, 1)
	require.InDelta(t, 7, oldest.AvailableQuantity, 1e-9)
	require.Equal(t, StatusAvailable, oldest.Status)

	// Second call over-asks: only 7 left, nothing changes.
	_, err = svc.StockOut(ctx, StockOutInput{ItemID: 1, Quantity: 12})
	require.ErrorIs(t, err, ErrInsufficientStock)
	oldest, _ = repo.GetBatch(ctx, 1)
	require.InDelta(t, 7, oldest.AvailableQuantity, 1e-9)
}

func TestStockOutEmitsAlerts(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(Batch{ItemID: 1, TotalQuantity: 10, AvailableQuantity: 10, Threshold: 3, Status: StatusAvailable})
	notifier := &captureNotifier{}
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	_, err := svc.StockOut(ctx, StockOutInput{ItemID: 1, Quantity: 8})
	require.NoError(t, err)
	require.Len(t, notifier.messages, 1)
	require.Contains(t, notifier.messages[0], "Low stock")

	_, err = svc.StockOut(ctx, StockOutInput{ItemID: 1, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, notifier.messages, 2)
	require.Contains(t, notifier.messages[1], "Out of stock")
}

func TestRecordBreakageSingleBatchOnly(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(Batch{ItemID: 1, TotalQuantity: 10, AvailableQuantity: 10, Status: StatusAvailable})
	repo.seed(Batch{ItemID: 1, TotalQuantity: 5, AvailableQuantity: 5, Status: StatusAvailable})
	svc := newTestService(repo, nil)
	ctx := context.Background()

	br, err := svc.RecordBreakage(ctx, BreakageInput{BatchID: 1, Quantity: 3, Reason: "dropped crate"})
	require.NoError(t, err)
	require.Equal(t, int64(1), br.BatchID)

	first, _ := repo.GetBatch(ctx, 1)
	require.InDelta(t, 7, first.AvailableQuantity, 1e-9)
	second, _ := repo.GetBatch(ctx, 2)
	require.InDelta(t, 5, second.AvailableQuantity, 1e-9)
}

func TestRecordBreakageExceedingAvailableFails(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(Batch{ItemID: 1, TotalQuantity: 5, AvailableQuantity: 2, Status: StatusAvailable})
	svc := newTestService(repo, nil)

	_, err := svc.RecordBreakage(context.Background(), BreakageInput{BatchID: 1, Quantity: 3})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Empty(t, repo.breakages)
}

func TestBreakageDrainingBatchPerishesIt(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(Batch{ItemID: 1, TotalQuantity: 5, AvailableQuantity: 2, Status: StatusAvailable})
	notifier := &captureNotifier{}
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	_, err := svc.RecordBreakage(ctx, BreakageInput{BatchID: 1, Quantity: 2})
	require.NoError(t, err)

	b, _ := repo.GetBatch(ctx, 1)
	require.Equal(t, StatusUnavailable, b.Status)
	require.NotNil(t, b.DatePerished)
	require.Len(t, notifier.messages, 1)
	require.Contains(t, notifier.messages[0], "Out of stock")

	// Terminal: a perished batch rejects further breakage.
	_, err = svc.RecordBreakage(ctx, BreakageInput{BatchID: 1, Quantity: 1})
	require.ErrorIs(t, err, ErrBatchUnavailable)
}

func TestAvailableNeverExceedsTotal(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(Batch{ItemID: 1, TotalQuantity: 10, AvailableQuantity: 10, Status: StatusAvailable})
	svc := newTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.StockOut(ctx, StockOutInput{ItemID: 1, Quantity: 6})
	require.NoError(t, err)
	_, err = svc.RecordBreakage(ctx, BreakageInput{BatchID: 1, Quantity: 1})
	require.NoError(t, err)

	b, _ := repo.GetBatch(ctx, 1)
	require.GreaterOrEqual(t, b.AvailableQuantity, 0.0)
	require.LessOrEqual(t, b.AvailableQuantity, b.TotalQuantity)
}
