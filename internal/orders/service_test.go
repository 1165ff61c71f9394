package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tavern-pos/tavern/internal/catalog"
	"github.com/tavern-pos/tavern/internal/stock"
)

type memoryRepo struct {
	batches     map[int64]*stock.Batch
	nextBatchID int64

	tabs        map[int64]*Tab
	orders      []Order
	nextTabID   int64
	nextOrderID int64
	payments    map[int64]float64 // tab id -> cumulative paid
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		batches:  make(map[int64]*stock.Batch),
		tabs:     make(map[int64]*Tab),
		payments: make(map[int64]float64),
	}
}

func (r *memoryRepo) seedBatch(b stock.Batch) int64 {
	r.nextBatchID++
	b.ID = r.nextBatchID
	r.batches[b.ID] = &b
	return b.ID
}

// WithTx snapshots state and restores it when fn fails, mirroring a
// database rollback.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	batches := make(map[int64]*stock.Batch, len(r.batches))
	for id, b := range r.batches {
		copied := *b
		batches[id] = &copied
	}
	tabs := make(map[int64]*Tab, len(r.tabs))
	for id, t := range r.tabs {
		copied := *t
		tabs[id] = &copied
	}
	orders := append([]Order(nil), r.orders...)
	nextTab, nextOrder := r.nextTabID, r.nextOrderID

	err := fn(ctx, &memoryTx{repo: r})
	if err != nil {
		r.batches = batches
		r.tabs = tabs
		r.orders = orders
		r.nextTabID, r.nextOrderID = nextTab, nextOrder
	}
	return err
}

func (r *memoryRepo) GetTab(ctx context.Context, id int64) (Tab, error) {
	t, ok := r.tabs[id]
	if !ok {
		return Tab{}, ErrTabNotFound
	}
	tab := *t
	tab.Orders = nil
	for _, o := range r.orders {
		if o.TabID == id {
			tab.Orders = append(tab.Orders, o)
			tab.TotalPayable += o.Total
		}
	}
	tab.TotalPaid = r.payments[id]
	tab.TotalRemaining = tab.TotalPayable - tab.TotalPaid
	return tab, nil
}

func (r *memoryRepo) ListTabs(ctx context.Context, filter TabFilter) ([]Tab, error) {
	var out []Tab
	for id := range r.tabs {
		tab, _ := r.GetTab(ctx, id)
		out = append(out, tab)
	}
	return out, nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) Stock() stock.TxRepository { return &memoryStockTx{repo: t.repo} }

func (t *memoryTx) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	return fmt.Sprintf("TAB-%s-%04d", date.Format("0601"), t.repo.nextTabID+1), nil
}

func (t *memoryTx) InsertTab(ctx context.Context, tab *Tab) error {
	t.repo.nextTabID++
	tab.ID = t.repo.nextTabID
	stored := *tab
	t.repo.tabs[tab.ID] = &stored
	return nil
}

func (t *memoryTx) InsertOrder(ctx context.Context, order *Order) error {
	t.repo.nextOrderID++
	order.ID = t.repo.nextOrderID
	t.repo.orders = append(t.repo.orders, *order)
	return nil
}

type memoryStockTx struct {
	repo *memoryRepo
}

func (tx *memoryStockTx) LockBatches(ctx context.Context, itemID int64) ([]stock.Batch, error) {
	var out []stock.Batch
	for id := int64(1); id <= tx.repo.nextBatchID; id++ {
		if b, ok := tx.repo.batches[id]; ok && b.ItemID == itemID {
			out = append(out, *b)
		}
	}
	if len(out) == 0 {
		return nil, stock.ErrTrunkNotFound
	}
	return out, nil
}

func (tx *memoryStockTx) LockBatch(ctx context.Context, batchID int64) (stock.Batch, error) {
	if b, ok := tx.repo.batches[batchID]; ok {
		return *b, nil
	}
	return stock.Batch{}, stock.ErrBatchNotFound
}

func (tx *memoryStockTx) ApplyConsumption(ctx context.Context, c stock.Consumption, now time.Time) (stock.Batch, error) {
	b, ok := tx.repo.batches[c.BatchID]
	if !ok || b.Status != stock.StatusAvailable {
		return stock.Batch{}, stock.ErrBatchUnavailable
	}
	if c.Drained {
		b.AvailableQuantity = 0
		b.Status = stock.StatusUnavailable
		at := now
		b.DatePerished = &at
	} else {
		if b.AvailableQuantity < c.Quantity {
			return stock.Batch{}, stock.ErrBatchUnavailable
		}
		b.AvailableQuantity -= c.Quantity
	}
	return *b, nil
}

func (tx *memoryStockTx) InsertBatch(ctx context.Context, b stock.Batch) (int64, error) {
	return tx.repo.seedBatch(b), nil
}

func (tx *memoryStockTx) InsertBreakage(ctx context.Context, br stock.Breakage) (int64, error) {
	return 0, nil
}

func (tx *memoryStockTx) InsertStockOut(ctx context.Context, so stock.StockOut) (int64, error) {
	return 0, nil
}

type fakeCatalog struct {
	items  map[int64]catalog.Item
	dishes map[int64]catalog.Dish
}

func (f *fakeCatalog) GetItem(ctx context.Context, id int64) (catalog.Item, error) {
	if it, ok := f.items[id]; ok {
		return it, nil
	}
	return catalog.Item{}, catalog.ErrItemNotFound
}

func (f *fakeCatalog) GetDish(ctx context.Context, id int64) (catalog.Dish, error) {
	if d, ok := f.dishes[id]; ok {
		return d, nil
	}
	return catalog.Dish{}, catalog.ErrDishNotFound
}

type captureAlerter struct {
	batches []stock.Batch
}

func (c *captureAlerter) AlertLevels(ctx context.Context, batches []stock.Batch) {
	c.batches = append(c.batches, batches...)
}

func testClassify(paid, payable float64) string {
	switch {
	case paid <= 0:
		return "UNPAID"
	case paid >= payable:
		return "PAID"
	default:
		return "PARTIAL"
	}
}

func newTestService(repo *memoryRepo, cat *fakeCatalog, alerts *captureAlerter) *Service {
	var alerter LevelAlerter
	if alerts != nil {
		alerter = alerts
	}
	svc := NewService(repo, cat, nil, alerter, testClassify)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC) }
	return svc
}

func barCatalog() *fakeCatalog {
	return &fakeCatalog{
		items: map[int64]catalog.Item{
			1: {ID: 1, Name: "Premium Lager", Unit: catalog.UnitCrate},
		},
		dishes: map[int64]catalog.Dish{
			7: {ID: 7, Name: "Grilled Tilapia", Price: 450},
		},
	}
}

func TestCreateTabDishOnly(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, barCatalog(), nil)

	tab, err := svc.CreateTab(context.Background(), CreateTabInput{
		Lines: []LineInput{{DishID: 7, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, "TAB-2603-0001", tab.Number)
	require.Len(t, tab.Orders, 1)
	require.Equal(t, "Grilled Tilapia", tab.Orders[0].Description)
	require.Equal(t, PricingUnit, tab.Orders[0].Pricing)
	require.InDelta(t, 900, tab.TotalPayable, 1e-9)
	require.InDelta(t, 900, tab.TotalRemaining, 1e-9)
	require.Equal(t, "UNPAID", tab.PaymentStatus)
}

func TestCreateTabBarLineSpansBatches(t *testing.T) {
	repo := newMemoryRepo()
	older := repo.seedBatch(stock.Batch{ItemID: 1, TotalQuantity: 10, AvailableQuantity: 10, SellingPrice: 200, Status: stock.StatusAvailable})
	newer := repo.seedBatch(stock.Batch{ItemID: 1, TotalQuantity: 5, AvailableQuantity: 5, SellingPrice: 250, Status: stock.StatusAvailable})
	alerts := &captureAlerter{}
	svc := newTestService(repo, barCatalog(), alerts)

	tab, err := svc.CreateTab(context.Background(), CreateTabInput{
		Lines: []LineInput{{ItemID: 1, Quantity: 8}},
	})
	require.NoError(t, err)
	require.Len(t, tab.Orders, 2)

	// newest batch first: 5 crates at its price, then 3 from the older one
	require.Equal(t, newer, *tab.Orders[0].BatchID)
	require.InDelta(t, 5, tab.Orders[0].Quantity, 1e-9)
	require.InDelta(t, 250, tab.Orders[0].UnitPrice, 1e-9)
	require.Equal(t, older, *tab.Orders[1].BatchID)
	require.InDelta(t, 3, tab.Orders[1].Quantity, 1e-9)
	require.InDelta(t, 200, tab.Orders[1].UnitPrice, 1e-9)
	require.InDelta(t, 5*250+3*200, tab.TotalPayable, 1e-9)

	require.Equal(t, stock.StatusUnavailable, repo.batches[newer].Status)
	require.InDelta(t, 7, repo.batches[older].AvailableQuantity, 1e-9)
	require.Len(t, alerts.batches, 2)
}

func TestCreateTabShotPricing(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedBatch(stock.Batch{ItemID: 1, TotalQuantity: 3, AvailableQuantity: 3, SellingPrice: 50, Status: stock.StatusAvailable})
	svc := newTestService(repo, barCatalog(), nil)

	tab, err := svc.CreateTab(context.Background(), CreateTabInput{
		Lines: []LineInput{{ItemID: 1, Quantity: 1, ShotsPerContainer: 16}},
	})
	require.NoError(t, err)
	require.Len(t, tab.Orders, 1)
	require.Equal(t, PricingShot, tab.Orders[0].Pricing)
	require.InDelta(t, 800, tab.Orders[0].Total, 1e-9)
}

func TestCreateTabInsufficientStockRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	older := repo.seedBatch(stock.Batch{ItemID: 1, TotalQuantity: 10, AvailableQuantity: 10, SellingPrice: 200, Status: stock.StatusAvailable})
	newer := repo.seedBatch(stock.Batch{ItemID: 1, TotalQuantity: 5, AvailableQuantity: 5, SellingPrice: 250, Status: stock.StatusAvailable})
	svc := newTestService(repo, barCatalog(), nil)

	_, err := svc.CreateTab(context.Background(), CreateTabInput{
		Lines: []LineInput{
			{DishID: 7, Quantity: 1},
			{ItemID: 1, Quantity: 20},
		},
	})
	require.ErrorIs(t, err, stock.ErrInsufficientStock)

	require.Empty(t, repo.tabs)
	require.Empty(t, repo.orders)
	require.InDelta(t, 10, repo.batches[older].AvailableQuantity, 1e-9)
	require.InDelta(t, 5, repo.batches[newer].AvailableQuantity, 1e-9)
}

func TestCreateTabValidation(t *testing.T) {
	svc := newTestService(newMemoryRepo(), barCatalog(), nil)
	ctx := context.Background()

	_, err := svc.CreateTab(ctx, CreateTabInput{})
	require.ErrorIs(t, err, ErrNoLines)

	_, err = svc.CreateTab(ctx, CreateTabInput{Lines: []LineInput{{ItemID: 1, DishID: 7, Quantity: 1}}})
	require.ErrorIs(t, err, ErrLineTarget)

	_, err = svc.CreateTab(ctx, CreateTabInput{Lines: []LineInput{{Quantity: 1}}})
	require.ErrorIs(t, err, ErrLineTarget)

	_, err = svc.CreateTab(ctx, CreateTabInput{Lines: []LineInput{{ItemID: 1, Quantity: 0}}})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.CreateTab(ctx, CreateTabInput{Lines: []LineInput{{DishID: 7, Quantity: 1, ShotsPerContainer: 10}}})
	require.Error(t, err)
}

func TestGetTabStatusReflectsPayments(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedBatch(stock.Batch{ItemID: 1, TotalQuantity: 5, AvailableQuantity: 5, SellingPrice: 100, Status: stock.StatusAvailable})
	svc := newTestService(repo, barCatalog(), nil)

	tab, err := svc.CreateTab(context.Background(), CreateTabInput{
		Lines: []LineInput{{ItemID: 1, Quantity: 2}},
	})
	require.NoError(t, err)

	repo.payments[tab.ID] = 50
	got, err := svc.GetTab(context.Background(), tab.ID)
	require.NoError(t, err)
	require.Equal(t, "PARTIAL", got.PaymentStatus)
	require.InDelta(t, 150, got.TotalRemaining, 1e-9)

	repo.payments[tab.ID] = 200
	got, err = svc.GetTab(context.Background(), tab.ID)
	require.NoError(t, err)
	require.Equal(t, "PAID", got.PaymentStatus)
}
