package credit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryPayment struct {
	tabID      int64
	amountPaid float64
	status     string
}

type memoryRepo struct {
	customers  map[int64]CreditCustomer
	extensions map[int64]*CreditExtension
	payments   map[int64]*memoryPayment
	payable    map[int64]float64 // tab id -> payable
	history    []RepaymentHistory
	nextID     int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		customers:  make(map[int64]CreditCustomer),
		extensions: make(map[int64]*CreditExtension),
		payments:   make(map[int64]*memoryPayment),
		payable:    make(map[int64]float64),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	extensions := make(map[int64]*CreditExtension, len(r.extensions))
	for id, e := range r.extensions {
		copied := *e
		extensions[id] = &copied
	}
	payments := make(map[int64]*memoryPayment, len(r.payments))
	for id, p := range r.payments {
		copied := *p
		payments[id] = &copied
	}
	history := append([]RepaymentHistory(nil), r.history...)

	err := fn(ctx, &memoryTx{repo: r})
	if err != nil {
		r.extensions = extensions
		r.payments = payments
		r.history = history
	}
	return err
}

func (r *memoryRepo) InsertCustomer(ctx context.Context, c *CreditCustomer) error {
	r.nextID++
	c.ID = r.nextID
	r.customers[c.ID] = *c
	return nil
}

func (r *memoryRepo) GetCustomer(ctx context.Context, id int64) (CreditCustomer, error) {
	if c, ok := r.customers[id]; ok {
		return c, nil
	}
	return CreditCustomer{}, ErrCustomerNotFound
}

func (r *memoryRepo) ListCustomers(ctx context.Context) ([]CreditCustomer, error) { return nil, nil }

func (r *memoryRepo) UpdateCustomer(ctx context.Context, c CreditCustomer) error {
	if _, ok := r.customers[c.ID]; !ok {
		return ErrCustomerNotFound
	}
	r.customers[c.ID] = c
	return nil
}

func (r *memoryRepo) GetExtension(ctx context.Context, id int64) (CreditExtension, error) {
	if e, ok := r.extensions[id]; ok {
		return *e, nil
	}
	return CreditExtension{}, ErrExtensionNotFound
}

func (r *memoryRepo) ListExtensions(ctx context.Context, customerID int64, outstandingOnly bool) ([]CreditExtension, error) {
	var out []CreditExtension
	for _, e := range r.extensions {
		if e.CustomerID != customerID {
			continue
		}
		if outstandingOnly && e.Outstanding() <= 0 {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (r *memoryRepo) ListHistory(ctx context.Context, extensionID int64) ([]RepaymentHistory, error) {
	var out []RepaymentHistory
	for _, h := range r.history {
		if h.ExtensionID == extensionID {
			out = append(out, h)
		}
	}
	return out, nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) LockExtension(ctx context.Context, id int64) (CreditExtension, error) {
	return t.repo.GetExtension(ctx, id)
}

func (t *memoryTx) LockPayment(ctx context.Context, paymentID int64) (PaymentState, error) {
	p, ok := t.repo.payments[paymentID]
	if !ok {
		return PaymentState{}, ErrExtensionNotFound
	}
	return PaymentState{PaymentID: paymentID, TabID: p.tabID, AmountPaid: p.amountPaid}, nil
}

func (t *memoryTx) TabTotals(ctx context.Context, tabID int64) (float64, float64, error) {
	var paid float64
	for _, p := range t.repo.payments {
		if p.tabID == tabID {
			paid += p.amountPaid
		}
	}
	return t.repo.payable[tabID], paid, nil
}

func (t *memoryTx) UpdatePayment(ctx context.Context, paymentID int64, amountPaid float64, status string) error {
	p := t.repo.payments[paymentID]
	p.amountPaid = amountPaid
	p.status = status
	return nil
}

func (t *memoryTx) UpdateExtensionRepaid(ctx context.Context, id int64, amountRepaid float64) error {
	t.repo.extensions[id].AmountRepaid = amountRepaid
	return nil
}

func (t *memoryTx) InsertHistory(ctx context.Context, h *RepaymentHistory) error {
	t.repo.nextID++
	h.ID = t.repo.nextID
	t.repo.history = append(t.repo.history, *h)
	return nil
}

type captureNotifier struct {
	messages   []string
	recipients [][]string
}

func (c *captureNotifier) Notify(ctx context.Context, message string, recipients []string) {
	c.messages = append(c.messages, message)
	c.recipients = append(c.recipients, recipients)
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

// seedCredit sets up a tab of 1000 where 300 was paid cash and 700 was
// covered by customer 1's credit.
func seedCredit(repo *memoryRepo) (extensionID int64) {
	repo.customers[1] = CreditCustomer{ID: 1, Name: "Akinyi", Phone: "+254700000001", CreditLimit: 2000}
	repo.payable[10] = 1000
	repo.payments[20] = &memoryPayment{tabID: 10, amountPaid: 300, status: "PARTIAL"}
	repo.extensions[30] = &CreditExtension{ID: 30, PaymentID: 20, CustomerID: 1, Amount: 700}
	return 30
}

func newTestService(repo *memoryRepo, notifier Notifier) *Service {
	svc := NewService(repo, nil, notifier, testClassify)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 11, 0, 0, 0, time.UTC) }
	return svc
}

func TestRepayPartialInstalment(t *testing.T) {
	repo := newMemoryRepo()
	extID := seedCredit(repo)
	notifier := &captureNotifier{}
	svc := newTestService(repo, notifier)

	result, err := svc.Repay(context.Background(), RepayInput{ExtensionID: extID, Amount: 200})
	require.NoError(t, err)
	require.InDelta(t, 200, result.Extension.AmountRepaid, 1e-9)
	require.InDelta(t, 500, result.Extension.Outstanding(), 1e-9)
	require.Equal(t, "PARTIAL", result.PaymentStatus)

	// the cascade moved the parent payment by the same delta
	require.InDelta(t, 500, repo.payments[20].amountPaid, 1e-9)
	require.Equal(t, "PARTIAL", repo.payments[20].status)
	require.Len(t, repo.history, 1)

	require.Len(t, notifier.messages, 1)
	require.Equal(t, []string{"+254700000001"}, notifier.recipients[0])
}

func TestRepayFinalInstalmentSettlesPayment(t *testing.T) {
	repo := newMemoryRepo()
	extID := seedCredit(repo)
	svc := newTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.Repay(ctx, RepayInput{ExtensionID: extID, Amount: 400})
	require.NoError(t, err)
	result, err := svc.Repay(ctx, RepayInput{ExtensionID: extID, Amount: 300})
	require.NoError(t, err)

	require.Equal(t, "PAID", result.PaymentStatus)
	require.InDelta(t, 0, result.Extension.Outstanding(), 1e-9)
	require.InDelta(t, 1000, repo.payments[20].amountPaid, 1e-9)
	require.Len(t, repo.history, 2)
}

func TestRepayOverRepaymentRejected(t *testing.T) {
	repo := newMemoryRepo()
	extID := seedCredit(repo)
	svc := newTestService(repo, nil)

	_, err := svc.Repay(context.Background(), RepayInput{ExtensionID: extID, Amount: 800})
	require.ErrorIs(t, err, ErrOverRepayment)

	// nothing moved
	require.InDelta(t, 300, repo.payments[20].amountPaid, 1e-9)
	require.InDelta(t, 0, repo.extensions[30].AmountRepaid, 1e-9)
	require.Empty(t, repo.history)
}

func TestRepayValidation(t *testing.T) {
	repo := newMemoryRepo()
	extID := seedCredit(repo)
	svc := newTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.Repay(ctx, RepayInput{ExtensionID: extID, Amount: 0})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Repay(ctx, RepayInput{ExtensionID: 999, Amount: 100})
	require.ErrorIs(t, err, ErrExtensionNotFound)
}

func TestCreateCustomerValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.CreateCustomer(ctx, NewCustomerInput{Name: "  "})
	require.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.CreateCustomer(ctx, NewCustomerInput{Name: "Akinyi", CreditLimit: -1})
	require.ErrorIs(t, err, ErrInvalidLimit)

	customer, err := svc.CreateCustomer(ctx, NewCustomerInput{Name: " Akinyi ", Phone: "+254700000001", CreditLimit: 2000})
	require.NoError(t, err)
	require.Equal(t, "Akinyi", customer.Name)
	require.NotZero(t, customer.ID)
}
