package reports

import (
	"fmt"
	"time"

	"github.com/tavern-pos/tavern/internal/shared"
)

var (
	ErrInvalidWindow = fmt.Errorf("%w: report window start must precede end", shared.ErrValidation)
)

// Totals are the raw sums gathered for one window. Every field is
// zero-coalesced at the query level so an empty window reports zeros,
// not nulls.
type Totals struct {
	TotalOrders        int64   `json:"total_orders"`
	TotalSales         float64 `json:"total_sales"`
	TotalPaid          float64 `json:"total_paid"`
	TotalUnpaid        float64 `json:"total_unpaid"`
	TotalExpenditure   float64 `json:"total_expenditure"`
	TotalPayroll       float64 `json:"total_payroll"`
	TotalInventoryCost float64 `json:"total_inventory_cost"`
	BreakageLoss       float64 `json:"breakage_loss"`
	CreditOutstanding  float64 `json:"credit_outstanding"`
}

// Report is the aggregate view served to the dashboard.
type Report struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	Totals
	NetProfit float64 `json:"net_profit"`
}

func buildReport(from, to time.Time, t Totals) Report {
	return Report{
		From:      from,
		To:        to,
		Totals:    t,
		NetProfit: t.TotalSales - (t.TotalUnpaid + t.TotalExpenditure + t.TotalPayroll + t.TotalInventoryCost),
	}
}
