package stock

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var alertPrinter = message.NewPrinter(language.English)

func lowStockMessage(b Batch) string {
	return alertPrinter.Sprintf("Low stock alert: batch #%d (item %d) is down to %v of %v purchased. Threshold is %v.",
		b.ID, b.ItemID, number(b.AvailableQuantity), number(b.TotalQuantity), number(b.Threshold))
}

func outOfStockMessage(b Batch) string {
	return alertPrinter.Sprintf("Out of stock: batch #%d (item %d) has been fully depleted and marked unavailable.", b.ID, b.ItemID)
}

func number(v float64) any {
	if v == float64(int64(v)) {
		return int64(v)
	}
	return v
}
