package jobs

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var smsPrinter = message.NewPrinter(language.English)

func lowStockScanMessage(lt lowTrunk) string {
	if lt.available <= 0 {
		return smsPrinter.Sprintf("Stock check: %s is out of stock.", lt.itemName)
	}
	return smsPrinter.Sprintf("Stock check: %s is low (%v left, threshold %v). Restock soon.",
		lt.itemName, number(lt.available), number(lt.threshold))
}

func number(v float64) any {
	if v == float64(int64(v)) {
		return int64(v)
	}
	return v
}
