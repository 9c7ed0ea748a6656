package ledger

// StockStatus is the derived low-stock state of an item.
type StockStatus string

const (
	StatusLow        StockStatus = "LOW"
	StatusSufficient StockStatus = "SUFFICIENT"
)

// Status derives the stock status of an item. Pure and never persisted.
func Status(item Item) StockStatus {
	if item.Stock < item.LowStockThreshold {
		return StatusLow
	}
	return StatusSufficient
}
