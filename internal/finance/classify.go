// Package finance derives financial summaries from the ledger entry stream.
// Numbers are always recomputed by folding entries, never read from mutable
// side totals.
package finance

import "github.com/sprout-farm/sprout/internal/ledger"

// Bucket is the financial classification of one ledger entry.
type Bucket string

const (
	BucketRevenue Bucket = "REVENUE"
	BucketExpense Bucket = "EXPENSE"
	BucketNeutral Bucket = "NEUTRAL"
)

// Classify maps an entry to its financial bucket. Sales are revenue;
// acquisitions and consumptions are expenses. Adjustments only count as an
// expense when they are a costed loss: a correction with no assigned cost, or
// a positive "found stock" adjustment, must not invent revenue.
func Classify(entry ledger.Entry) Bucket {
	switch entry.Type {
	case ledger.EntryTypeSale:
		return BucketRevenue
	case ledger.EntryTypePurchase, ledger.EntryTypeSeedPlanted, ledger.EntryTypeFertilizerUsed,
		ledger.EntryTypeMaterialUsed, ledger.EntryTypeInitialStock:
		return BucketExpense
	case ledger.EntryTypeAdjustment:
		if entry.QuantityChange < 0 && entry.UnitPrice > 0 {
			return BucketExpense
		}
		return BucketNeutral
	default:
		return BucketNeutral
	}
}
