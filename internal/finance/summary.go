package finance

import "github.com/sprout-farm/sprout/internal/ledger"

// Summary is the financial picture of a set of entries. It is never
// persisted; identical inputs always reproduce identical summaries.
type Summary struct {
	TotalRevenue  float64   `json:"totalRevenue"`
	TotalExpenses float64   `json:"totalExpenses"`
	NetProfit     float64   `json:"netProfit"`
	ROI           float64   `json:"roi"`
	EntryCount    int       `json:"entryCount"`
	Breakdown     Breakdown `json:"breakdown"`
}

// Breakdown keys the same fold by item name and entry type.
type Breakdown struct {
	RevenueByItem  map[string]float64 `json:"revenueByItem"`
	ExpensesByType map[string]float64 `json:"expensesByType"`
	ExpensesByItem map[string]float64 `json:"expensesByItem"`
}

// Summarize folds classified entries into a Summary. ROI is net profit over
// expenses as a percentage; revenue with zero recorded expense clamps to 100
// rather than reporting an undefined ratio.
func Summarize(entries []ledger.Entry) Summary {
	summary := Summary{
		EntryCount: len(entries),
		Breakdown: Breakdown{
			RevenueByItem:  map[string]float64{},
			ExpensesByType: map[string]float64{},
			ExpensesByItem: map[string]float64{},
		},
	}

	for _, entry := range entries {
		switch Classify(entry) {
		case BucketRevenue:
			summary.TotalRevenue += entry.TotalValue
			summary.Breakdown.RevenueByItem[entry.ItemName] += entry.TotalValue
		case BucketExpense:
			summary.TotalExpenses += entry.TotalValue
			summary.Breakdown.ExpensesByType[string(entry.Type)] += entry.TotalValue
			summary.Breakdown.ExpensesByItem[entry.ItemName] += entry.TotalValue
		}
	}

	summary.NetProfit = summary.TotalRevenue - summary.TotalExpenses
	switch {
	case summary.TotalExpenses > 0:
		summary.ROI = summary.NetProfit / summary.TotalExpenses * 100
	case summary.TotalRevenue > 0:
		summary.ROI = 100
	default:
		summary.ROI = 0
	}
	return summary
}

// PlantCosts is the cost view of one plant, folded from its linked entries.
type PlantCosts struct {
	PlantID    string             `json:"plantId"`
	TotalCost  float64            `json:"totalCost"`
	CostByType map[string]float64 `json:"costByType"`
	CostByItem map[string]float64 `json:"costByItem"`
	EntryCount int                `json:"entryCount"`
}

// SummarizePlant folds entries linked to one plant into its cost view. Only
// expense-classified entries contribute.
func SummarizePlant(plantID string, entries []ledger.Entry) PlantCosts {
	costs := PlantCosts{
		PlantID:    plantID,
		CostByType: map[string]float64{},
		CostByItem: map[string]float64{},
		EntryCount: len(entries),
	}
	for _, entry := range entries {
		if Classify(entry) != BucketExpense {
			continue
		}
		costs.TotalCost += entry.TotalValue
		costs.CostByType[string(entry.Type)] += entry.TotalValue
		costs.CostByItem[entry.ItemName] += entry.TotalValue
	}
	return costs
}
