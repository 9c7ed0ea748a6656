package finance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sprout-farm/sprout/internal/ledger"
)

func entry(typ ledger.EntryType, item string, qty, price float64) ledger.Entry {
	e := ledger.Entry{
		Type:           typ,
		ItemName:       item,
		QuantityChange: qty,
		UnitPrice:      price,
	}
	e.TotalValue = qty * price
	if e.TotalValue < 0 {
		e.TotalValue = -e.TotalValue
	}
	return e
}

func TestSummarizeRevenueAndExpenses(t *testing.T) {
	entries := []ledger.Entry{
		entry(ledger.EntryTypePurchase, "Tomato Seeds", 100, 5), // 500 expense
		entry(ledger.EntryTypeSale, "Tomatoes", -40, 20),        // 800 revenue
	}

	summary := Summarize(entries)
	require.Equal(t, 800.0, summary.TotalRevenue)
	require.Equal(t, 500.0, summary.TotalExpenses)
	require.Equal(t, 300.0, summary.NetProfit)
	require.Equal(t, 60.0, summary.ROI)
	require.Equal(t, 2, summary.EntryCount)
	require.Equal(t, 800.0, summary.Breakdown.RevenueByItem["Tomatoes"])
	require.Equal(t, 500.0, summary.Breakdown.ExpensesByType["PURCHASE"])
	require.Equal(t, 500.0, summary.Breakdown.ExpensesByItem["Tomato Seeds"])
}

func TestSummarizeROIClampsWithoutExpenses(t *testing.T) {
	summary := Summarize([]ledger.Entry{
		entry(ledger.EntryTypeSale, "Herbs", -10, 3),
	})
	require.Equal(t, 30.0, summary.TotalRevenue)
	require.Zero(t, summary.TotalExpenses)
	require.Equal(t, 100.0, summary.ROI)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	require.Zero(t, summary.TotalRevenue)
	require.Zero(t, summary.TotalExpenses)
	require.Zero(t, summary.NetProfit)
	require.Zero(t, summary.ROI)
	require.Zero(t, summary.EntryCount)
	require.NotNil(t, summary.Breakdown.RevenueByItem)
	require.NotNil(t, summary.Breakdown.ExpensesByType)
	require.NotNil(t, summary.Breakdown.ExpensesByItem)
}

func TestSummarizeNeutralEntriesDoNotContribute(t *testing.T) {
	entries := []ledger.Entry{
		entry(ledger.EntryTypeSale, "Tomatoes", -10, 10),   // 100 revenue
		entry(ledger.EntryTypeAdjustment, "Pots", -5, 0),   // neutral
		entry(ledger.EntryTypeAdjustment, "Pots", 3, 1.25), // neutral
	}
	summary := Summarize(entries)
	require.Equal(t, 100.0, summary.TotalRevenue)
	require.Zero(t, summary.TotalExpenses)
	require.Equal(t, 3, summary.EntryCount)
	require.Empty(t, summary.Breakdown.ExpensesByType)
}

func TestSummarizeIsDeterministic(t *testing.T) {
	entries := []ledger.Entry{
		entry(ledger.EntryTypePurchase, "Fertilizer", 20, 8),
		entry(ledger.EntryTypeFertilizerUsed, "Fertilizer", -5, 8),
		entry(ledger.EntryTypeSale, "Peppers", -12, 15),
	}
	first := Summarize(entries)
	second := Summarize(entries)
	require.Equal(t, first, second)
}

func TestSummarizePlant(t *testing.T) {
	const plantID = "f6d9c8b7-a1e2-4c3d-9e8f-7a6b5c4d3e2f"
	entries := []ledger.Entry{
		entry(ledger.EntryTypeSeedPlanted, "Tomato Seeds", -10, 2), // 20
		entry(ledger.EntryTypeFertilizerUsed, "Compost", -4, 5),    // 20
		entry(ledger.EntryTypeSale, "Tomatoes", -6, 12),            // revenue, excluded
	}
	costs := SummarizePlant(plantID, entries)
	require.Equal(t, plantID, costs.PlantID)
	require.Equal(t, 40.0, costs.TotalCost)
	require.Equal(t, 20.0, costs.CostByType["SEED_PLANTED"])
	require.Equal(t, 20.0, costs.CostByItem["Compost"])
	require.Equal(t, 3, costs.EntryCount)
}
