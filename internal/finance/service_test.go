package finance

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sprout-farm/sprout/internal/ledger"
)

type fakeEntrySource struct {
	entries []ledger.Entry
	calls   int
	filters []ledger.EntryFilter
}

func (f *fakeEntrySource) QueryEntries(ctx context.Context, filter ledger.EntryFilter) ([]ledger.Entry, error) {
	f.calls++
	f.filters = append(f.filters, filter)
	matched := []ledger.Entry{}
	for _, e := range f.entries {
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if filter.PlantID != "" && e.PlantID != filter.PlantID {
			continue
		}
		if !filter.From.IsZero() && e.OccurredAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !e.OccurredAt.Before(filter.To) {
			continue
		}
		matched = append(matched, e)
	}
	return matched, nil
}

func testCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func saleEntry(userID string, at time.Time, total float64) ledger.Entry {
	return ledger.Entry{
		ID:         "e-" + at.Format("150405"),
		Type:       ledger.EntryTypeSale,
		ItemName:   "Tomatoes",
		OccurredAt: at,
		TotalValue: total,
		UserID:     userID,
	}
}

func TestSummarizeUsesCache(t *testing.T) {
	now := time.Date(2026, time.March, 19, 12, 0, 0, 0, time.UTC)
	source := &fakeEntrySource{entries: []ledger.Entry{
		saleEntry("farmer-1", now.Add(-time.Hour), 250),
	}}
	svc := NewService(nil, source, testCache(t), time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	first, err := svc.Summarize(ctx, "farmer-1", PeriodToday)
	require.NoError(t, err)
	require.Equal(t, 250.0, first.TotalRevenue)

	second, err := svc.Summarize(ctx, "farmer-1", PeriodToday)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, source.calls)
}

func TestEntryCommittedInvalidatesCache(t *testing.T) {
	now := time.Date(2026, time.March, 19, 12, 0, 0, 0, time.UTC)
	source := &fakeEntrySource{entries: []ledger.Entry{
		saleEntry("farmer-1", now.Add(-time.Hour), 250),
	}}
	svc := NewService(nil, source, testCache(t), time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	before, err := svc.Summarize(ctx, "farmer-1", PeriodToday)
	require.NoError(t, err)
	require.Equal(t, 250.0, before.TotalRevenue)

	committed := saleEntry("farmer-1", now.Add(-30*time.Minute), 100)
	source.entries = append(source.entries, committed)
	svc.EntryCommitted(ctx, committed)

	after, err := svc.Summarize(ctx, "farmer-1", PeriodToday)
	require.NoError(t, err)
	require.Equal(t, 350.0, after.TotalRevenue)
	require.Equal(t, 2, source.calls)
}

func TestSummarizeScopesWindow(t *testing.T) {
	now := time.Date(2026, time.March, 19, 12, 0, 0, 0, time.UTC)
	source := &fakeEntrySource{entries: []ledger.Entry{
		saleEntry("farmer-1", now.Add(-time.Hour), 250),
		saleEntry("farmer-1", now.AddDate(0, 0, -2), 999),
	}}
	svc := NewService(nil, source, nil, time.UTC)
	svc.now = func() time.Time { return now }

	summary, err := svc.Summarize(context.Background(), "farmer-1", PeriodToday)
	require.NoError(t, err)
	require.Equal(t, 250.0, summary.TotalRevenue)
	require.Equal(t, 1, summary.EntryCount)
}

func TestSummarizeRequiresUser(t *testing.T) {
	svc := NewService(nil, &fakeEntrySource{}, nil, time.UTC)
	_, err := svc.Summarize(context.Background(), "", PeriodToday)
	require.Error(t, err)
}

func TestSummarizeRangeValidatesWindow(t *testing.T) {
	svc := NewService(nil, &fakeEntrySource{}, nil, time.UTC)
	from := time.Date(2026, time.March, 19, 0, 0, 0, 0, time.UTC)
	_, err := svc.SummarizeRange(context.Background(), "farmer-1", from, from.AddDate(0, 0, -1))
	require.Error(t, err)
}

func TestPlantCostsFiltersByPlant(t *testing.T) {
	const plantID = "f6d9c8b7-a1e2-4c3d-9e8f-7a6b5c4d3e2f"
	now := time.Now().UTC()
	source := &fakeEntrySource{entries: []ledger.Entry{
		{Type: ledger.EntryTypeSeedPlanted, ItemName: "Tomato Seeds", OccurredAt: now, TotalValue: 20, UserID: "farmer-1", PlantID: plantID},
		{Type: ledger.EntryTypeFertilizerUsed, ItemName: "Compost", OccurredAt: now, TotalValue: 35, UserID: "farmer-1"},
	}}
	svc := NewService(nil, source, nil, time.UTC)

	costs, err := svc.PlantCosts(context.Background(), "farmer-1", plantID)
	require.NoError(t, err)
	require.Equal(t, 20.0, costs.TotalCost)
	require.Equal(t, 1, costs.EntryCount)
}
