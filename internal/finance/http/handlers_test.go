package financehttp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sprout-farm/sprout/internal/finance"
	"github.com/sprout-farm/sprout/internal/ledger"
	"github.com/sprout-farm/sprout/internal/shared"
)

type fakeFinance struct {
	summary     finance.Summary
	lastPeriod  finance.Period
	rangeCalled bool
}

func (f *fakeFinance) Summarize(ctx context.Context, userID string, period finance.Period) (finance.Summary, error) {
	f.lastPeriod = period
	return f.summary, nil
}

func (f *fakeFinance) SummarizeRange(ctx context.Context, userID string, from, to time.Time) (finance.Summary, error) {
	f.rangeCalled = true
	return f.summary, nil
}

func (f *fakeFinance) PlantCosts(ctx context.Context, userID, plantID string) (finance.PlantCosts, error) {
	return finance.PlantCosts{PlantID: plantID, TotalCost: 42}, nil
}

type fakeStock struct {
	items []ledger.Item
}

func (f *fakeStock) LowStockItems(ctx context.Context, userID string) ([]ledger.Item, error) {
	return f.items, nil
}

func newRouter(financeSvc *fakeFinance, stock *fakeStock) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, financeSvc, stock)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func get(t *testing.T, h http.Handler, target, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if userID != "" {
		req = req.WithContext(shared.ContextWithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleSummaryDefaultsToAllTime(t *testing.T) {
	svc := &fakeFinance{summary: finance.Summary{TotalRevenue: 800, TotalExpenses: 500, NetProfit: 300, ROI: 60}}
	rec := get(t, newRouter(svc, &fakeStock{}), "/finance/summary", "farmer-1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, finance.PeriodAllTime, svc.lastPeriod)

	var summary finance.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Equal(t, 60.0, summary.ROI)
}

func TestHandleSummaryNamedPeriod(t *testing.T) {
	svc := &fakeFinance{}
	rec := get(t, newRouter(svc, &fakeStock{}), "/finance/summary?period=this_week", "farmer-1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, finance.PeriodThisWeek, svc.lastPeriod)
}

func TestHandleSummaryRejectsUnknownPeriod(t *testing.T) {
	rec := get(t, newRouter(&fakeFinance{}, &fakeStock{}), "/finance/summary?period=fortnight", "farmer-1")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSummaryCustomRange(t *testing.T) {
	svc := &fakeFinance{}
	rec := get(t, newRouter(svc, &fakeStock{}),
		"/finance/summary?from=2026-01-01T00:00:00Z&to=2026-02-01T00:00:00Z", "farmer-1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, svc.rangeCalled)

	rec = get(t, newRouter(&fakeFinance{}, &fakeStock{}), "/finance/summary?from=january", "farmer-1")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSummaryRequiresIdentity(t *testing.T) {
	rec := get(t, newRouter(&fakeFinance{}, &fakeStock{}), "/finance/summary", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleDashboard(t *testing.T) {
	svc := &fakeFinance{summary: finance.Summary{TotalRevenue: 120}}
	stock := &fakeStock{items: []ledger.Item{
		{ID: "item-1", Name: "Tomato Seeds", Stock: 3, Unit: "g", LowStockThreshold: 10},
	}}
	rec := get(t, newRouter(svc, stock), "/finance/dashboard", "farmer-1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, finance.PeriodThisMonth, svc.lastPeriod)

	var resp struct {
		Summary  finance.Summary `json:"summary"`
		LowStock []struct {
			Name  string  `json:"name"`
			Stock float64 `json:"stock"`
		} `json:"lowStock"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 120.0, resp.Summary.TotalRevenue)
	require.Len(t, resp.LowStock, 1)
	require.Equal(t, "Tomato Seeds", resp.LowStock[0].Name)
}

func TestHandlePlantCosts(t *testing.T) {
	rec := get(t, newRouter(&fakeFinance{}, &fakeStock{}),
		"/plants/f6d9c8b7-a1e2-4c3d-9e8f-7a6b5c4d3e2f/costs", "farmer-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var costs finance.PlantCosts
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &costs))
	require.Equal(t, 42.0, costs.TotalCost)
}
