// Package financehttp exposes the financial summary endpoints consumed by
// the dashboard and reports pages.
package financehttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/sprout-farm/sprout/internal/finance"
	"github.com/sprout-farm/sprout/internal/ledger"
	"github.com/sprout-farm/sprout/internal/platform/httpx"
	"github.com/sprout-farm/sprout/internal/shared"
)

const requestTimeout = 5 * time.Second

// SummaryService is the finance contract used by the handler.
type SummaryService interface {
	Summarize(ctx context.Context, userID string, period finance.Period) (finance.Summary, error)
	SummarizeRange(ctx context.Context, userID string, from, to time.Time) (finance.Summary, error)
	PlantCosts(ctx context.Context, userID, plantID string) (finance.PlantCosts, error)
}

// StockService supplies the low-stock slice of the dashboard.
type StockService interface {
	LowStockItems(ctx context.Context, userID string) ([]ledger.Item, error)
}

// Handler coordinates HTTP requests for financial views.
type Handler struct {
	logger  *slog.Logger
	finance SummaryService
	stock   StockService
}

// NewHandler constructs the finance HTTP handler.
func NewHandler(logger *slog.Logger, financeSvc SummaryService, stock StockService) *Handler {
	return &Handler{logger: logger, finance: financeSvc, stock: stock}
}

// MountRoutes registers finance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/finance/summary", h.handleSummary)
	r.Get("/finance/dashboard", h.handleDashboard)
	r.Get("/plants/{plantID}/costs", h.handlePlantCosts)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID := shared.UserIDFromContext(r.Context())
	if userID == "" {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := r.URL.Query()
	if q.Get("from") != "" || q.Get("to") != "" {
		from, to, err := parseRange(q.Get("from"), q.Get("to"))
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		summary, err := h.finance.SummarizeRange(ctx, userID, from, to)
		if err != nil {
			h.logger.Error("summarize range failed", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		httpx.JSON(w, http.StatusOK, summary)
		return
	}

	period := finance.Period(q.Get("period"))
	if period == "" {
		period = finance.PeriodAllTime
	}
	if !period.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown period name")
		return
	}
	summary, err := h.finance.Summarize(ctx, userID, period)
	if err != nil {
		h.logger.Error("summarize failed", slog.String("period", string(period)), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

type dashboardResponse struct {
	Summary  finance.Summary `json:"summary"`
	LowStock []lowStockItem  `json:"lowStock"`
}

type lowStockItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Stock     float64 `json:"stock"`
	Unit      string  `json:"unit"`
	Threshold float64 `json:"lowStockThreshold"`
}

// handleDashboard serves the landing page payload: the period summary and the
// low-stock shortlist, fetched in parallel.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID := shared.UserIDFromContext(r.Context())
	if userID == "" {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	period := finance.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = finance.PeriodThisMonth
	}
	if !period.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown period name")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var resp dashboardResponse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := h.finance.Summarize(gctx, userID, period)
		if err != nil {
			return err
		}
		resp.Summary = summary
		return nil
	})
	g.Go(func() error {
		items, err := h.stock.LowStockItems(gctx, userID)
		if err != nil {
			return err
		}
		low := make([]lowStockItem, 0, len(items))
		for _, item := range items {
			low = append(low, lowStockItem{
				ID:        item.ID,
				Name:      item.Name,
				Stock:     item.Stock,
				Unit:      item.Unit,
				Threshold: item.LowStockThreshold,
			})
		}
		resp.LowStock = low
		return nil
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("dashboard fetch failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePlantCosts(w http.ResponseWriter, r *http.Request) {
	userID := shared.UserIDFromContext(r.Context())
	if userID == "" {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	costs, err := h.finance.PlantCosts(ctx, userID, chi.URLParam(r, "plantID"))
	if err != nil {
		h.logger.Error("plant costs failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, costs)
}

func parseRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if fromRaw != "" {
		if from, err = time.Parse(time.RFC3339, fromRaw); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if toRaw != "" {
		if to, err = time.Parse(time.RFC3339, toRaw); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return from, to, nil
}
