package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sprout-farm/sprout/internal/platform/httpx"
	"github.com/sprout-farm/sprout/internal/shared"
)

// Handler wires the JSON endpoints for items and ledger entries.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/entries", func(r chi.Router) {
		r.Post("/", h.handleApply)
		r.Get("/", h.handleQuery)
	})
	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.handleListItems)
		r.Get("/low-stock", h.handleLowStock)
		r.Get("/{itemID}", h.handleGetItem)
	})
}

type applyRequest struct {
	ItemID    string  `json:"itemId" validate:"required,uuid4"`
	Delta     float64 `json:"quantityChange" validate:"required"`
	Type      string  `json:"type" validate:"required"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
	Notes     string  `json:"notes" validate:"max=1000"`
	PlantID   string  `json:"plantId" validate:"omitempty,uuid4"`
}

type entryResponse struct {
	ID             string    `json:"id"`
	ItemID         string    `json:"itemId"`
	ItemName       string    `json:"itemName"`
	Unit           string    `json:"unit"`
	OccurredAt     time.Time `json:"timestamp"`
	Type           string    `json:"type"`
	QuantityChange float64   `json:"quantityChange"`
	UnitPrice      float64   `json:"costOrValuePerUnit"`
	TotalValue     float64   `json:"totalCostOrValue"`
	Notes          string    `json:"notes,omitempty"`
	UserID         string    `json:"userId"`
	PlantID        string    `json:"plantId,omitempty"`
}

type itemResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	Stock             float64   `json:"stock"`
	Unit              string    `json:"unit"`
	PricePerUnit      float64   `json:"pricePerUnit"`
	LowStockThreshold float64   `json:"lowStockThreshold"`
	Status            string    `json:"status"`
	LastUpdated       time.Time `json:"lastUpdated"`
}

func toEntryResponse(e Entry) entryResponse {
	return entryResponse{
		ID:             e.ID,
		ItemID:         e.ItemID,
		ItemName:       e.ItemName,
		Unit:           e.Unit,
		OccurredAt:     e.OccurredAt,
		Type:           string(e.Type),
		QuantityChange: e.QuantityChange,
		UnitPrice:      e.UnitPrice,
		TotalValue:     e.TotalValue,
		Notes:          e.Notes,
		UserID:         e.UserID,
		PlantID:        e.PlantID,
	}
}

func toItemResponse(item Item) itemResponse {
	return itemResponse{
		ID:                item.ID,
		Name:              item.Name,
		Category:          string(item.Category),
		Stock:             item.Stock,
		Unit:              item.Unit,
		PricePerUnit:      item.PricePerUnit,
		LowStockThreshold: item.LowStockThreshold,
		Status:            string(Status(item)),
		LastUpdated:       item.LastUpdated,
	}
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	userID := shared.UserIDFromContext(r.Context())
	if userID == "" {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req applyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	entry, err := h.service.Apply(r.Context(), ApplyInput{
		ItemID:    req.ItemID,
		Delta:     req.Delta,
		Type:      EntryType(req.Type),
		UnitPrice: req.UnitPrice,
		Notes:     req.Notes,
		PlantID:   req.PlantID,
		UserID:    userID,
	})
	if err != nil {
		h.respondApplyError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) respondApplyError(w http.ResponseWriter, r *http.Request, err error) {
	var insufficient *InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		httpx.JSON(w, http.StatusConflict, map[string]any{
			"title":     "Insufficient Stock",
			"status":    http.StatusConflict,
			"detail":    shared.UserSafeMessage(err),
			"available": insufficient.Available,
		})
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err))
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidUnitPrice):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrRetryExhausted):
		httpx.Problem(w, http.StatusServiceUnavailable, "Temporarily Unavailable",
			"the item is under heavy contention, please retry")
	default:
		h.logger.Error("apply mutation failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	userID := shared.UserIDFromContext(r.Context())
	if userID == "" {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	filter, err := parseEntryFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entries, err := h.service.QueryEntries(r.Context(), userID, filter)
	if err != nil {
		h.logger.Error("query entries failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	userID := shared.UserIDFromContext(r.Context())
	if userID == "" {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	items, err := h.service.ListItems(r.Context(), userID)
	if err != nil {
		h.logger.Error("list items failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	userID := shared.UserIDFromContext(r.Context())
	if userID == "" {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	items, err := h.service.LowStockItems(r.Context(), userID)
	if err != nil {
		h.logger.Error("list low stock failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	userID := shared.UserIDFromContext(r.Context())
	if userID == "" {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	item, err := h.service.GetItem(r.Context(), userID, chi.URLParam(r, "itemID"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("get item failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, toItemResponse(item))
}

func parseEntryFilter(r *http.Request) (EntryFilter, error) {
	q := r.URL.Query()
	filter := EntryFilter{
		ItemID:           q.Get("itemId"),
		ItemNameContains: q.Get("itemName"),
		PlantID:          q.Get("plantId"),
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return EntryFilter{}, errors.New("from must be RFC3339")
		}
		filter.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return EntryFilter{}, errors.New("to must be RFC3339")
		}
		filter.To = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return EntryFilter{}, errors.New("limit must be a non-negative integer")
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return EntryFilter{}, errors.New("offset must be a non-negative integer")
		}
		filter.Offset = n
	}
	return filter, nil
}
