package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sprout-farm/sprout/internal/shared"
)

func newTestRouter(t *testing.T, repo *memoryRepo) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	handler := NewHandler(logger, NewService(repo, nil, nil, ServiceConfig{}))
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

func doRequest(t *testing.T, h http.Handler, method, target, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if userID != "" {
		req = req.WithContext(shared.ContextWithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleApplyCreatesEntry(t *testing.T) {
	repo := newMemoryRepo(seedItem(100, 20))
	router := newTestRouter(t, repo)

	body := fmt.Sprintf(`{"itemId":%q,"quantityChange":-30,"type":"SEED_PLANTED","unitPrice":2.5}`, testItemID)
	rec := doRequest(t, router, http.MethodPost, "/entries", testUserID, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ID             string  `json:"id"`
		ItemName       string  `json:"itemName"`
		QuantityChange float64 `json:"quantityChange"`
		TotalValue     float64 `json:"totalCostOrValue"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	require.Equal(t, "Tomato Seeds", resp.ItemName)
	require.Equal(t, -30.0, resp.QuantityChange)
	require.Equal(t, 75.0, resp.TotalValue)
}

func TestHandleApplyInsufficientStock(t *testing.T) {
	repo := newMemoryRepo(seedItem(10, 5))
	router := newTestRouter(t, repo)

	body := fmt.Sprintf(`{"itemId":%q,"quantityChange":-15,"type":"SALE","unitPrice":1}`, testItemID)
	rec := doRequest(t, router, http.MethodPost, "/entries", testUserID, body)
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Available float64 `json:"available"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 10.0, resp.Available)
}

func TestHandleApplyValidation(t *testing.T) {
	repo := newMemoryRepo(seedItem(100, 20))
	router := newTestRouter(t, repo)

	cases := []struct {
		name string
		body string
	}{
		{"missing item id", `{"quantityChange":-5,"type":"SALE"}`},
		{"malformed item id", `{"itemId":"nope","quantityChange":-5,"type":"SALE"}`},
		{"wrong sign for type", fmt.Sprintf(`{"itemId":%q,"quantityChange":5,"type":"SALE"}`, testItemID)},
		{"not json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/entries", testUserID, tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	require.Empty(t, repo.entries)
}

func TestHandleApplyUnknownItem(t *testing.T) {
	repo := newMemoryRepo()
	router := newTestRouter(t, repo)

	body := fmt.Sprintf(`{"itemId":%q,"quantityChange":10,"type":"PURCHASE","unitPrice":1}`, testItemID)
	rec := doRequest(t, router, http.MethodPost, "/entries", testUserID, body)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleApplyRequiresIdentity(t *testing.T) {
	router := newTestRouter(t, newMemoryRepo(seedItem(100, 20)))

	body := fmt.Sprintf(`{"itemId":%q,"quantityChange":-5,"type":"SALE"}`, testItemID)
	rec := doRequest(t, router, http.MethodPost, "/entries", "", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleQueryEntries(t *testing.T) {
	repo := newMemoryRepo(seedItem(100, 20))
	router := newTestRouter(t, repo)

	for _, body := range []string{
		fmt.Sprintf(`{"itemId":%q,"quantityChange":-10,"type":"SEED_PLANTED","unitPrice":2}`, testItemID),
		fmt.Sprintf(`{"itemId":%q,"quantityChange":-5,"type":"SALE","unitPrice":8}`, testItemID),
	} {
		rec := doRequest(t, router, http.MethodPost, "/entries", testUserID, body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doRequest(t, router, http.MethodGet, "/entries?itemName=tomato", testUserID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Entries []entryResponse `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 2)
	// Newest first.
	require.Equal(t, "SALE", resp.Entries[0].Type)
}

func TestHandleQueryRejectsBadRange(t *testing.T) {
	router := newTestRouter(t, newMemoryRepo())
	rec := doRequest(t, router, http.MethodGet, "/entries?from=yesterday", testUserID, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleItems(t *testing.T) {
	low := seedItem(5, 20)
	repo := newMemoryRepo(low)
	router := newTestRouter(t, repo)

	rec := doRequest(t, router, http.MethodGet, "/items", testUserID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp struct {
		Items []itemResponse `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	require.Len(t, listResp.Items, 1)
	require.Equal(t, "LOW", listResp.Items[0].Status)

	rec = doRequest(t, router, http.MethodGet, "/items/low-stock", testUserID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/items/"+testItemID, testUserID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/items/"+testItemID, "someone-else", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
