package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posvenda/backend/internal/domain/serviceorder"
)

type fakeOrderRepository struct {
	list      func(ctx context.Context, filter serviceorder.ListFilter) ([]serviceorder.ServiceOrder, int64, error)
	findByID  func(ctx context.Context, id int64) (*serviceorder.ServiceOrder, error)
	completed func(ctx context.Context, now time.Time) ([]serviceorder.ServiceOrder, error)
}

func (f *fakeOrderRepository) UpsertBatch(context.Context, []*serviceorder.ServiceOrder) (int64, error) {
	return 0, nil
}

func (f *fakeOrderRepository) FindByID(ctx context.Context, id int64) (*serviceorder.ServiceOrder, error) {
	return f.findByID(ctx, id)
}

func (f *fakeOrderRepository) List(ctx context.Context, filter serviceorder.ListFilter) ([]serviceorder.ServiceOrder, int64, error) {
	return f.list(ctx, filter)
}

func (f *fakeOrderRepository) CompletedYesterday(ctx context.Context, now time.Time) ([]serviceorder.ServiceOrder, error) {
	return f.completed(ctx, now)
}

func ordersTestRouter(repo serviceorder.Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewOrdersHandler(repo).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func getPath(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestOrdersListAppliesFilters(t *testing.T) {
	var captured serviceorder.ListFilter
	repo := &fakeOrderRepository{
		list: func(_ context.Context, filter serviceorder.ListFilter) ([]serviceorder.ServiceOrder, int64, error) {
			captured = filter
			return []serviceorder.ServiceOrder{
				{IDOrdemServico: 1, Numero: "100", Status: "Finalizada"},
				{IDOrdemServico: 2, Numero: "101", Status: "Finalizada"},
			}, 12, nil
		},
	}
	r := ordersTestRouter(repo)

	w := getPath(r, "/api/v1/ordens?status=Finalizada&search=Centro&data_inicio=2026-03-01&data_fim=2026-03-31&page=2&page_size=5")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "Finalizada", captured.Status)
	assert.Equal(t, "Centro", captured.Search)
	require.NotNil(t, captured.DateFrom)
	assert.Equal(t, "2026-03-01", captured.DateFrom.Format("2006-01-02"))
	assert.Equal(t, 5, captured.Limit)
	assert.Equal(t, 5, captured.Offset)

	var resp struct {
		Success bool `json:"success"`
		Data    []OrderResponse
		Meta    struct {
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, int64(12), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestOrdersListRejectsMalformedDate(t *testing.T) {
	repo := &fakeOrderRepository{
		list: func(context.Context, serviceorder.ListFilter) ([]serviceorder.ServiceOrder, int64, error) {
			t.Fatal("repository must not be called")
			return nil, 0, nil
		},
	}
	w := getPath(ordersTestRouter(repo), "/api/v1/ordens?data_inicio=yesterday")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrdersGetIncludesRaw(t *testing.T) {
	repo := &fakeOrderRepository{
		findByID: func(_ context.Context, id int64) (*serviceorder.ServiceOrder, error) {
			require.Equal(t, int64(4711), id)
			return &serviceorder.ServiceOrder{
				IDOrdemServico: 4711,
				Numero:         "982",
				Raw:            json.RawMessage(`{"id_ordem_servico": 4711, "numero": "982"}`),
			}, nil
		},
	}
	w := getPath(ordersTestRouter(repo), "/api/v1/ordens/4711")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data OrderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(4711), resp.Data.IDOrdemServico)
	assert.JSONEq(t, `{"id_ordem_servico": 4711, "numero": "982"}`, string(resp.Data.Raw))
}

func TestOrdersGetNotFound(t *testing.T) {
	repo := &fakeOrderRepository{
		findByID: func(context.Context, int64) (*serviceorder.ServiceOrder, error) {
			return nil, serviceorder.ErrOrderNotFound
		},
	}
	w := getPath(ordersTestRouter(repo), "/api/v1/ordens/99")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
}

func TestOrdersGetRejectsNonNumericID(t *testing.T) {
	repo := &fakeOrderRepository{
		findByID: func(context.Context, int64) (*serviceorder.ServiceOrder, error) {
			t.Fatal("repository must not be called")
			return nil, nil
		},
	}
	w := getPath(ordersTestRouter(repo), "/api/v1/ordens/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrdersCompletedYesterday(t *testing.T) {
	repo := &fakeOrderRepository{
		completed: func(context.Context, time.Time) ([]serviceorder.ServiceOrder, error) {
			return []serviceorder.ServiceOrder{
				{IDOrdemServico: 1, Status: "Finalizada"},
			}, nil
		},
	}
	w := getPath(ordersTestRouter(repo), "/api/v1/ordens/concluidas/ontem")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id_ordem_servico":1`)
}
