package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncapp "github.com/posvenda/backend/internal/application/sync"
	"github.com/posvenda/backend/internal/domain/serviceorder"
	"github.com/posvenda/backend/internal/interfaces/http/middleware"
)

type fakeSyncService struct {
	shallow  func(ctx context.Context, req syncapp.Request) (*syncapp.Result, error)
	detailed func(ctx context.Context, req syncapp.Request) (*syncapp.Result, error)
}

func (f *fakeSyncService) RunShallow(ctx context.Context, req syncapp.Request) (*syncapp.Result, error) {
	return f.shallow(ctx, req)
}

func (f *fakeSyncService) RunDetailed(ctx context.Context, req syncapp.Request) (*syncapp.Result, error) {
	return f.detailed(ctx, req)
}

func syncTestRouter(t *testing.T, svc SyncService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidations())
	r := gin.New()
	NewSyncHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSyncShallow(t *testing.T) {
	var captured syncapp.Request
	svc := &fakeSyncService{
		shallow: func(_ context.Context, req syncapp.Request) (*syncapp.Result, error) {
			captured = req
			return &syncapp.Result{Listed: 42, Saved: 42}, nil
		},
	}
	r := syncTestRouter(t, svc)

	w := postJSON(t, r, "/api/v1/sync/ordens", gin.H{
		"data_inicio":      "2026-03-01",
		"data_fim":         "2026-03-02",
		"itens_por_pagina": 50,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"listed":42`)
	assert.Equal(t, "2026-03-01", captured.DateFrom.Format("2006-01-02"))
	assert.Equal(t, "2026-03-02", captured.DateTo.Format("2006-01-02"))
	assert.Equal(t, 50, captured.PageSize)
}

func TestSyncDetailedPassesRelations(t *testing.T) {
	var captured syncapp.Request
	svc := &fakeSyncService{
		detailed: func(_ context.Context, req syncapp.Request) (*syncapp.Result, error) {
			captured = req
			return &syncapp.Result{Listed: 5, Saved: 5}, nil
		},
	}
	r := syncTestRouter(t, svc)

	w := postJSON(t, r, "/api/v1/sync/ordens/detalhada", gin.H{
		"data_inicio": "2026-03-01",
		"data_fim":    "2026-03-01",
		"relacoes":    []string{"tecnicos", "atendimento"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"tecnicos", "atendimento"}, captured.Relations)
}

func TestSyncDetailedUnknownRelation(t *testing.T) {
	t.Run("rejected at binding", func(t *testing.T) {
		svc := &fakeSyncService{
			detailed: func(context.Context, syncapp.Request) (*syncapp.Result, error) {
				t.Fatal("service must not be called")
				return nil, nil
			},
		}
		r := syncTestRouter(t, svc)

		w := postJSON(t, r, "/api/v1/sync/ordens/detalhada", gin.H{
			"data_inicio": "2026-03-01",
			"data_fim":    "2026-03-01",
			"relacoes":    []string{"nao_existe"},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "relation")
	})

	t.Run("rejected by the service", func(t *testing.T) {
		svc := &fakeSyncService{
			detailed: func(context.Context, syncapp.Request) (*syncapp.Result, error) {
				return nil, serviceorder.ErrUnknownRelation
			},
		}
		r := syncTestRouter(t, svc)

		w := postJSON(t, r, "/api/v1/sync/ordens/detalhada", gin.H{
			"data_inicio": "2026-03-01",
			"data_fim":    "2026-03-01",
			"relacoes":    []string{"tecnicos"},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_VALIDATION")
	})
}

func TestSyncBadRequests(t *testing.T) {
	svc := &fakeSyncService{
		shallow: func(context.Context, syncapp.Request) (*syncapp.Result, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	r := syncTestRouter(t, svc)

	t.Run("missing dates", func(t *testing.T) {
		w := postJSON(t, r, "/api/v1/sync/ordens", gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed date", func(t *testing.T) {
		w := postJSON(t, r, "/api/v1/sync/ordens", gin.H{
			"data_inicio": "01/03/2026",
			"data_fim":    "2026-03-02",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "DataInicio")
	})
}

func TestSyncUpstreamFailure(t *testing.T) {
	svc := &fakeSyncService{
		shallow: func(context.Context, syncapp.Request) (*syncapp.Result, error) {
			return nil, serviceorder.ErrAuthFailed
		},
	}
	r := syncTestRouter(t, svc)

	w := postJSON(t, r, "/api/v1/sync/ordens", gin.H{
		"data_inicio": "2026-03-01",
		"data_fim":    "2026-03-02",
	})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_UPSTREAM")
}
