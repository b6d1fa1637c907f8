package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	syncapp "github.com/posvenda/backend/internal/application/sync"
)

const dateLayout = "2006-01-02"

// SyncService runs synchronization passes against the upstream API.
type SyncService interface {
	RunShallow(ctx context.Context, req syncapp.Request) (*syncapp.Result, error)
	RunDetailed(ctx context.Context, req syncapp.Request) (*syncapp.Result, error)
}

// SyncRequest is the request body for both sync endpoints. Dates use
// the YYYY-MM-DD format the upstream API expects.
type SyncRequest struct {
	DataInicio     string   `json:"data_inicio" binding:"required,datetime=2006-01-02"`
	DataFim        string   `json:"data_fim" binding:"required,datetime=2006-01-02"`
	ItensPorPagina int      `json:"itens_por_pagina" binding:"omitempty,min=1,max=500"`
	Relacoes       []string `json:"relacoes" binding:"omitempty,dive,relation"`
}

// SyncHandler exposes the on-demand synchronization endpoints.
type SyncHandler struct {
	BaseHandler
	service SyncService
}

func NewSyncHandler(service SyncService) *SyncHandler {
	return &SyncHandler{service: service}
}

// RegisterRoutes registers the sync endpoints on a protected group.
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/ordens", h.Shallow)
		sync.POST("/ordens/detalhada", h.Detailed)
	}
}

// Shallow lists and persists orders without per-record detail calls.
func (h *SyncHandler) Shallow(c *gin.Context) {
	req, ok := h.bindSyncRequest(c)
	if !ok {
		return
	}

	result, err := h.service.RunShallow(c.Request.Context(), req)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Detailed runs the full enrichment pipeline for the window.
func (h *SyncHandler) Detailed(c *gin.Context) {
	req, ok := h.bindSyncRequest(c)
	if !ok {
		return
	}

	result, err := h.service.RunDetailed(c.Request.Context(), req)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *SyncHandler) bindSyncRequest(c *gin.Context) (syncapp.Request, bool) {
	var body SyncRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return syncapp.Request{}, false
	}

	dateFrom, err := time.Parse(dateLayout, body.DataInicio)
	if err != nil {
		h.BadRequest(c, "data_inicio must be YYYY-MM-DD")
		return syncapp.Request{}, false
	}
	dateTo, err := time.Parse(dateLayout, body.DataFim)
	if err != nil {
		h.BadRequest(c, "data_fim must be YYYY-MM-DD")
		return syncapp.Request{}, false
	}

	return syncapp.Request{
		DateFrom:  dateFrom,
		DateTo:    dateTo,
		PageSize:  body.ItensPorPagina,
		Relations: body.Relacoes,
	}, true
}
