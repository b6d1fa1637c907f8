package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/posvenda/backend/internal/interfaces/http/dto"
)

// Pinger checks connectivity to a backing store.
type Pinger interface {
	Ping() error
}

// SystemHandler exposes liveness endpoints.
type SystemHandler struct {
	BaseHandler
	db      Pinger
	started time.Time
}

func NewSystemHandler(db Pinger) *SystemHandler {
	return &SystemHandler{db: db, started: time.Now()}
}

// RegisterRoutes registers /health on the engine root.
func (h *SystemHandler) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/health", h.Health)
}

// Health reports process liveness and database connectivity.
func (h *SystemHandler) Health(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"
	httpStatus := http.StatusOK

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			status = "degraded"
			dbStatus = "unreachable"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	c.JSON(httpStatus, dto.NewSuccessResponse(gin.H{
		"status":   status,
		"database": dbStatus,
		"uptime":   time.Since(h.started).Round(time.Second).String(),
	}))
}
