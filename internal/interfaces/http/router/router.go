// Package router assembles the gin engine from the handler set.
package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/posvenda/backend/internal/infrastructure/auth"
	"github.com/posvenda/backend/internal/infrastructure/logger"
	"github.com/posvenda/backend/internal/interfaces/http/handler"
	"github.com/posvenda/backend/internal/interfaces/http/middleware"
)

// Dependencies bundles everything the HTTP surface needs.
type Dependencies struct {
	Logger     *zap.Logger
	JWTService *auth.JWTService

	Auth   *handler.AuthHandler
	Sync   *handler.SyncHandler
	Orders *handler.OrdersHandler
	System *handler.SystemHandler

	// ServiceName enables otelgin instrumentation when non-empty.
	ServiceName string
}

// New builds the gin engine with middleware and all routes registered.
func New(deps Dependencies) *gin.Engine {
	if err := middleware.RegisterValidations(); err != nil {
		deps.Logger.Warn("failed to register custom validations", zap.Error(err))
	}

	engine := gin.New()

	engine.Use(middleware.RequestID())
	if deps.ServiceName != "" {
		engine.Use(otelgin.Middleware(deps.ServiceName))
	}
	engine.Use(logger.GinMiddleware(deps.Logger))
	engine.Use(logger.Recovery(deps.Logger))

	deps.System.RegisterRoutes(engine)

	api := engine.Group("/api/v1")
	deps.Auth.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(middleware.JWTAuth(deps.JWTService))
	deps.Sync.RegisterRoutes(protected)
	deps.Orders.RegisterRoutes(protected)

	return engine
}
