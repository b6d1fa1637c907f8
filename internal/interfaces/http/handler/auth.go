package handler

import (
	"github.com/gin-gonic/gin"

	identityapp "github.com/posvenda/backend/internal/application/identity"
)

// AuthHandler exposes registration and login.
type AuthHandler struct {
	BaseHandler
	service *identityapp.AuthService
}

func NewAuthHandler(service *identityapp.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterRoutes registers the public auth endpoints.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}

// Register creates a new user account.
func (h *AuthHandler) Register(c *gin.Context) {
	var input identityapp.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.service.Register(c.Request.Context(), input)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Created(c, user)
}

// Login verifies credentials and returns a signed token.
func (h *AuthHandler) Login(c *gin.Context) {
	var input identityapp.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.service.Login(c.Request.Context(), input)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, result)
}
