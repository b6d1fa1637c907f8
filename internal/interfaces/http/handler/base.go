package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/posvenda/backend/internal/domain/identity"
	"github.com/posvenda/backend/internal/domain/serviceorder"
	"github.com/posvenda/backend/internal/interfaces/http/dto"
	"github.com/posvenda/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides shared response helpers.
type BaseHandler struct{}

// Success sends a 200 response with the standard envelope.
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response with pagination meta.
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 response.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with an explicit status code.
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// ErrorWithCode sends an error response, deriving the status from the code.
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 response.
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// DomainError maps domain sentinel errors onto the envelope.
func (h *BaseHandler) DomainError(c *gin.Context, err error) {
	h.ErrorWithCode(c, classify(err), err.Error())
}

func classify(err error) string {
	switch {
	case errors.Is(err, serviceorder.ErrUnknownRelation),
		errors.Is(err, serviceorder.ErrInvalidDateRange),
		errors.Is(err, identity.ErrInvalidEmail),
		errors.Is(err, identity.ErrWeakPassword):
		return dto.ErrCodeValidation
	case errors.Is(err, serviceorder.ErrOrderNotFound),
		errors.Is(err, identity.ErrUserNotFound):
		return dto.ErrCodeNotFound
	case errors.Is(err, identity.ErrEmailTaken):
		return dto.ErrCodeAlreadyExists
	case errors.Is(err, identity.ErrInvalidCredentials):
		return dto.ErrCodeUnauthorized
	case errors.Is(err, identity.ErrUserInactive):
		return dto.ErrCodeForbidden
	case errors.Is(err, serviceorder.ErrAuthFailed),
		errors.Is(err, serviceorder.ErrRequestFailed),
		errors.Is(err, serviceorder.ErrInvalidResponse),
		errors.Is(err, serviceorder.ErrLogicalFailure),
		errors.Is(err, serviceorder.ErrRelationRejected):
		return dto.ErrCodeUpstream
	default:
		return dto.ErrCodeInternal
	}
}
