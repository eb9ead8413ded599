package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pothikbondhu/internal/domain"
	"pothikbondhu/internal/http/middleware"
	"pothikbondhu/internal/utils"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
	})
}

// RespondDomainError maps domain errors to HTTP responses. Anything unmapped
// is logged and answered with an opaque 500.
func RespondDomainError(c *gin.Context, err error) {
	var endpoint domain.EndpointNotFoundError
	switch {
	case errors.As(err, &endpoint):
		respondError(c, http.StatusNotFound, "location_not_found", err.Error(),
			gin.H{"side": endpoint.Side, "input": endpoint.Input})
	case domain.IsValidation(err):
		var v domain.ValidationError
		_ = errors.As(err, &v)
		var details any
		if v.Field != "" {
			details = gin.H{"field": v.Field}
		}
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), details)
	case domain.IsUnauthorized(err):
		respondError(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	case domain.IsForbidden(err):
		respondError(c, http.StatusForbidden, "forbidden", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsAlreadyRated(err):
		respondError(c, http.StatusConflict, "already_rated", err.Error(), nil)
	case domain.IsInvalidTransition(err):
		respondError(c, http.StatusConflict, "invalid_transition", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		utils.LogWarn(middleware.GetRequestID(c), "http", "unhandled_error", err)
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", nil)
	}
}
