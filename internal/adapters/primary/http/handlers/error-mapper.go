package handlers

import (
	"context"
	"errors"
	"net/http"

	"model-registry-service/internal/adapters/primary/http/middleware"
	"model-registry-service/internal/core/domain"

	"github.com/gin-gonic/gin"
)

func mapDomainError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	var apiErr *domain.APIError

	switch {
	// Form errors, caught before the backend is called
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "fields": validationErr.Fields})

	// Backend errors keep their code
	case errors.As(err, &apiErr):
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error()
		}
		status := statusForAPIError(apiErr)
		body := gin.H{"error": msg, "error_code": apiErr.Code}
		if status >= http.StatusInternalServerError {
			body["request_id"] = middleware.RequestIDFrom(c)
		}
		c.JSON(status, body)

	// Not found errors
	case errors.Is(err, domain.ErrModelNotFound),
		errors.Is(err, domain.ErrVersionNotFound),
		errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, domain.ErrActivityNotFound),
		errors.Is(err, domain.ErrArtifactNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrPageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	// Permission errors
	case errors.Is(err, domain.ErrPermissionDenied),
		errors.Is(err, domain.ErrActionNotAvailable):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	// Conflict errors
	case errors.Is(err, domain.ErrCannotDeleteModel),
		errors.Is(err, domain.ErrCannotDeleteVersion),
		errors.Is(err, domain.ErrSelfTransition),
		errors.Is(err, domain.ErrNoOpenDialog):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidModelName),
		errors.Is(err, domain.ErrInvalidVersion),
		errors.Is(err, domain.ErrInvalidStage),
		errors.Is(err, domain.ErrMissingSessionID),
		errors.Is(err, domain.ErrUnknownPageKind):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	// Timeouts
	case errors.Is(err, domain.ErrArtifactReadTimedOut),
		errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})

	// Service unavailable errors
	case errors.Is(err, domain.ErrServingNotAvailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "internal server error",
			"request_id": middleware.RequestIDFrom(c),
		})
	}
}

// statusForAPIError passes client errors through and reports every other
// backend failure as a bad gateway.
func statusForAPIError(e *domain.APIError) int {
	switch e.Code {
	case domain.ErrorCodeResourceDoesNotExist:
		return http.StatusNotFound
	case domain.ErrorCodeResourceAlreadyExists:
		return http.StatusConflict
	case domain.ErrorCodeInvalidParameterValue:
		return http.StatusBadRequest
	case domain.ErrorCodePermissionDenied:
		return http.StatusForbidden
	case domain.ErrorCodeInvalidState:
		return http.StatusConflict
	}
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return e.StatusCode
	}
	return http.StatusBadGateway
}
