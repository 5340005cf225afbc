package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ============================================================================
// Model Registry Errors
// ============================================================================

var (
	ErrModelNotFound        = errors.New("registered model not found")
	ErrVersionNotFound      = errors.New("model version not found")
	ErrRequestNotFound      = errors.New("transition request not found")
	ErrActivityNotFound     = errors.New("activity not found")
	ErrArtifactNotFound     = errors.New("model artifact not found")
	ErrInvalidModelName     = errors.New("model name is required")
	ErrInvalidVersion       = errors.New("model version is required")
	ErrInvalidStage         = errors.New("invalid stage")
	ErrCannotDeleteModel    = errors.New("cannot delete model: it has versions in an active stage")
	ErrCannotDeleteVersion  = errors.New("cannot delete model version in an active stage")
	ErrSelfTransition       = errors.New("model version is already in the target stage")
	ErrActionNotAvailable   = errors.New("action is not available on this request")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrArtifactReadTimedOut = errors.New("reading model artifact timed out")
)

// ============================================================================
// Session Errors
// ============================================================================

var (
	ErrMissingSessionID = errors.New("session ID is required (X-Session-ID header)")
	ErrSessionNotFound  = errors.New("session not found")
	ErrPageNotFound     = errors.New("page not found")
	ErrUnknownPageKind  = errors.New("unknown page kind")
	ErrNoOpenDialog     = errors.New("no confirmation dialog is open")
)

// ============================================================================
// Serving Errors
// ============================================================================

var (
	ErrServingNotAvailable = errors.New("model serving integration is not available")
	ErrMetricsQueryFailed  = errors.New("prometheus query failed")
)

// ============================================================================
// Backend Errors
// ============================================================================

// ErrorCode is the machine-readable code the registry backend attaches to
// failed responses.
type ErrorCode string

const (
	ErrorCodeResourceDoesNotExist   ErrorCode = "RESOURCE_DOES_NOT_EXIST"
	ErrorCodeResourceAlreadyExists  ErrorCode = "RESOURCE_ALREADY_EXISTS"
	ErrorCodeInvalidParameterValue  ErrorCode = "INVALID_PARAMETER_VALUE"
	ErrorCodePermissionDenied       ErrorCode = "PERMISSION_DENIED"
	ErrorCodeInvalidState           ErrorCode = "INVALID_STATE"
	ErrorCodeInternalError          ErrorCode = "INTERNAL_ERROR"
	ErrorCodeTemporarilyUnavailable ErrorCode = "TEMPORARILY_UNAVAILABLE"
)

// APIError is a failed backend call.
type APIError struct {
	StatusCode int
	Code       ErrorCode
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("registry backend: %s (status %d)", e.Code, e.StatusCode)
	}
	return fmt.Sprintf("registry backend: %s: %s (status %d)", e.Code, e.Message, e.StatusCode)
}

// IsNotFound reports whether err means the entity no longer exists server side.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == ErrorCodeResourceDoesNotExist || apiErr.StatusCode == http.StatusNotFound
	}
	return errors.Is(err, ErrModelNotFound) || errors.Is(err, ErrVersionNotFound)
}

// ============================================================================
// Validation Errors
// ============================================================================

// ValidationError is a form error caught before anything is sent to the backend.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range sortedKeys(e.Fields) {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Fields[f]))
	}
	return "invalid form: " + strings.Join(parts, ", ")
}
