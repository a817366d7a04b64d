// Package apperr defines the error taxonomy shared by all domain services and
// maps it onto HTTP statuses. Services return these errors; handlers never
// inspect them directly; the echo error handler does the translation, so
// unexpected errors surface as 500s instead of leaking as client faults.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ValidationError reports a malformed or missing field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation builds a field-level validation error.
func Validation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports an overlapping appointment or similar collision.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// Conflict builds a conflict error.
func Conflict(format string, args ...interface{}) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown id or lookup miss.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// NotFound builds a not-found error for the named resource.
func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// AuthError reports bad credentials or a missing/invalid token.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// Auth builds an authentication error.
func Auth(message string) error {
	return &AuthError{Message: message}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Status returns the HTTP status for an error from the taxonomy, or 500.
func Status(err error) int {
	var (
		ve *ValidationError
		ce *ConflictError
		nf *NotFoundError
		ae *AuthError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ce):
		return http.StatusConflict
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ae):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// HTTPErrorHandler returns an echo error handler that translates taxonomy
// errors to their statuses and hides internal error details behind a 500.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := fmt.Sprintf("%v", he.Message)
			_ = c.JSON(he.Code, errorBody{Error: msg})
			return
		}

		status := Status(err)
		body := errorBody{Error: err.Error()}
		if status == http.StatusInternalServerError {
			logger.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
			body.Error = "internal server error"
		}
		var ve *ValidationError
		if errors.As(err, &ve) {
			body.Field = ve.Field
		}
		_ = c.JSON(status, body)
	}
}
