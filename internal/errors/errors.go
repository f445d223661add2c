package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the auth server
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("too many attempts")

	// Token errors
	ErrTokenInvalid     = errors.New("token invalid")
	ErrTokenExpired     = errors.New("token expired")
	ErrAccountNotFound  = errors.New("account not found")
	ErrStaleCredential  = errors.New("password changed after token was issued")
	ErrRefreshNotStored = errors.New("refresh token not recognised")

	// Store errors
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrDuplicateSlug  = errors.New("slug already taken")
)

// AppError is an error that is safe to show to the client.
// StatusCode is the HTTP status the error maps to.
type AppError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status is "fail" for client errors and "error" for server errors.
func (e *AppError) Status() string {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return "fail"
	}
	return "error"
}

func newAppError(statusCode int, message string, cause error) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Err: cause}
}

func Unauthenticated(message string, cause error) *AppError {
	return newAppError(http.StatusUnauthorized, message, cause)
}

func Forbidden(message string, cause error) *AppError {
	return newAppError(http.StatusForbidden, message, cause)
}

func Validation(message string) *AppError {
	return newAppError(http.StatusBadRequest, message, nil)
}

func NotFound(message string, cause error) *AppError {
	return newAppError(http.StatusNotFound, message, cause)
}

func Conflict(message string, cause error) *AppError {
	return newAppError(http.StatusConflict, message, cause)
}

func TooManyRequests(message string, cause error) *AppError {
	return newAppError(http.StatusTooManyRequests, message, cause)
}

// Internal hides the cause from the client.
func Internal(cause error) *AppError {
	return newAppError(http.StatusInternalServerError, "Something went wrong", cause)
}

// AsAppError returns the first AppError in err's chain, or an Internal error wrapping err.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
