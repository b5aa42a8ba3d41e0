package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any *AppError carrying the same code, so callers can compare
// against the sentinel values below with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeProfileNotFound   = "PROFILE_NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	ErrCodeAlreadyExists     = "ALREADY_EXISTS"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeInvalidToken      = "INVALID_OR_EXPIRED_TOKEN"
	ErrCodeSessionNotPending = "SESSION_NOT_PENDING"
	ErrCodeStoreUnavailable  = "STORE_UNAVAILABLE"
)

// Sentinels for errors.Is comparisons.
var (
	ErrUnauthenticated     = New(ErrCodeUnauthorized, "authentication required")
	ErrAdminRequired       = New(ErrCodeForbidden, "admin access required")
	ErrInvalidToken        = New(ErrCodeInvalidToken, "invalid or expired token")
	ErrInsufficientCredits = New(ErrCodeInsufficientFunds, "insufficient credits")
	ErrSessionNotPending   = New(ErrCodeSessionNotPending, "session is not pending")
	ErrProfileNotFound     = New(ErrCodeProfileNotFound, "profile not found")
)

// CodeOf returns the code of the first AppError in err's chain.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// MessageOf returns a caller-safe message; wrapped causes are not exposed.
func MessageOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return "an unknown error occurred"
}

// HTTPStatus maps an error code to the status returned by the HTTP layer.
func HTTPStatus(code string) int {
	switch code {
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound, ErrCodeProfileNotFound, ErrCodeInvalidToken:
		return http.StatusNotFound
	case ErrCodeValidation, ErrCodeInsufficientFunds, ErrCodeSessionNotPending, ErrCodeAlreadyExists:
		return http.StatusBadRequest
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
