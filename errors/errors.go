// Package errors provides unified error handling for the Keycloak adapter.
// It implements structured error types with error codes, HTTP status mapping,
// and retryable detection.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// ConfigInvalid creates a new AppError for a malformed configuration manifest.
func ConfigInvalid(reason string) *AppError {
	return &AppError{
		Code: ErrCodeConfigInvalid, Message: fmt.Sprintf("Invalid adapter configuration: %s", reason),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
	}
}

// ConfigMissing creates a new AppError for a missing required manifest field.
func ConfigMissing(field string) *AppError {
	return &AppError{
		Code: ErrCodeConfigMissing, Message: fmt.Sprintf("Missing required configuration field: %s", field),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// TransportFailed creates a new AppError for a failed call to the authorization server.
func TransportFailed(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTransportFailed, Message: fmt.Sprintf("The authorization server could not complete %s.", operation),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// Timeout creates a new AppError for a provider call that exceeded its deadline.
func Timeout(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The authorization server took too long to respond.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// ParseFailed creates a new AppError for malformed wire data or a malformed compact token.
func ParseFailed(what string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeParseFailed, Message: fmt.Sprintf("Could not parse %s.", what),
		HTTPStatus: http.StatusBadGateway, Retryable: false,
		Details: map[string]any{"subject": what}, Cause: cause,
	}
}

// TokenMissing creates a new AppError for an empty token slot.
func TokenMissing(slot string) *AppError {
	return &AppError{
		Code: ErrCodeTokenMissing, Message: fmt.Sprintf("No %s is present.", slot),
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
		Details: map[string]any{"slot": slot},
	}
}

// TokenExpired creates a new AppError for an expired token.
func TokenExpired() *AppError {
	return &AppError{
		Code: ErrCodeTokenExpired, Message: "The token has expired.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// TokenNotYetValid creates a new AppError for a token issued before the realm watermark.
func TokenNotYetValid() *AppError {
	return &AppError{
		Code: ErrCodeTokenNotYetValid, Message: "The token was issued before the realm not-before timestamp.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// BadSignature creates a new AppError for a token whose signature does not verify.
func BadSignature() *AppError {
	return &AppError{
		Code: ErrCodeBadSignature, Message: "The token signature does not verify against the realm public key.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// RefreshUnavailable creates a new AppError for an expired grant with no refresh token.
func RefreshUnavailable() *AppError {
	return &AppError{
		Code: ErrCodeRefreshUnavailable, Message: "The grant has expired and no refresh token is available.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// Unauthorized creates a new AppError for a request with no usable credentials.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return &AppError{
		Code: ErrCodeUnauthorized, Message: reason,
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// AccessDenied creates a new AppError for an unmet role specification.
func AccessDenied() *AppError {
	return &AppError{
		Code: ErrCodeAccessDenied, Message: "Access denied",
		HTTPStatus: http.StatusForbidden, Retryable: false,
	}
}

// AccountUnavailable creates a new AppError for a failed account info retrieval.
func AccountUnavailable(cause error) *AppError {
	return &AppError{
		Code: ErrCodeAccountUnavailable, Message: "Account information could not be retrieved.",
		HTTPStatus: http.StatusBadGateway, Retryable: true, Cause: cause,
	}
}
