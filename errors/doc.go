// Package errors provides unified error handling for the Keycloak adapter.
// It implements structured error types with error codes, HTTP status mapping,
// and retryable detection. No operation in this module panics past its own
// boundary; every public operation returns either a value or an *AppError.
package errors
