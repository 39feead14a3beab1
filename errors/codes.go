package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors (fatal at startup)
const (
	// ErrCodeConfigInvalid indicates a malformed or incomplete adapter configuration.
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ErrCodeConfigMissing indicates a required configuration field is absent.
	ErrCodeConfigMissing ErrorCode = "CONFIG_MISSING"
)

// Transport errors (recoverable, surfaced as a failed operation)
const (
	// ErrCodeTransportFailed indicates a network failure or a non-2xx response
	// from the authorization server.
	ErrCodeTransportFailed ErrorCode = "TRANSPORT_FAILED"
	// ErrCodeTimeout indicates the provider call exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Parse errors (recoverable, surfaced as a failed grant)
const (
	// ErrCodeParseFailed indicates malformed JSON from the provider or a
	// malformed compact token.
	ErrCodeParseFailed ErrorCode = "PARSE_FAILED"
)

// Token validation errors (degrade the affected token slot, never abort the grant)
const (
	// ErrCodeTokenMissing indicates the token slot is empty.
	ErrCodeTokenMissing ErrorCode = "TOKEN_MISSING"
	// ErrCodeTokenExpired indicates the token's exp claim has passed.
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	// ErrCodeTokenNotYetValid indicates the token was issued before the
	// realm's not-before watermark.
	ErrCodeTokenNotYetValid ErrorCode = "TOKEN_NOT_YET_VALID"
	// ErrCodeBadSignature indicates the token signature does not verify
	// against the realm public key.
	ErrCodeBadSignature ErrorCode = "BAD_SIGNATURE"
	// ErrCodeRefreshUnavailable indicates an expired grant with no usable
	// refresh token.
	ErrCodeRefreshUnavailable ErrorCode = "REFRESH_UNAVAILABLE"
)

// Authorization errors
const (
	// ErrCodeUnauthorized indicates the request carries no usable credentials.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeAccessDenied indicates the role specification was not met.
	ErrCodeAccessDenied ErrorCode = "ACCESS_DENIED"
	// ErrCodeAccountUnavailable indicates account info could not be retrieved.
	ErrCodeAccountUnavailable ErrorCode = "ACCOUNT_UNAVAILABLE"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTransportFailed: true,
	ErrCodeTimeout:         true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
// The adapter itself never retries; callers own the resiliency policy.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
