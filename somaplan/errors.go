package somaplan

import (
	"github.com/somaplan/somaplan-sdk-go/internal/httpx"
	"github.com/somaplan/somaplan-sdk-go/somaplan/resources"
	"github.com/somaplan/somaplan-sdk-go/somaplan/session"
)

// The error taxonomy lives in the transport package; these aliases expose
// it so callers never import internal packages. errors.As against any of
// these types matches errors returned from every resource.
type (
	// APIError is the base error type for all SomaPlan SDK errors.
	APIError = httpx.APIError
	// AuthenticationError represents a 401 error.
	AuthenticationError = httpx.AuthenticationError
	// AuthorizationError represents a 403 error.
	AuthorizationError = httpx.AuthorizationError
	// NotFoundError represents a 404 error.
	NotFoundError = httpx.NotFoundError
	// PaymentRequiredError represents a 402 error, carrying the renewal
	// offer when the backend includes one.
	PaymentRequiredError = httpx.PaymentRequiredError
	// ValidationError represents a 400/422 error.
	ValidationError = httpx.ValidationError
	// ConflictError represents a 409 error.
	ConflictError = httpx.ConflictError
	// RateLimitError represents a 429 error.
	RateLimitError = httpx.RateLimitError
	// ServerError represents a 5xx error.
	ServerError = httpx.ServerError
	// NetworkError represents a network-level error.
	NetworkError = httpx.NetworkError
	// TimeoutError represents a timeout error.
	TimeoutError = httpx.TimeoutError
	// CircuitBreakerOpenError is returned when the circuit breaker
	// rejects a request without sending it.
	CircuitBreakerOpenError = httpx.CircuitBreakerOpenError
)

// Sentinel errors for common conditions
var (
	// ErrConfirmationTimeout is returned by payment polling when the
	// payment did not reach a terminal status within the poll window.
	ErrConfirmationTimeout = resources.ErrConfirmationTimeout

	// ErrNotRenewalEligible is returned by Session().Renew when the
	// current session has no discounted renewal on offer.
	ErrNotRenewalEligible = session.ErrNotRenewalEligible
)

// IsAuthenticationError returns true if the error is an authentication error.
func IsAuthenticationError(err error) bool {
	return httpx.IsAuthenticationError(err)
}

// IsPaymentRequiredError returns true if the error is a payment required error.
func IsPaymentRequiredError(err error) bool {
	return httpx.IsPaymentRequiredError(err)
}

// IsNotFoundError returns true if the error is a not found error.
func IsNotFoundError(err error) bool {
	return httpx.IsNotFoundError(err)
}

// IsValidationError returns true if the error is a validation error.
func IsValidationError(err error) bool {
	return httpx.IsValidationError(err)
}

// IsRateLimitError returns true if the error is a rate limit error.
func IsRateLimitError(err error) bool {
	return httpx.IsRateLimitError(err)
}

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	return httpx.IsRetryable(err)
}

// AsAPIError attempts to convert an error to an APIError.
func AsAPIError(err error) (*APIError, bool) {
	return httpx.AsAPIError(err)
}
