package service

import (
	"context"
	"errors"
	"net"

	"github.com/popeskul/rentverify/internal/client/twilio"
)

var (
	// ErrInvalidCredentials is the only authentication failure callers see.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrTransportFailure wraps every failed outbound SMS attempt.
	ErrTransportFailure = errors.New("sms transport failure")

	// ErrNotifierDisabled is returned when no SMS provider is configured.
	ErrNotifierDisabled = errors.New("outbound sms is not configured")

	ErrCircuitOpen     = errors.New("service unavailable: circuit breaker is open")
	ErrTooManyRequests = errors.New("service unavailable: too many requests")
)

// InvalidCredentialsMessage is shown on the login form for any auth failure.
const InvalidCredentialsMessage = "Invalid username or password."

// ProviderMessage returns an operator-facing reason for a failed send. Provider
// rejections keep the provider's own wording; anything else is summarized.
func ProviderMessage(err error) string {
	var apiErr *twilio.APIError
	var netErr net.Error

	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrNotifierDisabled):
		return "SMS sending is not configured."
	case errors.Is(err, ErrCircuitOpen), errors.Is(err, ErrTooManyRequests):
		return "SMS provider is temporarily unavailable."
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "SMS provider did not respond in time."
	default:
		return "Could not reach SMS provider."
	}
}
