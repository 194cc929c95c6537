package provider

import (
	"errors"
	"fmt"
)

// Error kinds shared across all provider implementations. Callers dispatch
// with errors.Is; none of these carry a retry policy.
var (
	// ErrUnsupportedProvider: the configured provider id matches no
	// registered implementation. Configuration-level, fatal.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrInvalidArgument: caller error, reported before any provider call.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIntegrationFailure wraps any provider transport or validation
	// error; the provider's own message passes through uninterpreted.
	ErrIntegrationFailure = errors.New("provider integration failure")

	// Webhook-path kinds. A rejected webhook is terminal: it is never
	// normalized or acted upon.
	ErrSignatureInvalid = errors.New("webhook signature invalid")
	ErrPayloadStale     = errors.New("webhook payload stale")
	ErrPayloadMalformed = errors.New("webhook payload malformed")
)

// Integrationf wraps a provider-side failure message as ErrIntegrationFailure.
func Integrationf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrIntegrationFailure)
}
