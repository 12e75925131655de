package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/unillm/unillm/providers/observability"
)

// The canonical error taxonomy. Every failure surfaced by a provider adapter
// is one of these types, for synchronous calls and streams alike; streams
// terminate with the same classification carried by their final error event.

// AuthenticationError reports a rejected or missing credential (HTTP 401, or
// no API key configured at all).
type AuthenticationError struct {
	Provider string
	Message  string
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider %q authentication failed", e.Provider)
	}
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// APIError reports an upstream API failure: a non-2xx response, or a failure
// event delivered in-band on an otherwise successful stream (Status 0).
// Message prefers the structured error.message field of the body, falling
// back to a length-capped raw excerpt.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("provider API error: %s", e.Message)
	}
	return fmt.Sprintf("provider API error (status %d): %s", e.Status, e.Message)
}

// NetworkError reports a transport-level failure with no HTTP status.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// CancelledError reports that the caller's abort signal was observed before
// or during the call.
type CancelledError struct {
	Cause error
}

func (e *CancelledError) Error() string {
	if e.Cause == nil {
		return "operation cancelled"
	}
	return fmt.Sprintf("operation cancelled: %v", e.Cause)
}

func (e *CancelledError) Unwrap() error { return e.Cause }

// UnsupportedOperationError reports a feature the selected provider or model
// does not implement.
type UnsupportedOperationError struct {
	Provider  string
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("provider %q does not support %s", e.Provider, e.Operation)
}

// InvalidConfigurationError reports a request that cannot be encoded, such as
// a tool-result value that fails to serialize to JSON.
type InvalidConfigurationError struct {
	Message string
	Cause   error
}

func (e *InvalidConfigurationError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("invalid configuration: %s", e.Message)
	}
	return fmt.Sprintf("invalid configuration: %s: %v", e.Message, e.Cause)
}

func (e *InvalidConfigurationError) Unwrap() error { return e.Cause }

// ClassifyHTTPStatus converts a non-2xx provider response into the canonical
// taxonomy: 401 becomes AuthenticationError, everything else APIError.
func ClassifyHTTPStatus(provider string, status int, body []byte) error {
	message := errorMessageFromBody(body)
	if status == 401 {
		return &AuthenticationError{Provider: provider, Message: message}
	}
	return &APIError{Status: status, Message: message}
}

// ClassifyTransportError converts an I/O-level failure into the canonical
// taxonomy. Cancellation (of either the error chain or the context) wins over
// the generic network classification.
func ClassifyTransportError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &CancelledError{Cause: err}
	}
	if ctx != nil && ctx.Err() != nil {
		return &CancelledError{Cause: ctx.Err()}
	}
	return &NetworkError{Cause: err}
}

// errorMessageFromBody extracts the structured error.message field from a
// provider error body, falling back to a truncated raw excerpt.
func errorMessageFromBody(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return observability.TruncateStringDefault(string(body))
}
