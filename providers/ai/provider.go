package ai

import (
	"context"
	"net/http"
)

// StreamProvider is an optional interface that providers implement to support
// streaming (SSE-based) responses. Callers detect streaming support via type
// assertion: provider.(StreamProvider). Providers without it fall back to the
// synchronous SendMessage plus NewSingleEventStream.
type StreamProvider interface {
	Provider
	// StreamMessage sends a generation request and returns a ChatStream that
	// yields canonical deltas as they arrive. Pre-stream failures (missing
	// credential, non-2xx status, network) are returned as a normal error;
	// mid-stream failures are yielded through the iterator, classified with
	// the same error taxonomy.
	StreamMessage(ctx context.Context, request ChatRequest) (*ChatStream, error)
}

// Stream obtains a canonical delta stream for the request, using native
// streaming when the provider supports it and degrading to a single-event
// stream built from the synchronous response otherwise.
func Stream(ctx context.Context, provider Provider, request ChatRequest) (*ChatStream, error) {
	if streamer, ok := provider.(StreamProvider); ok {
		return streamer.StreamMessage(ctx, request)
	}
	response, err := provider.SendMessage(ctx, request)
	if err != nil {
		return nil, err
	}
	return NewSingleEventStream(response), nil
}

// Provider is the contract every provider adapter satisfies. It covers the
// full lifecycle of a single request: credential configuration, encoding,
// dispatch through a Transport, and response normalization.
type Provider interface {
	// SendMessage sends a generation request and returns the completed
	// canonical response. Failures are classified into the taxonomy defined
	// in this package.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// IsStopMessage reports whether the response is a terminal completion,
	// with nothing more to generate and no tool calls pending.
	IsStopMessage(message *ChatResponse) bool

	// WithAPIKey sets the API key used for authenticating requests.
	WithAPIKey(apiKey string) Provider

	// WithBaseURL overrides the default base URL for API requests.
	WithBaseURL(baseURL string) Provider

	// WithHttpClient sets the HTTP client used by the default transport.
	WithHttpClient(httpClient *http.Client) Provider
}
