package ai

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// WireRequest is one fully encoded provider request: body, URL path and
// query, and headers, ready for a Transport to execute. Encoders produce it;
// they never touch the network themselves.
type WireRequest struct {
	Method  string
	URL     string
	Query   url.Values
	Headers http.Header
	Body    []byte
}

// Transport executes wire requests. It is an external collaborator: the
// default implementation lives in internal/utils, and tests substitute fakes.
// Implementations must honor context cancellation on both entry points.
//
// Neither method treats a non-2xx status as an error; classification is the
// adapter's job. The err return is reserved for transport-level failures.
type Transport interface {
	// Send executes a synchronous request and returns the status and the
	// full response body.
	Send(ctx context.Context, request WireRequest) (status int, body []byte, err error)

	// OpenStream executes a request and returns the response body unread,
	// for line-by-line SSE consumption. The caller owns closing the body.
	OpenStream(ctx context.Context, request WireRequest) (status int, body io.ReadCloser, err error)
}
