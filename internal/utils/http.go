package utils

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/unillm/unillm/providers/ai"
	"github.com/unillm/unillm/providers/observability"
)

// maxResponseBodySize is the maximum response body size (10 MB). Enforced via
// io.LimitReader to prevent unbounded memory allocation from rogue responses.
const maxResponseBodySize int64 = 10 * 1024 * 1024

// HTTPTransport is the default ai.Transport, executing wire requests over a
// standard net/http client. Non-2xx statuses are returned to the caller
// unclassified, together with the body, so the adapter can map them onto the
// canonical error taxonomy.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport over the given client. A nil client
// falls back to http.DefaultClient.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{client: client}
}

// Send implements ai.Transport. The body read is capped at
// maxResponseBodySize.
func (t *HTTPTransport) Send(ctx context.Context, request ai.WireRequest) (int, []byte, error) {
	response, err := t.do(ctx, request, "")
	if err != nil {
		return 0, nil, err
	}
	defer CloseWithLog(response.Body)

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBodySize))
	if err != nil {
		return response.StatusCode, nil, err
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent("http.response.received",
			observability.Int(observability.AttrHTTPStatusCode, response.StatusCode),
			observability.Int(observability.AttrHTTPResponseBodySize, len(body)),
		)
	}

	return response.StatusCode, body, nil
}

// OpenStream implements ai.Transport. The response body is returned unread so
// the caller can consume SSE lines as they arrive; the caller owns closing it.
func (t *HTTPTransport) OpenStream(ctx context.Context, request ai.WireRequest) (int, io.ReadCloser, error) {
	response, err := t.do(ctx, request, "text/event-stream")
	if err != nil {
		return 0, nil, err
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent("http.stream_response.started",
			observability.Int(observability.AttrHTTPStatusCode, response.StatusCode),
		)
	}

	return response.StatusCode, response.Body, nil
}

func (t *HTTPTransport) do(ctx context.Context, request ai.WireRequest, accept string) (*http.Response, error) {
	method := request.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, request.URL, bytes.NewReader(request.Body))
	if err != nil {
		return nil, err
	}

	if len(request.Query) > 0 {
		req.URL.RawQuery = request.Query.Encode()
	}

	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	for key, values := range request.Headers {
		for _, value := range values {
			req.Header.Set(key, value)
		}
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent("http.request.prepared",
			observability.String(observability.AttrHTTPMethod, method),
			observability.String(observability.AttrHTTPURL, request.URL),
			observability.Int(observability.AttrHTTPRequestBodySize, len(request.Body)),
		)
	}

	requestStart := time.Now()
	response, err := t.client.Do(req)
	if err != nil {
		if span := observability.SpanFromContext(ctx); span != nil {
			span.AddEvent("http.request.error",
				observability.Error(err),
				observability.Duration("http.request.duration", time.Since(requestStart)),
			)
		}
		return nil, err
	}

	return response, nil
}

// CloseWithLog closes the closer, logging any close error without overriding
// the caller's primary error.
func CloseWithLog(closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error())
	}
}

// ReadErrorBody drains at most maxResponseBodySize bytes from an error
// response and closes it. Used on non-2xx streaming responses before
// classification.
func ReadErrorBody(body io.ReadCloser) []byte {
	defer CloseWithLog(body)
	data, err := io.ReadAll(io.LimitReader(body, maxResponseBodySize))
	if err != nil {
		return nil
	}
	return data
}
