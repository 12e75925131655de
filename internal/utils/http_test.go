package utils

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/unillm/unillm/providers/ai"
)

func TestHTTPTransport_Send(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", request.Method)
		}
		if contentType := request.Header.Get("Content-Type"); contentType != "application/json" {
			t.Errorf("expected application/json, got %s", contentType)
		}
		if request.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("custom headers must be forwarded")
		}
		if request.URL.RawQuery != "api-version=1" {
			t.Errorf("query must be encoded, got %s", request.URL.RawQuery)
		}
		writer.WriteHeader(http.StatusOK)
		fmt.Fprint(writer, `{"ok":true}`)
	}))
	defer server.Close()

	transport := NewHTTPTransport(nil)
	headers := http.Header{}
	headers.Set("Authorization", "Bearer k")

	status, body, err := transport.Send(context.Background(), ai.WireRequest{
		URL:     server.URL + "/v1/test",
		Query:   map[string][]string{"api-version": {"1"}},
		Headers: headers,
		Body:    []byte(`{"in":1}`),
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("expected 200, got %d", status)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestHTTPTransport_SendReturnsNon2xxUnclassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(writer, `{"error":{"message":"rate"}}`)
	}))
	defer server.Close()

	transport := NewHTTPTransport(nil)
	status, body, err := transport.Send(context.Background(), ai.WireRequest{URL: server.URL})
	if err != nil {
		t.Fatalf("non-2xx is not a transport error, got %v", err)
	}
	if status != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", status)
	}
	if !strings.Contains(string(body), "rate") {
		t.Errorf("error body must be returned to the caller, got %s", body)
	}
}

func TestHTTPTransport_OpenStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if accept := request.Header.Get("Accept"); accept != "text/event-stream" {
			t.Errorf("expected SSE accept header, got %s", accept)
		}
		writer.Header().Set("Content-Type", "text/event-stream")
		writer.WriteHeader(http.StatusOK)
		fmt.Fprint(writer, "data: hello\n\ndata: [DONE]\n\n")
	}))
	defer server.Close()

	transport := NewHTTPTransport(nil)
	status, body, err := transport.OpenStream(context.Background(), ai.WireRequest{URL: server.URL})
	if err != nil {
		t.Fatalf("OpenStream returned error: %v", err)
	}
	defer CloseWithLog(body)
	if status != http.StatusOK {
		t.Errorf("expected 200, got %d", status)
	}

	scanner := NewSSEScanner(body)
	payload, err := scanner.Next()
	if err != nil || payload != "hello" {
		t.Errorf("expected streamed payload, got %q (%v)", payload, err)
	}
}

func TestHTTPTransport_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	transport := NewHTTPTransport(nil)
	_, _, err := transport.Send(ctx, ai.WireRequest{URL: "http://127.0.0.1:1/never"})
	if err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
}

func TestReadErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(writer, "upstream broke")
	}))
	defer server.Close()

	transport := NewHTTPTransport(nil)
	_, body, err := transport.OpenStream(context.Background(), ai.WireRequest{URL: server.URL})
	if err != nil {
		t.Fatalf("OpenStream returned error: %v", err)
	}

	data := ReadErrorBody(body)
	if string(data) != "upstream broke" {
		t.Errorf("unexpected error body: %s", data)
	}
}
