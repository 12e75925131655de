package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/unillm/unillm/providers/ai"
)

func TestSendMessage_ChatCompletions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/chat/completions" {
			t.Errorf("expected /chat/completions, got %s", request.URL.Path)
		}
		if auth := request.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected Authorization header: %q", auth)
		}

		var body map[string]any
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		if body["model"] != "gpt-4o" {
			t.Errorf("expected model gpt-4o, got %v", body["model"])
		}
		if _, present := body["stream"]; present {
			t.Error("sync request must not set the stream flag")
		}

		writer.Header().Set("Content-Type", "application/json")
		fmt.Fprint(writer, `{"id":"chatcmpl-1","model":"gpt-4o","choices":[{"index":0,"message":{"role":"assistant","content":"Hello!"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	response, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:    "gpt-4o",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Hi"}},
	})
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if response.Content != "Hello!" {
		t.Errorf("expected Hello!, got %q", response.Content)
	}
	if !provider.IsStopMessage(response) {
		t.Error("a plain stop completion is a stop message")
	}
}

func TestSendMessage_ResponsesDialect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/responses" {
			t.Errorf("gpt-5 must hit /responses, got %s", request.URL.Path)
		}
		writer.Header().Set("Content-Type", "application/json")
		fmt.Fprint(writer, `{"id":"resp_1","model":"gpt-5","output":[{"id":"msg_1","type":"message","role":"assistant","content":[{"type":"output_text","text":"Bonjour"}]}],"usage":{"input_tokens":3,"output_tokens":1,"total_tokens":4}}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	response, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:    "gpt-5",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Hi"}},
	})
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if response.Content != "Bonjour" {
		t.Errorf("expected Bonjour, got %q", response.Content)
	}
}

func TestSendMessage_MissingAPIKey(t *testing.T) {
	provider := New()
	provider.WithAPIKey("")

	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:    "gpt-4o",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Hi"}},
	})

	var authErr *ai.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
}

func TestSendMessage_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(writer, `{"error":{"message":"Incorrect API key provided"}}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:    "gpt-4o",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Hi"}},
	})

	var authErr *ai.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError for 401, got %v", err)
	}
	if authErr.Message != "Incorrect API key provided" {
		t.Errorf("expected structured message, got %q", authErr.Message)
	}
}

func TestSendMessage_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	serverURL := server.URL
	server.Close() // connection refused from here on

	provider := newTestProvider(serverURL)
	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:    "gpt-4o",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Hi"}},
	})

	var netErr *ai.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestSendMessage_CancelledBeforeCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := New()
	provider.WithAPIKey("test-key")
	_, err := provider.SendMessage(ctx, ai.ChatRequest{
		Model:    "gpt-4o",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Hi"}},
	})

	var cancelled *ai.CancelledError
	if !errors.As(err, &cancelled) {
		t.Fatalf("expected CancelledError, got %v", err)
	}
}

func TestSendMessage_InvalidToolMessage(t *testing.T) {
	provider := New()
	provider.WithAPIKey("test-key")

	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model: "gpt-4o",
		Messages: []ai.Message{{
			Role:  ai.RoleTool,
			Parts: []ai.Part{ai.ImagePart("image/png", "aGVsbG8=")},
		}},
	})

	var configErr *ai.InvalidConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected InvalidConfigurationError, got %v", err)
	}
}

func TestIsStopMessage(t *testing.T) {
	provider := New()

	if provider.IsStopMessage(nil) {
		t.Error("nil response is not a stop message")
	}
	if !provider.IsStopMessage(&ai.ChatResponse{FinishReason: ai.FinishStop}) {
		t.Error("plain stop is a stop message")
	}
	if provider.IsStopMessage(&ai.ChatResponse{
		FinishReason: ai.FinishToolCalls,
		ToolCalls:    []ai.ToolCall{{ID: "call_1", Name: "f"}},
	}) {
		t.Error("pending tool calls are not a stop message")
	}
}

func TestStreamFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		fmt.Fprint(writer, `{"id":"chatcmpl-1","model":"gpt-4o","choices":[{"index":0,"message":{"role":"assistant","content":"streamed natively"},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	// The adapter implements StreamProvider, but ai.Stream must also work
	// through the generic entry point.
	provider := newTestProvider(server.URL)
	var generic ai.Provider = provider

	// Force the sync path by hiding the stream capability.
	wrapped := syncOnly{generic}
	stream, err := ai.Stream(context.Background(), wrapped, ai.ChatRequest{
		Model:    "gpt-4o",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Hi"}},
	})
	if err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}
	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if response.Content != "streamed natively" {
		t.Errorf("unexpected content: %q", response.Content)
	}
}

// syncOnly hides the StreamProvider capability of the wrapped provider.
type syncOnly struct{ ai.Provider }
