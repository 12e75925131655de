package openai

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/unillm/unillm/internal/jsonschema"
	"github.com/unillm/unillm/providers/ai"
)

func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("encoded body is not valid JSON: %v", err)
	}
	return decoded
}

func TestEncodeChatCompletions_TokenLimitField(t *testing.T) {
	request := ai.ChatRequest{
		Model:            "gpt-4o",
		Messages:         []ai.Message{{Role: ai.RoleUser, Content: "Hi"}},
		GenerationConfig: &ai.GenerationConfig{MaxTokens: 256},
	}

	body, path, err := encodeChatCompletionsRequest(request, classifyModel("gpt-4o"), false)
	if err != nil {
		t.Fatalf("encode returned error: %v", err)
	}
	if path != "/chat/completions" {
		t.Errorf("expected /chat/completions path, got %s", path)
	}

	decoded := decodeBody(t, body)
	if decoded["max_tokens"] != float64(256) {
		t.Errorf("expected max_tokens 256, got %v", decoded["max_tokens"])
	}
	if _, present := decoded["max_completion_tokens"]; present {
		t.Error("legacy family must not emit max_completion_tokens")
	}
}

func TestEncodeChatCompletions_RenamedTokenLimitField(t *testing.T) {
	request := ai.ChatRequest{
		Model:            "o3-mini",
		Messages:         []ai.Message{{Role: ai.RoleUser, Content: "Hi"}},
		GenerationConfig: &ai.GenerationConfig{MaxTokens: 256},
	}

	family := classifyModel("o3-mini")
	family.dialect = dialectChatCompletions // force the renamed family through this encoder
	body, _, err := encodeChatCompletionsRequest(request, family, false)
	if err != nil {
		t.Fatalf("encode returned error: %v", err)
	}

	decoded := decodeBody(t, body)
	if decoded["max_completion_tokens"] != float64(256) {
		t.Errorf("expected max_completion_tokens 256, got %v", decoded["max_completion_tokens"])
	}
	if _, present := decoded["max_tokens"]; present {
		t.Error("renamed family must not emit max_tokens")
	}
}

func TestEncodeChatCompletions_SystemPromptAndRoles(t *testing.T) {
	request := ai.ChatRequest{
		Model:        "gpt-4o",
		SystemPrompt: "You are terse.",
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: "Hi"},
			{Role: ai.RoleAssistant, Content: "Hello"},
			{Role: ai.RoleTool, Content: "orphaned tool text"},
		},
	}

	body, _, err := encodeChatCompletionsRequest(request, classifyModel("gpt-4o"), false)
	if err != nil {
		t.Fatalf("encode returned error: %v", err)
	}

	var wire struct {
		Messages []struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	roles := make([]string, len(wire.Messages))
	for i, message := range wire.Messages {
		roles[i] = message.Role
	}
	expected := []string{"system", "user", "assistant", "user"}
	if len(roles) != len(expected) {
		t.Fatalf("expected %d messages, got %d (%v)", len(expected), len(roles), roles)
	}
	for i := range expected {
		if roles[i] != expected[i] {
			t.Errorf("message %d: expected role %s, got %s", i, expected[i], roles[i])
		}
	}
}

func TestEncodeChatCompletions_ToolResultFanOut(t *testing.T) {
	request := ai.ChatRequest{
		Model: "gpt-4o",
		Messages: []ai.Message{{
			Role: ai.RoleTool,
			Parts: []ai.Part{
				ai.ToolResultPart("call_1", ai.String("sunny"), false),
				ai.ToolResultPart("call_2", ai.Object(map[string]ai.Value{"ok": ai.Bool(true)}), false),
			},
		}},
	}

	body, _, err := encodeChatCompletionsRequest(request, classifyModel("gpt-4o"), false)
	if err != nil {
		t.Fatalf("encode returned error: %v", err)
	}

	var wire struct {
		Messages []struct {
			Role       string `json:"role"`
			Content    string `json:"content"`
			ToolCallID string `json:"tool_call_id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(wire.Messages) != 2 {
		t.Fatalf("expected one wire message per tool result, got %d", len(wire.Messages))
	}
	if wire.Messages[0].Role != "tool" || wire.Messages[0].ToolCallID != "call_1" {
		t.Errorf("unexpected first result message: %+v", wire.Messages[0])
	}
	if wire.Messages[0].Content != "sunny" {
		t.Errorf("string results pass through verbatim, got %q", wire.Messages[0].Content)
	}
	if wire.Messages[1].Content != `{"ok":true}` {
		t.Errorf("structured results serialize as JSON, got %q", wire.Messages[1].Content)
	}
}

func TestEncodeChatCompletions_ImageAsDataURL(t *testing.T) {
	request := ai.ChatRequest{
		Model: "gpt-4o",
		Messages: []ai.Message{{
			Role: ai.RoleUser,
			Parts: []ai.Part{
				ai.TextPart("What is this?"),
				ai.ImagePart("image/png", "aGVsbG8="),
			},
		}},
	}

	body, _, err := encodeChatCompletionsRequest(request, classifyModel("gpt-4o"), false)
	if err != nil {
		t.Fatalf("encode returned error: %v", err)
	}
	if !strings.Contains(string(body), `"url":"data:image/png;base64,aGVsbG8="`) {
		t.Errorf("expected data-URL image reference, body: %s", body)
	}
}

func TestEncodeResponses_RequiredAlwaysPresent(t *testing.T) {
	request := ai.ChatRequest{
		Model:    "gpt-5",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Hi"}},
		Tools: []ai.ToolDescription{{
			Name:        "get_time",
			Description: "Current time",
			Parameters: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{"tz": {Type: "string"}},
				// No required properties at all.
			},
		}},
	}

	body, path, err := encodeResponsesRequest(request, classifyModel("gpt-5"), false)
	if err != nil {
		t.Fatalf("encode returned error: %v", err)
	}
	if path != "/responses" {
		t.Errorf("expected /responses path, got %s", path)
	}
	if !strings.Contains(string(body), `"required":[]`) {
		t.Errorf("expected explicit empty required array, body: %s", body)
	}
	if !strings.Contains(string(body), `"additionalProperties":false`) {
		t.Errorf("expected additionalProperties pinned to false, body: %s", body)
	}
	if !strings.Contains(string(body), `"strict":true`) {
		t.Errorf("expected strict tool schema, body: %s", body)
	}
}

func TestEncodeResponses_SystemPromptBecomesDeveloper(t *testing.T) {
	request := ai.ChatRequest{
		Model:        "gpt-5",
		SystemPrompt: "Be brief.",
		Messages:     []ai.Message{{Role: ai.RoleUser, Content: "Hi"}},
	}

	body, _, err := encodeResponsesRequest(request, classifyModel("gpt-5"), false)
	if err != nil {
		t.Fatalf("encode returned error: %v", err)
	}

	var wire struct {
		Input []struct {
			Role string `json:"role"`
		} `json:"input"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(wire.Input) == 0 || wire.Input[0].Role != "developer" {
		t.Errorf("expected leading developer item, got %+v", wire.Input)
	}
}

func TestEncodeResponses_ToolLoopItems(t *testing.T) {
	request := ai.ChatRequest{
		Model: "gpt-5",
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: "Weather in Paris?"},
			{Role: ai.RoleAssistant, Parts: []ai.Part{{
				Type: ai.PartToolCall,
				ToolCall: &ai.ToolCall{
					ID:           "call_9",
					Name:         "get_weather",
					RawArguments: `{"city":"Paris"}`,
				},
			}}},
			{Role: ai.RoleTool, Parts: []ai.Part{
				ai.ToolResultPart("call_9", ai.String("rainy"), false),
			}},
		},
	}

	body, _, err := encodeResponsesRequest(request, classifyModel("gpt-5"), false)
	if err != nil {
		t.Fatalf("encode returned error: %v", err)
	}

	var wire struct {
		Input []struct {
			Type      string `json:"type"`
			CallID    string `json:"call_id"`
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
			Output    string `json:"output"`
		} `json:"input"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(wire.Input) != 3 {
		t.Fatalf("expected 3 input items, got %d", len(wire.Input))
	}
	call := wire.Input[1]
	if call.Type != "function_call" || call.CallID != "call_9" || call.Name != "get_weather" {
		t.Errorf("unexpected function_call item: %+v", call)
	}
	if call.Arguments != `{"city":"Paris"}` {
		t.Errorf("raw arguments must be preserved verbatim, got %q", call.Arguments)
	}
	result := wire.Input[2]
	if result.Type != "function_call_output" || result.CallID != "call_9" || result.Output != "rainy" {
		t.Errorf("unexpected function_call_output item: %+v", result)
	}
}

func TestEncodeResponses_ReasoningAndVerbosity(t *testing.T) {
	config := &ai.GenerationConfig{ReasoningEffort: "high", Verbosity: "low"}

	request := ai.ChatRequest{
		Model:            "gpt-5",
		Messages:         []ai.Message{{Role: ai.RoleUser, Content: "Hi"}},
		GenerationConfig: config,
	}
	body, _, err := encodeResponsesRequest(request, classifyModel("gpt-5"), false)
	if err != nil {
		t.Fatalf("encode returned error: %v", err)
	}
	if !strings.Contains(string(body), `"reasoning":{"effort":"high"}`) {
		t.Errorf("expected reasoning effort, body: %s", body)
	}
	if !strings.Contains(string(body), `"text":{"verbosity":"low"}`) {
		t.Errorf("expected verbosity, body: %s", body)
	}

	// The o-series supports reasoning but not verbosity; the unsupported
	// option is omitted silently.
	request.Model = "o3"
	body, _, err = encodeResponsesRequest(request, classifyModel("o3"), false)
	if err != nil {
		t.Fatalf("encode returned error: %v", err)
	}
	if !strings.Contains(string(body), `"reasoning"`) {
		t.Errorf("expected reasoning for o-series, body: %s", body)
	}
	if strings.Contains(string(body), `"verbosity"`) {
		t.Errorf("verbosity must be omitted for o-series, body: %s", body)
	}
}

func TestEncodeResponses_StreamFlag(t *testing.T) {
	request := ai.ChatRequest{
		Model:    "gpt-5",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Hi"}},
	}

	body, _, err := encodeResponsesRequest(request, classifyModel("gpt-5"), true)
	if err != nil {
		t.Fatalf("encode returned error: %v", err)
	}
	if !strings.Contains(string(body), `"stream":true`) {
		t.Errorf("expected stream flag, body: %s", body)
	}

	body, _, err = encodeResponsesRequest(request, classifyModel("gpt-5"), false)
	if err != nil {
		t.Fatalf("encode returned error: %v", err)
	}
	if strings.Contains(string(body), `"stream"`) {
		t.Errorf("stream flag must be omitted for sync requests, body: %s", body)
	}
}

func TestRenderToolSchema_NestedRequired(t *testing.T) {
	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"filter": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"field": {Type: "string"},
				},
				Required: []string{"field"},
			},
		},
		Required: []string{"filter"},
	}

	rendered := renderToolSchema(schema, true)

	raw, err := json.Marshal(rendered)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Count(string(raw), `"additionalProperties":false`) != 2 {
		t.Errorf("strict mode applies to nested objects too, got: %s", raw)
	}
	if !strings.Contains(string(raw), `"required":["filter"]`) {
		t.Errorf("top-level required list lost: %s", raw)
	}
	if !strings.Contains(string(raw), `"required":["field"]`) {
		t.Errorf("nested required list lost: %s", raw)
	}
}

func TestRenderToolSchema_NilSchema(t *testing.T) {
	rendered := renderToolSchema(nil, true)
	if rendered["type"] != "object" {
		t.Errorf("nil schema defaults to an empty object schema, got %v", rendered)
	}
	required, ok := rendered["required"].([]string)
	if !ok || len(required) != 0 {
		t.Errorf("expected explicit empty required list, got %v", rendered["required"])
	}
}
