package openai

import (
	"encoding/json"
	"fmt"

	"github.com/unillm/unillm/providers/ai"
)

const responsesEndpoint = "/responses"

// responseCreateRequest is the wire shape of a /responses request body.
type responseCreateRequest struct {
	Model             string           `json:"model"`
	Input             []inputItem      `json:"input"`
	Temperature       *float32         `json:"temperature,omitempty"`
	TopP              *float32         `json:"top_p,omitempty"`
	MaxOutputTokens   *int             `json:"max_output_tokens,omitempty"`
	Reasoning         *reasoningConfig `json:"reasoning,omitempty"`
	Text              *textConfig      `json:"text,omitempty"`
	Tools             []responseTool   `json:"tools,omitempty"`
	ParallelToolCalls *bool            `json:"parallel_tool_calls,omitempty"`
	Stream            bool             `json:"stream,omitempty"`
}

// inputItem is one entry of the input array. The three item kinds (message,
// function_call, function_call_output) share this struct; the zero fields of
// the other kinds are omitted from the wire.
type inputItem struct {
	Type    string `json:"type,omitempty"`
	Role    string `json:"role,omitempty"`
	Content any    `json:"content,omitempty"` // string or []contentItem

	// function_call and function_call_output items.
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Output    string `json:"output,omitempty"`
}

type contentItem struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type reasoningConfig struct {
	Effort string `json:"effort"`
}

type textConfig struct {
	Verbosity string `json:"verbosity"`
}

type responseTool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
	Strict      bool           `json:"strict"`
}

// encodeResponsesRequest renders a canonical request into the /responses wire
// format. Tool results whose payloads cannot be serialized are the one
// configuration error an otherwise valid request can surface here.
func encodeResponsesRequest(request ai.ChatRequest, family modelFamily, stream bool) ([]byte, string, error) {
	wire := responseCreateRequest{
		Model:  request.Model,
		Stream: stream,
	}

	if request.SystemPrompt != "" {
		wire.Input = append(wire.Input, inputItem{
			Role:    "developer",
			Content: request.SystemPrompt,
		})
	}

	for _, message := range request.Messages {
		items, err := encodeResponsesMessage(message)
		if err != nil {
			return nil, "", err
		}
		wire.Input = append(wire.Input, items...)
	}

	config := request.GenerationConfig
	if config != nil {
		if config.Temperature > 0 && family.supportsTemperature {
			wire.Temperature = &config.Temperature
		}
		if config.TopP > 0 && family.supportsTemperature {
			wire.TopP = &config.TopP
		}
		if config.MaxTokens > 0 {
			wire.MaxOutputTokens = &config.MaxTokens
		}
		if config.ReasoningEffort != "" && family.supportsReasoning {
			wire.Reasoning = &reasoningConfig{Effort: config.ReasoningEffort}
		}
		if config.Verbosity != "" && family.supportsVerbosity {
			wire.Text = &textConfig{Verbosity: config.Verbosity}
		}
		wire.ParallelToolCalls = config.ParallelToolCalls
	}

	for _, tool := range request.Tools {
		wire.Tools = append(wire.Tools, responseTool{
			Type:        "function",
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  renderToolSchema(tool.Parameters, true),
			Strict:      true,
		})
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, "", &ai.InvalidConfigurationError{
			Message: fmt.Sprintf("failed to encode request: %v", err),
		}
	}
	return body, responsesEndpoint, nil
}

// encodeResponsesMessage expands one canonical message into input items.
// Tool-call parts become function_call items and tool results become
// function_call_output items; any remaining text and image parts become a
// single message item with the coerced role.
func encodeResponsesMessage(message ai.Message) ([]inputItem, error) {
	var items []inputItem
	var content []contentItem

	textType := "input_text"
	if message.Role == ai.RoleAssistant {
		textType = "output_text"
	}

	for _, part := range message.ContentParts() {
		switch part.Type {
		case ai.PartText:
			content = append(content, contentItem{Type: textType, Text: part.Text})

		case ai.PartImage:
			if part.Image == nil {
				continue
			}
			content = append(content, contentItem{
				Type:     "input_image",
				ImageURL: part.Image.DataURL(),
			})

		case ai.PartToolCall:
			if part.ToolCall == nil {
				continue
			}
			arguments, err := encodeCallArguments(part.ToolCall)
			if err != nil {
				return nil, err
			}
			items = append(items, inputItem{
				Type:      "function_call",
				CallID:    part.ToolCall.ID,
				Name:      part.ToolCall.Name,
				Arguments: arguments,
			})

		case ai.PartToolResult:
			if part.ToolResult == nil {
				continue
			}
			output, err := encodeToolResultPayload(part.ToolResult)
			if err != nil {
				return nil, err
			}
			items = append(items, inputItem{
				Type:   "function_call_output",
				CallID: part.ToolResult.CallID,
				Output: output,
			})
		}
	}

	if len(content) > 0 {
		items = append(items, inputItem{
			Role:    coerceResponsesRole(message.Role),
			Content: content,
		})
	}
	return items, nil
}

// coerceResponsesRole maps canonical roles onto the roles the /responses
// dialect accepts. Total: every input maps to a supported role, including the
// tool role, whose results travel as function_call_output items instead.
func coerceResponsesRole(role ai.MessageRole) string {
	switch role {
	case ai.RoleSystem:
		return "developer"
	case ai.RoleAssistant:
		return "assistant"
	default:
		return "user"
	}
}

// encodeCallArguments serializes an assistant tool call back into the wire
// argument string, preferring the verbatim string the model produced.
func encodeCallArguments(call *ai.ToolCall) (string, error) {
	if call.RawArguments != "" {
		return call.RawArguments, nil
	}
	if len(call.Arguments) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(call.Arguments)
	if err != nil {
		return "", &ai.InvalidConfigurationError{
			Message: fmt.Sprintf("failed to encode arguments for tool call %s: %v", call.ID, err),
		}
	}
	return string(raw), nil
}

// encodeToolResultPayload flattens a tool result into the string the wire
// expects: plain strings pass through, everything else is serialized as JSON.
func encodeToolResultPayload(result *ai.ToolResult) (string, error) {
	if result.Result.Kind() == ai.KindString {
		text, _ := result.Result.AsString()
		return text, nil
	}
	raw, err := json.Marshal(result.Result)
	if err != nil {
		return "", &ai.InvalidConfigurationError{
			Message: fmt.Sprintf("failed to encode result for tool call %s: %v", result.CallID, err),
		}
	}
	return string(raw), nil
}
