package openai

import (
	"encoding/json"
	"fmt"

	"github.com/unillm/unillm/providers/ai"
)

const chatCompletionsEndpoint = "/chat/completions"

// chatCompletionRequest is the wire shape of a /chat/completions request body.
type chatCompletionRequest struct {
	Model               string             `json:"model"`
	Messages            []chatMessage      `json:"messages"`
	Temperature         *float32           `json:"temperature,omitempty"`
	TopP                *float32           `json:"top_p,omitempty"`
	MaxTokens           *int               `json:"max_tokens,omitempty"`
	MaxCompletionTokens *int               `json:"max_completion_tokens,omitempty"`
	Tools               []chatTool         `json:"tools,omitempty"`
	ParallelToolCalls   *bool              `json:"parallel_tool_calls,omitempty"`
	Stream              bool               `json:"stream,omitempty"`
	StreamOptions       *chatStreamOptions `json:"stream_options,omitempty"`
}

type chatStreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// chatMessage is one conversation entry. Content is a plain string for
// text-only messages and a []chatContentPart when images are present.
type chatMessage struct {
	Role       string             `json:"role"`
	Content    any                `json:"content,omitempty"`
	ToolCalls  []chatWireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string             `json:"tool_call_id,omitempty"`
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatWireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function chatWireFunction `json:"function"`
}

type chatWireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatTool struct {
	Type     string           `json:"type"`
	Function chatToolFunction `json:"function"`
}

type chatToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// encodeChatCompletionsRequest renders a canonical request into the
// /chat/completions wire format. The token-limit field follows the model
// family: legacy families take max_tokens, renamed families take
// max_completion_tokens, and a request never carries both.
func encodeChatCompletionsRequest(request ai.ChatRequest, family modelFamily, stream bool) ([]byte, string, error) {
	wire := chatCompletionRequest{
		Model:  request.Model,
		Stream: stream,
	}
	if stream {
		wire.StreamOptions = &chatStreamOptions{IncludeUsage: true}
	}

	if request.SystemPrompt != "" {
		wire.Messages = append(wire.Messages, chatMessage{
			Role:    "system",
			Content: request.SystemPrompt,
		})
	}

	for _, message := range request.Messages {
		encoded, err := encodeChatMessage(message)
		if err != nil {
			return nil, "", err
		}
		wire.Messages = append(wire.Messages, encoded...)
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
			if family.renamedTokenLimit {
				wire.MaxCompletionTokens = &config.MaxTokens
			} else {
				wire.MaxTokens = &config.MaxTokens
			}
		}
		wire.ParallelToolCalls = config.ParallelToolCalls
	}

	for _, tool := range request.Tools {
		wire.Tools = append(wire.Tools, chatTool{
			Type: "function",
			Function: chatToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  renderToolSchema(tool.Parameters, false),
			},
		})
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, "", &ai.InvalidConfigurationError{
			Message: fmt.Sprintf("failed to encode request: %v", err),
		}
	}
	return body, chatCompletionsEndpoint, nil
}

// encodeChatMessage expands one canonical message into wire messages. A tool
// message yields one "tool" message per tool-result part, since the wire binds
// each result to a single tool_call_id. Assistant tool calls ride the
// tool_calls field of the assistant message.
func encodeChatMessage(message ai.Message) ([]chatMessage, error) {
	var out []chatMessage
	var contentParts []chatContentPart
	var toolCalls []chatWireToolCall
	textOnly := true

	for _, part := range message.ContentParts() {
		switch part.Type {
		case ai.PartText:
			contentParts = append(contentParts, chatContentPart{Type: "text", Text: part.Text})

		case ai.PartImage:
			if part.Image == nil {
				continue
			}
			textOnly = false
			contentParts = append(contentParts, chatContentPart{
				Type:     "image_url",
				ImageURL: &chatImageURL{URL: part.Image.DataURL()},
			})

		case ai.PartToolCall:
			if part.ToolCall == nil {
				continue
			}
			arguments, err := encodeCallArguments(part.ToolCall)
			if err != nil {
				return nil, err
			}
			toolCalls = append(toolCalls, chatWireToolCall{
				ID:   part.ToolCall.ID,
				Type: "function",
				Function: chatWireFunction{
					Name:      part.ToolCall.Name,
					Arguments: arguments,
				},
			})

		case ai.PartToolResult:
			if part.ToolResult == nil {
				continue
			}
			payload, err := encodeToolResultPayload(part.ToolResult)
			if err != nil {
				return nil, err
			}
			out = append(out, chatMessage{
				Role:       "tool",
				Content:    payload,
				ToolCallID: part.ToolResult.CallID,
			})
		}
	}

	if len(contentParts) > 0 || len(toolCalls) > 0 {
		encoded := chatMessage{
			Role:      string(message.Role),
			ToolCalls: toolCalls,
		}
		if message.Role == ai.RoleTool {
			// Bare text under the tool role has no call to bind to; it is
			// coerced to a user message.
			encoded.Role = "user"
		}
		if len(contentParts) > 0 {
			if textOnly {
				encoded.Content = joinTextParts(contentParts)
			} else {
				encoded.Content = contentParts
			}
		}
		out = append(out, encoded)
	}
	return out, nil
}

func joinTextParts(parts []chatContentPart) string {
	text := ""
	for _, part := range parts {
		text += part.Text
	}
	return text
}
