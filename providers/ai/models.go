package ai

import (
	"fmt"

	"github.com/unillm/unillm/internal/jsonschema"
)

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest represents a canonical request to generate text.
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`             // Model name or identifier
	Messages         []Message         `json:"messages"`                    // Conversation history, excluding the system prompt
	SystemPrompt     string            `json:"system_prompt,omitempty"`     // Optional system prompt
	Tools            []ToolDescription `json:"tools,omitempty"`             // Tool definitions supplied by the caller's tool catalog
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"` // Optional generation configuration
}

// ToolDescription declares a tool the model may call. Names must be unique
// within a request.
type ToolDescription struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// Validate checks the tool invariants: a non-empty name and a parameter
// schema whose required list only names declared properties.
func (t ToolDescription) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if err := t.Parameters.Validate(); err != nil {
		return fmt.Errorf("tool %q: %w", t.Name, err)
	}
	return nil
}

// MessageRole identifies the author of a message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Model response
	RoleTool      MessageRole = "tool"      // Tool/function output
)

// PartType tags the variant held by a message Part.
type PartType string

const (
	PartText       PartType = "text"
	PartImage      PartType = "image"
	PartToolCall   PartType = "tool_call"
	PartToolResult PartType = "tool_result"
)

// Part is one element of a message's ordered content. Exactly one payload
// field is set, identified by Type.
type Part struct {
	Type       PartType    `json:"type"`
	Text       string      `json:"text,omitempty"`
	Image      *ImageData  `json:"image,omitempty"`
	ToolCall   *ToolCall   `json:"tool_call,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// TextPart builds a text content part.
func TextPart(text string) Part { return Part{Type: PartText, Text: text} }

// ImagePart builds an image content part.
func ImagePart(mimeType, data string) Part {
	return Part{Type: PartImage, Image: &ImageData{MimeType: mimeType, Data: data}}
}

// ToolResultPart builds a tool-result content part.
func ToolResultPart(callID string, result Value, isError bool) Part {
	return Part{Type: PartToolResult, ToolResult: &ToolResult{CallID: callID, Result: result, IsError: isError}}
}

// ImageData carries opaque encoded image bytes. Data is base64; adapters
// always render it as a data-URL string on the wire.
type ImageData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// DataURL renders the image as a single data-URL string, the most compatible
// wire shape across providers.
func (img *ImageData) DataURL() string {
	if img == nil || img.MimeType == "" || img.Data == "" {
		return ""
	}
	return "data:" + img.MimeType + ";base64," + img.Data
}

// ToolResult is the outcome of executing a tool call, fed back to the model.
type ToolResult struct {
	CallID  string `json:"call_id"`            // Links back to the ToolCall.ID being answered
	Result  Value  `json:"result"`             // Result payload
	IsError bool   `json:"is_error,omitempty"` // True when the tool execution failed
}

// Message represents a single message in a conversation.
//
// Content is a shorthand for a single text part; Parts carries ordered
// multimodal content. When both are set, Parts wins.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`
	Parts   []Part      `json:"parts,omitempty"`
}

// ContentParts returns the ordered content parts of the message, synthesizing
// a single text part from Content when Parts is empty.
func (m Message) ContentParts() []Part {
	if len(m.Parts) > 0 {
		return m.Parts
	}
	if m.Content != "" {
		return []Part{TextPart(m.Content)}
	}
	return nil
}

// Validate checks the message invariant: a tool message carries only
// tool-result and text parts. Assistant messages carry any part.
func (m Message) Validate() error {
	if m.Role != RoleTool {
		return nil
	}
	for _, part := range m.Parts {
		if part.Type != PartToolResult && part.Type != PartText {
			return fmt.Errorf("tool message carries %q part; only tool_result and text are allowed", part.Type)
		}
	}
	return nil
}

// GenerationConfig carries sampling settings plus the provider-specific option
// bag. Options a target model family does not support are omitted at encode
// time rather than rejected.
type GenerationConfig struct {
	Temperature float32 `json:"temperature,omitempty"` // Sampling temperature [0..2]
	TopP        float32 `json:"top_p,omitempty"`       // Nucleus sampling [0..1]
	MaxTokens   int     `json:"max_tokens,omitempty"`  // Output token budget

	// Provider-specific options.
	ReasoningEffort   string `json:"reasoning_effort,omitempty"` // "minimal", "low", "medium", "high"
	Verbosity         string `json:"verbosity,omitempty"`        // "low", "medium", "high"
	ParallelToolCalls *bool  `json:"parallel_tool_calls,omitempty"`
}

/*
	##### PROVIDER OUTPUT #####
*/

// FinishReason classifies why generation stopped.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishToolCalls     FinishReason = "tool_calls"
	FinishContentFilter FinishReason = "content_filter"
	FinishOther         FinishReason = "other"
)

// Usage reports token consumption for one generation.
type Usage struct {
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
	TotalTokens  int `json:"total_tokens,omitempty"`
}

// ToolCall is a structured request from the model to invoke a named tool.
// Arguments is the resolved argument map; RawArguments preserves the JSON
// string exactly as the provider sent it.
type ToolCall struct {
	ID           string           `json:"id,omitempty"`
	Name         string           `json:"name"`
	Arguments    map[string]Value `json:"arguments,omitempty"`
	RawArguments string           `json:"raw_arguments,omitempty"`
}

// ChatResponse represents a completed generation. Produced once per
// synchronous call; callers must treat it as immutable.
type ChatResponse struct {
	Id           string       `json:"id"`
	Model        string       `json:"model"`
	Object       string       `json:"object,omitempty"`
	Created      int64        `json:"created,omitempty"`
	Content      string       `json:"content"`
	ToolCalls    []ToolCall   `json:"tool_calls,omitempty"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`
	Usage        *Usage       `json:"usage,omitempty"`
}
