package openai

import (
	"encoding/json"
	"strings"

	"github.com/unillm/unillm/core/parse"
	"github.com/unillm/unillm/providers/ai"
	"github.com/unillm/unillm/providers/observability"
)

// syncEnvelope is a superset of both synchronous response shapes. Exactly one
// of Output (the /responses dialect) or Choices (the /chat/completions
// dialect) is populated; the decoder dispatches on whichever is present.
type syncEnvelope struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Status  string        `json:"status"`
	Output  []outputItem  `json:"output"`
	Choices []chatChoice  `json:"choices"`
	Usage   *usageDetails `json:"usage"`
}

// outputItem is one entry of a /responses output array. Message items carry
// role and content chunks; function_call items carry call_id, name and the
// argument string.
type outputItem struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	Role      string        `json:"role"`
	Content   []outputChunk `json:"content"`
	CallID    string        `json:"call_id"`
	Name      string        `json:"name"`
	Arguments string        `json:"arguments"`
	Status    string        `json:"status"`
}

type outputChunk struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatChoice struct {
	Index        int               `json:"index"`
	Message      chatChoiceMessage `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

type chatChoiceMessage struct {
	Role      string             `json:"role"`
	Content   string             `json:"content"`
	ToolCalls []chatWireToolCall `json:"tool_calls"`
}

// usageDetails accepts both field-name families for token counts. The
// /responses dialect reports input_tokens/output_tokens, /chat/completions
// reports prompt_tokens/completion_tokens.
type usageDetails struct {
	InputTokens      int `json:"input_tokens"`
	OutputTokens     int `json:"output_tokens"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// toGeneric unifies the two naming families, preferring input_tokens and
// output_tokens and falling back to the prompt/completion names. Absent
// counts stay zero.
func (u *usageDetails) toGeneric() *ai.Usage {
	if u == nil {
		return nil
	}
	usage := &ai.Usage{
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		TotalTokens:  u.TotalTokens,
	}
	if usage.InputTokens == 0 {
		usage.InputTokens = u.PromptTokens
	}
	if usage.OutputTokens == 0 {
		usage.OutputTokens = u.CompletionTokens
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	return usage
}

var finishReasonTable = map[string]ai.FinishReason{
	"stop":           ai.FinishStop,
	"length":         ai.FinishLength,
	"tool_calls":     ai.FinishToolCalls,
	"content_filter": ai.FinishContentFilter,
}

// mapFinishReason converts a wire finish reason. An absent reason stays
// absent; an unrecognized one degrades to stop.
func mapFinishReason(raw string) ai.FinishReason {
	if raw == "" {
		return ""
	}
	if mapped, ok := finishReasonTable[raw]; ok {
		return mapped
	}
	return ai.FinishStop
}

// decodeSyncResponse converts a synchronous response body (either dialect)
// into the canonical ChatResponse. A body carrying neither an output array
// nor a choices array is an API error, not a panic or a zero response.
func decodeSyncResponse(status int, body []byte) (*ai.ChatResponse, error) {
	if status < 200 || status >= 300 {
		return nil, ai.ClassifyHTTPStatus(providerName, status, body)
	}

	var envelope syncEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &ai.APIError{
			Status:  status,
			Message: "unparseable response body: " + observability.TruncateStringDefault(string(body)),
		}
	}

	response := &ai.ChatResponse{
		Id:      envelope.ID,
		Model:   envelope.Model,
		Object:  envelope.Object,
		Created: envelope.Created,
		Usage:   envelope.Usage.toGeneric(),
	}

	switch {
	case len(envelope.Output) > 0:
		decodeOutputArray(envelope.Output, response)
	case len(envelope.Choices) > 0:
		decodeChoices(envelope.Choices, response)
	default:
		return nil, &ai.APIError{
			Status:  status,
			Message: "response carries neither an output array nor a choices array",
		}
	}
	return response, nil
}

// decodeOutputArray scans /responses output items: message items contribute
// their concatenated output_text chunks, function_call items become canonical
// tool calls.
func decodeOutputArray(items []outputItem, response *ai.ChatResponse) {
	var content strings.Builder

	for _, item := range items {
		switch item.Type {
		case "message":
			for _, chunk := range item.Content {
				if chunk.Type == "output_text" {
					content.WriteString(chunk.Text)
				}
			}

		case "function_call":
			id := item.CallID
			if id == "" {
				id = item.ID
			}
			response.ToolCalls = append(response.ToolCalls, ai.ToolCall{
				ID:           id,
				Name:         item.Name,
				Arguments:    decodeArgumentMap(item.Arguments),
				RawArguments: item.Arguments,
			})
		}
	}

	response.Content = content.String()
	if len(response.ToolCalls) > 0 {
		response.FinishReason = ai.FinishToolCalls
	} else {
		response.FinishReason = ai.FinishStop
	}
}

// decodeChoices converts the first /chat/completions choice.
func decodeChoices(choices []chatChoice, response *ai.ChatResponse) {
	choice := choices[0]
	response.Content = choice.Message.Content
	response.FinishReason = mapFinishReason(choice.FinishReason)

	for _, call := range choice.Message.ToolCalls {
		response.ToolCalls = append(response.ToolCalls, ai.ToolCall{
			ID:           call.ID,
			Name:         call.Function.Name,
			Arguments:    decodeArgumentMap(call.Function.Arguments),
			RawArguments: call.Function.Arguments,
		})
	}
}

// decodeArgumentMap parses a tool-call argument string into canonical values.
// The parse is lenient (with one JSON-repair pass) and per-key tolerant: keys
// whose values fail conversion are skipped rather than failing the call. An
// unparseable string yields nil; the raw string is preserved alongside.
func decodeArgumentMap(raw string) map[string]ai.Value {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	fields, err := parse.ParseStringAs[map[string]json.RawMessage](raw)
	if err != nil {
		return nil
	}
	arguments := make(map[string]ai.Value, len(fields))
	for key, rawValue := range fields {
		value, err := ai.ParseValue(rawValue)
		if err != nil {
			continue
		}
		arguments[key] = value
	}
	return arguments
}
