package openai

import (
	"encoding/json"
	"strings"

	"github.com/unillm/unillm/providers/ai"
)

// chatStreamChunk is one /chat/completions SSE payload.
type chatStreamChunk struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []chatStreamChoice `json:"choices"`
	Usage   *usageDetails      `json:"usage"`
}

type chatStreamChoice struct {
	Index        int             `json:"index"`
	Delta        chatStreamDelta `json:"delta"`
	FinishReason string          `json:"finish_reason"`
}

type chatStreamDelta struct {
	Role      string               `json:"role"`
	Content   *string              `json:"content"`
	ToolCalls []chatStreamToolCall `json:"tool_calls"`
}

// chatStreamToolCall is a tool-call fragment. Index correlates fragments of
// the same call across chunks; id and name appear on the first fragment only.
type chatStreamToolCall struct {
	Index    int              `json:"index"`
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function chatWireFunction `json:"function"`
}

// chatNormalizer converts /chat/completions SSE chunks into canonical stream
// events.
//
// Some deployments stream cumulative content (each chunk repeats everything
// sent so far plus the new tail) instead of plain increments. The normalizer
// tracks the longest content seen: when a chunk's content extends the tracked
// string it emits only the new suffix, otherwise the chunk is an ordinary
// increment and is emitted whole. Plain incremental streams pass through
// unchanged under the same rule.
//
// The wire delivers the finish_reason chunk before the usage-bearing chunk
// requested via stream_options.include_usage (an empty-choices chunk at the
// very end). The done event is therefore deferred: the finish reason is
// recorded when it arrives and emitted after the trailing usage chunk, or at
// end of transport when no usage chunk follows.
type chatNormalizer struct {
	state    streamState
	tracked  string
	builders map[int]*partialToolCall
	order    []int

	finished     bool
	finishReason ai.FinishReason
	sawToolCall  bool
}

func newChatNormalizer() *chatNormalizer {
	return &chatNormalizer{
		state:    streamIdle,
		builders: map[int]*partialToolCall{},
	}
}

func (n *chatNormalizer) feed(payload string) []ai.StreamEvent {
	if n.state == streamCompleted || n.state == streamFailed {
		return nil
	}
	n.state = streamAccumulating

	var chunk chatStreamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		// Malformed payloads are dropped, not fatal.
		return nil
	}

	var events []ai.StreamEvent

	if chunk.Usage != nil {
		events = append(events, ai.StreamEvent{
			Type:  ai.StreamEventUsage,
			Usage: chunk.Usage.toGeneric(),
		})
	}

	for _, choice := range chunk.Choices {
		if n.finished {
			break
		}

		if choice.Delta.Content != nil && *choice.Delta.Content != "" {
			if increment := n.contentIncrement(*choice.Delta.Content); increment != "" {
				events = append(events, ai.StreamEvent{
					Type:    ai.StreamEventContent,
					Content: increment,
				})
			}
		}

		for _, fragment := range choice.Delta.ToolCalls {
			events = append(events, n.handleToolCallFragment(fragment)...)
		}

		if choice.FinishReason != "" {
			events = append(events, n.flushToolCalls()...)
			n.finished = true
			n.finishReason = mapFinishReason(choice.FinishReason)
		}
	}

	// The usage chunk trails the finish_reason chunk; once both have
	// arrived the stream is complete.
	if n.finished && chunk.Usage != nil {
		events = append(events, n.done())
		n.state = streamCompleted
	}

	return events
}

func (n *chatNormalizer) done() ai.StreamEvent {
	finish := n.finishReason
	if finish == "" {
		finish = ai.FinishStop
		if n.sawToolCall {
			finish = ai.FinishToolCalls
		}
	}
	return ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: finish}
}

// contentIncrement resolves a chunk's content against the tracked prefix:
// cumulative chunks yield their new suffix, incremental chunks pass through
// whole and extend the tracked string.
func (n *chatNormalizer) contentIncrement(content string) string {
	if strings.HasPrefix(content, n.tracked) && len(content) > len(n.tracked) {
		increment := content[len(n.tracked):]
		n.tracked = content
		return increment
	}
	if content == n.tracked {
		// Cumulative repeat with nothing new.
		return ""
	}
	n.tracked += content
	return content
}

func (n *chatNormalizer) handleToolCallFragment(fragment chatStreamToolCall) []ai.StreamEvent {
	builder, exists := n.builders[fragment.Index]
	if !exists {
		builder = &partialToolCall{id: fragment.ID}
		if builder.id == "" {
			builder.id = newCallID()
		}
		builder.name = fragment.Function.Name
		n.builders[fragment.Index] = builder
		n.order = append(n.order, fragment.Index)

		events := []ai.StreamEvent{{
			Type:     ai.StreamEventToolCallStart,
			ToolCall: &ai.ToolCallDelta{ID: builder.id, Name: builder.name},
		}}
		if fragment.Function.Arguments != "" {
			builder.args.WriteString(fragment.Function.Arguments)
			events = append(events, ai.StreamEvent{
				Type:     ai.StreamEventToolCallDelta,
				ToolCall: &ai.ToolCallDelta{ID: builder.id, Arguments: fragment.Function.Arguments},
			})
		}
		return events
	}

	if fragment.ID != "" {
		builder.id = fragment.ID
	}
	if fragment.Function.Name != "" && builder.name == "" {
		builder.name = fragment.Function.Name
	}
	if fragment.Function.Arguments == "" {
		return nil
	}
	builder.args.WriteString(fragment.Function.Arguments)
	return []ai.StreamEvent{{
		Type:     ai.StreamEventToolCallDelta,
		ToolCall: &ai.ToolCallDelta{ID: builder.id, Arguments: fragment.Function.Arguments},
	}}
}

// flushToolCalls finalizes accumulated calls in arrival order.
func (n *chatNormalizer) flushToolCalls() []ai.StreamEvent {
	var events []ai.StreamEvent
	for _, index := range n.order {
		builder, ok := n.builders[index]
		if !ok {
			continue
		}
		if end, ok := builder.finalize(); ok {
			n.sawToolCall = true
			events = append(events, end)
		}
	}
	n.builders = map[int]*partialToolCall{}
	n.order = nil
	return events
}

// finish handles end-of-transport: it closes streams that ended without a
// finish_reason chunk, and streams whose finish_reason was never followed by
// a usage chunk.
func (n *chatNormalizer) finish() []ai.StreamEvent {
	if n.state == streamCompleted || n.state == streamFailed {
		return nil
	}

	events := n.flushToolCalls()
	events = append(events, n.done())
	n.state = streamCompleted
	return events
}
