package ai

import "iter"

// StreamEventType identifies the kind of delta carried by a StreamEvent.
type StreamEventType string

const (
	// StreamEventContent indicates a text content delta.
	StreamEventContent StreamEventType = "content"
	// StreamEventToolCallStart indicates a new tool call opening (id and,
	// when already known, name).
	StreamEventToolCallStart StreamEventType = "tool_call_start"
	// StreamEventToolCallDelta indicates an incremental argument fragment
	// for an open tool call.
	StreamEventToolCallDelta StreamEventType = "tool_call_delta"
	// StreamEventToolCallEnd indicates a finalized tool call with its
	// arguments fully reconstructed and parsed.
	StreamEventToolCallEnd StreamEventType = "tool_call_end"
	// StreamEventUsage carries token usage metadata (typically the final event).
	StreamEventUsage StreamEventType = "usage"
	// StreamEventDone signals that the stream has finished normally.
	StreamEventDone StreamEventType = "done"
	// StreamEventError signals an error that terminated the stream.
	StreamEventError StreamEventType = "error"
)

// ToolCallDelta is an incremental update to a tool call being streamed. Start
// events carry ID and possibly Name; delta events carry ID plus an Arguments
// fragment to append.
type ToolCallDelta struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// StreamEvent is a single canonical delta yielded during streaming. Each
// event carries exactly one payload, identified by Type. Events are ordered:
// they preserve the relative order of the upstream events that produced them.
type StreamEvent struct {
	Type         StreamEventType `json:"type"`
	Content      string          `json:"content,omitempty"`       // Text delta (StreamEventContent)
	ToolCall     *ToolCallDelta  `json:"tool_call,omitempty"`     // Partial call (start/delta)
	FinalCall    *ToolCall       `json:"final_call,omitempty"`    // Completed call (StreamEventToolCallEnd)
	Usage        *Usage          `json:"usage,omitempty"`         // Token usage (StreamEventUsage)
	FinishReason FinishReason    `json:"finish_reason,omitempty"` // Present on StreamEventDone
	Error        string          `json:"error,omitempty"`         // Error message (StreamEventError)
}

// ChatStream wraps a streaming iterator and provides automatic accumulation
// of deltas into a final ChatResponse. It supports range-based iteration for
// real-time processing and a convenience Collect() for callers who want the
// complete response.
//
// Callers must consume the stream, either by iterating Iter() (breaking out
// early is fine) or by calling Collect(). The provider may hold open
// resources (such as an HTTP response body) that are released only when the
// iterator completes or is abandoned via a loop break.
type ChatStream struct {
	iterator iter.Seq2[StreamEvent, error]
}

// NewChatStream creates a ChatStream from a raw streaming iterator. The
// iterator yields StreamEvent values with a nil error for normal deltas; a
// non-nil error is terminal and carries the canonical classification.
func NewChatStream(iterator iter.Seq2[StreamEvent, error]) *ChatStream {
	return &ChatStream{iterator: iterator}
}

// NewSingleEventStream wraps a synchronous ChatResponse as a short stream:
// one content event, the finalized tool calls, usage, then done. Used as a
// fallback when a provider cannot stream.
func NewSingleEventStream(response *ChatResponse) *ChatStream {
	iteratorFunc := func(yield func(StreamEvent, error) bool) {
		if response.Content != "" {
			if !yield(StreamEvent{Type: StreamEventContent, Content: response.Content}, nil) {
				return
			}
		}

		for i := range response.ToolCalls {
			call := response.ToolCalls[i]
			if !yield(StreamEvent{Type: StreamEventToolCallEnd, FinalCall: &call}, nil) {
				return
			}
		}

		if response.Usage != nil {
			if !yield(StreamEvent{Type: StreamEventUsage, Usage: response.Usage}, nil) {
				return
			}
		}

		yield(StreamEvent{Type: StreamEventDone, FinishReason: response.FinishReason}, nil)
	}

	return NewChatStream(iteratorFunc)
}

// Iter returns the underlying iterator for use with range-over-func loops.
//
// Example:
//
//	for event, err := range stream.Iter() {
//	    if err != nil { handle error }
//	    fmt.Print(event.Content)
//	}
func (stream *ChatStream) Iter() iter.Seq2[StreamEvent, error] {
	return stream.iterator
}

// Collect consumes the entire stream and returns the accumulated
// ChatResponse. A mid-stream error terminates collection and returns the
// partial response together with the error.
func (stream *ChatStream) Collect() (*ChatResponse, error) {
	accumulated := &ChatResponse{}

	for event, err := range stream.iterator {
		if err != nil {
			return accumulated, err
		}

		switch event.Type {
		case StreamEventContent:
			accumulated.Content += event.Content

		case StreamEventToolCallStart, StreamEventToolCallDelta:
			// Partial calls are informational; the finalized call arrives
			// with StreamEventToolCallEnd.

		case StreamEventToolCallEnd:
			if event.FinalCall != nil {
				accumulated.ToolCalls = append(accumulated.ToolCalls, *event.FinalCall)
			}

		case StreamEventUsage:
			if event.Usage != nil {
				accumulated.Usage = event.Usage
			}

		case StreamEventDone:
			accumulated.FinishReason = event.FinishReason

		case StreamEventError:
			// The classification arrives through the iterator's error value.
		}
	}

	return accumulated, nil
}
