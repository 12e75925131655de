package openai

import (
	"strings"

	"github.com/google/uuid"

	"github.com/unillm/unillm/providers/ai"
)

// streamNormalizer converts raw SSE data payloads into canonical stream
// events. feed handles one payload (the [DONE] sentinel never reaches it; the
// SSE scanner turns it into end-of-stream); finish flushes pending state when
// the transport ends without an explicit completion chunk.
//
// A normalizer moves through idle, accumulating and one of the two terminal
// states. Once terminal, further payloads are ignored.
type streamNormalizer interface {
	feed(payload string) []ai.StreamEvent
	finish() []ai.StreamEvent
}

type streamState int

const (
	streamIdle streamState = iota
	streamAccumulating
	streamCompleted
	streamFailed
)

// partialToolCall accumulates one tool call while its fragments arrive.
// Finalization requires both the name and the complete argument string, and
// the wire guarantees no order between them, so whichever arrives last
// triggers the end event.
type partialToolCall struct {
	id       string
	name     string
	args     strings.Builder
	final    string
	argsDone bool
}

// finalize converts an accumulated call into its terminal event. Calls that
// never received a name, or whose arguments defeat even the repairing parser,
// are dropped without failing the stream.
func (p *partialToolCall) finalize() (ai.StreamEvent, bool) {
	if p.name == "" {
		return ai.StreamEvent{}, false
	}
	arguments := p.final
	if arguments == "" {
		arguments = p.args.String()
	}
	argumentMap := decodeArgumentMap(arguments)
	if argumentMap == nil && strings.TrimSpace(arguments) != "" {
		return ai.StreamEvent{}, false
	}
	return ai.StreamEvent{
		Type: ai.StreamEventToolCallEnd,
		FinalCall: &ai.ToolCall{
			ID:           p.id,
			Name:         p.name,
			Arguments:    argumentMap,
			RawArguments: arguments,
		},
	}, true
}

// newCallID fills in an identifier for providers that stream calls without
// one, so downstream consumers can always correlate start/delta/end events.
func newCallID() string {
	return "call_" + uuid.NewString()
}
