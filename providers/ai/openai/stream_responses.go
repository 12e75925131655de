package openai

import (
	"encoding/json"

	"github.com/unillm/unillm/providers/ai"
)

// responsesStreamEvent is the envelope of one event-typed SSE payload from
// the /responses dialect. Which fields are populated depends on Type.
type responsesStreamEvent struct {
	Type      string        `json:"type"`
	Delta     string        `json:"delta"`
	ItemID    string        `json:"item_id"`
	Arguments string        `json:"arguments"`
	Item      *outputItem   `json:"item"`
	Response  *syncEnvelope `json:"response"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// responsesNormalizer converts /responses event-typed SSE payloads into
// canonical stream events.
//
// Tool calls arrive in pieces with no guaranteed order between the piece that
// names the call (output_item.added) and the piece that completes its
// arguments (function_call_arguments.done); finalization fires on whichever
// arrives second. response.completed flushes whatever is still pending, so a
// call whose done event was lost still finalizes from its accumulated deltas.
type responsesNormalizer struct {
	state   streamState
	calls   map[string]*partialToolCall
	order   []string
	anonKey string
	usage   *ai.Usage

	sawToolCall bool
}

func newResponsesNormalizer() *responsesNormalizer {
	return &responsesNormalizer{
		state: streamIdle,
		calls: map[string]*partialToolCall{},
	}
}

func (n *responsesNormalizer) feed(payload string) []ai.StreamEvent {
	if n.state == streamCompleted || n.state == streamFailed {
		return nil
	}
	n.state = streamAccumulating

	var event responsesStreamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		// Malformed payloads are dropped; the next well-formed event
		// resumes the stream.
		return nil
	}

	switch event.Type {
	case "response.output_text.delta":
		if event.Delta == "" {
			return nil
		}
		return []ai.StreamEvent{{Type: ai.StreamEventContent, Content: event.Delta}}

	case "response.output_item.added":
		return n.handleItemAdded(event.Item)

	case "response.function_call_arguments.delta":
		entry := n.ensure(event.ItemID)
		entry.args.WriteString(event.Delta)
		return []ai.StreamEvent{{
			Type:     ai.StreamEventToolCallDelta,
			ToolCall: &ai.ToolCallDelta{ID: entry.id, Arguments: event.Delta},
		}}

	case "response.function_call_arguments.done":
		key := n.resolveKey(event.ItemID)
		entry := n.ensure(key)
		entry.final = event.Arguments
		entry.argsDone = true
		if entry.name == "" {
			// The naming event has not arrived yet; it finalizes instead.
			return nil
		}
		if end, ok := n.finalizeCall(key); ok {
			return []ai.StreamEvent{end}
		}
		return nil

	case "response.completed":
		if event.Response != nil && event.Response.Usage != nil {
			n.usage = event.Response.Usage.toGeneric()
		}
		return n.complete()

	case "response.failed", "error":
		n.state = streamFailed
		message := "stream reported failure"
		if event.Error != nil && event.Error.Message != "" {
			message = event.Error.Message
		}
		return []ai.StreamEvent{{Type: ai.StreamEventError, Error: message}}

	default:
		// Event types with no canonical counterpart (created, in_progress,
		// output_text.done, ...) are skipped.
		return nil
	}
}

func (n *responsesNormalizer) handleItemAdded(item *outputItem) []ai.StreamEvent {
	if item == nil || item.Type != "function_call" {
		return nil
	}

	key := item.ID
	if key == "" {
		key = item.CallID
	}
	key = n.resolveKey(key)
	entry := n.ensure(key)
	if item.CallID != "" {
		entry.id = item.CallID
	}
	if item.Name != "" {
		entry.name = item.Name
	}

	events := []ai.StreamEvent{{
		Type:     ai.StreamEventToolCallStart,
		ToolCall: &ai.ToolCallDelta{ID: entry.id, Name: entry.name},
	}}

	// Arguments may already be complete when the naming event arrives late.
	if entry.argsDone && entry.name != "" {
		if end, ok := n.finalizeCall(key); ok {
			events = append(events, end)
		}
	}
	return events
}

// resolveKey maps an absent item identifier onto one shared generated key, so
// fragments of an id-less call land on the same entry instead of opening a
// new orphan per event. The key is retired with its call.
func (n *responsesNormalizer) resolveKey(key string) string {
	if key != "" {
		return key
	}
	if n.anonKey == "" {
		n.anonKey = newCallID()
	}
	return n.anonKey
}

// ensure returns the accumulating call for an item key, opening one if the
// key is new. A missing key means the provider omitted the identifier; a
// generated one keeps the event correlation intact.
func (n *responsesNormalizer) ensure(key string) *partialToolCall {
	key = n.resolveKey(key)
	if entry, ok := n.calls[key]; ok {
		return entry
	}
	entry := &partialToolCall{id: key}
	n.calls[key] = entry
	n.order = append(n.order, key)
	return entry
}

func (n *responsesNormalizer) finalizeCall(key string) (ai.StreamEvent, bool) {
	entry, ok := n.calls[key]
	if !ok {
		return ai.StreamEvent{}, false
	}
	delete(n.calls, key)
	if key == n.anonKey {
		n.anonKey = ""
	}
	for i, k := range n.order {
		if k == key {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}

	end, ok := entry.finalize()
	if ok {
		n.sawToolCall = true
	}
	return end, ok
}

// complete flushes pending calls in arrival order and closes the stream.
func (n *responsesNormalizer) complete() []ai.StreamEvent {
	var events []ai.StreamEvent

	pending := append([]string(nil), n.order...)
	for _, key := range pending {
		if end, ok := n.finalizeCall(key); ok {
			events = append(events, end)
		}
	}

	if n.usage != nil {
		events = append(events, ai.StreamEvent{Type: ai.StreamEventUsage, Usage: n.usage})
	}

	finish := ai.FinishStop
	if n.sawToolCall {
		finish = ai.FinishToolCalls
	}
	events = append(events, ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: finish})

	n.state = streamCompleted
	return events
}

// finish handles end-of-transport. A stream that ends without an explicit
// response.completed event still closes gracefully.
func (n *responsesNormalizer) finish() []ai.StreamEvent {
	if n.state == streamCompleted || n.state == streamFailed {
		return nil
	}
	return n.complete()
}
