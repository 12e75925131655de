package observability

// Semantic conventions: shared attribute and event names so that every adapter
// reports the same keys regardless of which backend is plugged in.

// LLM attributes.
const (
	AttrLLMProvider          = "llm.provider"
	AttrLLMModel             = "llm.model"
	AttrLLMEndpoint          = "llm.endpoint"
	AttrLLMFinishReason      = "llm.finish_reason"
	AttrRequestMessagesCount = "llm.request.messages_count"
	AttrRequestToolsCount    = "llm.request.tools_count"
)

// HTTP attributes.
const (
	AttrHTTPMethod           = "http.method"
	AttrHTTPURL              = "http.url"
	AttrHTTPStatusCode       = "http.status_code"
	AttrHTTPRequestBodySize  = "http.request.body_size"
	AttrHTTPResponseBodySize = "http.response.body_size"
)

// Span event names.
const (
	EventLLMRequestStart  = "llm.request.start"
	EventLLMRequestEnd    = "llm.request.end"
	EventLLMStreamStart   = "llm.stream.start"
	EventLLMStreamEnd     = "llm.stream.end"
	EventLLMStreamAborted = "llm.stream.aborted"
)
