// Package openai adapts the canonical chat model to the OpenAI API.
//
// OpenAI exposes two wire dialects. Newer model families (gpt-5, o-series)
// use the Responses API: an input/output item model with event-typed SSE
// streaming. Older families (gpt-4o and earlier) use Chat Completions: a
// choices array with delta-chunk streaming. The adapter classifies the model
// identifier, encodes the request for the matching dialect, and normalizes
// both response shapes and both streaming schemas into the same canonical
// events, so callers never see the difference.
package openai
