// Package ai defines the canonical request, message, tool, response, and
// streaming-event model shared by every provider adapter, together with the
// error taxonomy and the Transport contract adapters speak through.
//
// Provider adapters (subpackages such as openai) translate this canonical
// model to and from their wire formats; callers only ever see the types
// defined here.
package ai
