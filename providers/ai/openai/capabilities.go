package openai

import "strings"

// apiDialect selects which of the two wire formats a request uses. The two
// dialects differ in everything that matters: request body layout, the shape
// of the synchronous response (output array vs choices array), and the SSE
// streaming schema (event-typed vs cumulative chunks).
type apiDialect int

const (
	// dialectChatCompletions targets /chat/completions: choices-array
	// responses and delta-chunk streaming.
	dialectChatCompletions apiDialect = iota

	// dialectResponses targets /responses: output-array responses and
	// event-typed streaming.
	dialectResponses
)

// modelFamily captures what a model's API variant accepts. It is derived
// purely from the model identifier prefix so that wire-format decisions are
// made once per call, not scattered across call sites.
type modelFamily struct {
	dialect apiDialect

	// renamedTokenLimit selects the renamed token-limit field
	// (max_completion_tokens) over the legacy max_tokens. Families that
	// require the renamed field reject the legacy one outright.
	renamedTokenLimit bool

	// supportsReasoning enables the reasoning-effort option. Families
	// without it silently omit the option rather than erroring.
	supportsReasoning bool

	// supportsVerbosity enables the output-verbosity option.
	supportsVerbosity bool

	// supportsTemperature is false for reasoning models, which reject
	// sampling controls.
	supportsTemperature bool
}

// classifyModel maps a model identifier onto its family. Pure function of the
// identifier prefix; unknown models get the conservative chat-completions
// defaults.
func classifyModel(model string) modelFamily {
	id := strings.ToLower(strings.TrimSpace(model))

	switch {
	case hasAnyPrefix(id, "gpt-5"):
		return modelFamily{
			dialect:           dialectResponses,
			renamedTokenLimit: true,
			supportsReasoning: true,
			supportsVerbosity: true,
		}

	case hasAnyPrefix(id, "o1", "o3", "o4"):
		return modelFamily{
			dialect:           dialectResponses,
			renamedTokenLimit: true,
			supportsReasoning: true,
		}

	default:
		return modelFamily{
			dialect:             dialectChatCompletions,
			supportsTemperature: true,
		}
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
