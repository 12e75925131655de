package openai

import "testing"

func TestClassifyModel(t *testing.T) {
	tests := []struct {
		model             string
		dialect           apiDialect
		renamedTokenLimit bool
		supportsReasoning bool
		supportsVerbosity bool
	}{
		{"gpt-5", dialectResponses, true, true, true},
		{"gpt-5-mini", dialectResponses, true, true, true},
		{"o1-preview", dialectResponses, true, true, false},
		{"o3", dialectResponses, true, true, false},
		{"o4-mini", dialectResponses, true, true, false},
		{"gpt-4o", dialectChatCompletions, false, false, false},
		{"gpt-4o-mini", dialectChatCompletions, false, false, false},
		{"gpt-4-turbo", dialectChatCompletions, false, false, false},
		{"gpt-3.5-turbo", dialectChatCompletions, false, false, false},
		{"some-future-model", dialectChatCompletions, false, false, false},
		{"GPT-5", dialectResponses, true, true, true}, // case-insensitive
	}

	for _, test := range tests {
		t.Run(test.model, func(t *testing.T) {
			family := classifyModel(test.model)
			if family.dialect != test.dialect {
				t.Errorf("dialect: expected %v, got %v", test.dialect, family.dialect)
			}
			if family.renamedTokenLimit != test.renamedTokenLimit {
				t.Errorf("renamedTokenLimit: expected %v, got %v", test.renamedTokenLimit, family.renamedTokenLimit)
			}
			if family.supportsReasoning != test.supportsReasoning {
				t.Errorf("supportsReasoning: expected %v, got %v", test.supportsReasoning, family.supportsReasoning)
			}
			if family.supportsVerbosity != test.supportsVerbosity {
				t.Errorf("supportsVerbosity: expected %v, got %v", test.supportsVerbosity, family.supportsVerbosity)
			}
		})
	}
}

func TestClassifyModel_SameModelSameFamily(t *testing.T) {
	// Classification is pure: two requests with the same identifier always
	// land on the same endpoint.
	first := classifyModel("gpt-5-nano")
	second := classifyModel("gpt-5-nano")
	if first != second {
		t.Errorf("classification is not stable: %+v vs %+v", first, second)
	}
}
