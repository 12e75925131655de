package jsonschema

import (
	"encoding/json"
	"fmt"
)

// Schema describes the parameters of a tool in JSON-Schema form. It is the
// canonical, provider-independent representation: each provider adapter renders
// it into whatever schema dialect its wire format expects.
//
// Only the subset of JSON Schema that tool definitions actually use is
// modelled: object properties, per-property type/description/enum, array item
// types, and the required-name list.
type Schema struct {
	// Type is the JSON type of this node: "object", "array", "string",
	// "number", "integer", "boolean".
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties maps property names to their schemas (Type == "object").
	Properties map[string]*Schema `json:"properties,omitempty"`
	// Items is the element schema for array types.
	Items *Schema `json:"items,omitempty"`
	// Enum lists the allowed values for this node, when restricted.
	Enum []any `json:"enum,omitempty"`
	// AdditionalProperties controls whether undeclared properties are
	// accepted. Adapters targeting strict APIs set this to false on the wire.
	AdditionalProperties any `json:"additionalProperties,omitempty"`
}

// Validate checks the structural invariants of a tool parameter schema.
// Every name in Required must be declared in Properties; the check recurses
// into nested object and array schemas.
func (s *Schema) Validate() error {
	if s == nil {
		return nil
	}
	for _, name := range s.Required {
		if _, ok := s.Properties[name]; !ok {
			return fmt.Errorf("required property %q is not declared", name)
		}
	}
	for name, prop := range s.Properties {
		if err := prop.Validate(); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
	}
	if s.Items != nil {
		if err := s.Items.Validate(); err != nil {
			return fmt.Errorf("items: %w", err)
		}
	}
	return nil
}

// Clone returns a deep copy of the schema. Adapters mutate the copy when they
// need to impose wire-specific constraints (strict mode, explicit required
// arrays) without touching the caller's definition.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := &Schema{
		Type:                 s.Type,
		Description:          s.Description,
		AdditionalProperties: s.AdditionalProperties,
		Items:                s.Items.Clone(),
	}
	if s.Required != nil {
		out.Required = append([]string(nil), s.Required...)
	}
	if s.Enum != nil {
		out.Enum = append([]any(nil), s.Enum...)
	}
	if s.Properties != nil {
		out.Properties = make(map[string]*Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.Clone()
		}
	}
	return out
}

// JSONString returns the compact JSON representation of the schema.
func (s *Schema) JSONString() (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}
	return string(raw), nil
}

// String implements fmt.Stringer for debug output.
func (s *Schema) String() string {
	jsonStr, err := s.JSONString()
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return jsonStr
}
