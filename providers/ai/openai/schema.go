package openai

import "github.com/unillm/unillm/internal/jsonschema"

// renderToolSchema converts a canonical tool parameter schema into the wire
// JSON-Schema object. Object nodes always carry an explicit "required" array
// (an empty array, never an omitted key); in strict mode they additionally
// pin "additionalProperties" to false, as the strict-schema endpoints demand.
func renderToolSchema(schema *jsonschema.Schema, strict bool) map[string]any {
	if schema == nil {
		schema = &jsonschema.Schema{Type: "object"}
	}
	return renderSchemaNode(schema, strict, true)
}

func renderSchemaNode(schema *jsonschema.Schema, strict bool, isRoot bool) map[string]any {
	node := map[string]any{}

	nodeType := schema.Type
	if nodeType == "" && (isRoot || schema.Properties != nil) {
		nodeType = "object"
	}
	if nodeType != "" {
		node["type"] = nodeType
	}
	if schema.Description != "" {
		node["description"] = schema.Description
	}
	if schema.Enum != nil {
		node["enum"] = schema.Enum
	}
	if schema.Items != nil {
		node["items"] = renderSchemaNode(schema.Items, strict, false)
	}

	if nodeType == "object" {
		properties := map[string]any{}
		for name, property := range schema.Properties {
			properties[name] = renderSchemaNode(property, strict, false)
		}
		node["properties"] = properties

		required := schema.Required
		if required == nil {
			required = []string{}
		}
		node["required"] = required

		if strict {
			node["additionalProperties"] = false
		} else if schema.AdditionalProperties != nil {
			node["additionalProperties"] = schema.AdditionalProperties
		}
	}

	return node
}
