package jsonschema

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	valid := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"city": {Type: "string"},
			"days": {Type: "integer"},
		},
		Required: []string{"city"},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid schema rejected: %v", err)
	}

	var nilSchema *Schema
	if err := nilSchema.Validate(); err != nil {
		t.Errorf("nil schema must validate: %v", err)
	}
}

func TestValidate_UndeclaredRequired(t *testing.T) {
	schema := &Schema{
		Type:       "object",
		Properties: map[string]*Schema{"city": {Type: "string"}},
		Required:   []string{"city", "days"},
	}
	err := schema.Validate()
	if err == nil {
		t.Fatal("expected error for undeclared required property")
	}
	if !strings.Contains(err.Error(), "days") {
		t.Errorf("error must name the missing property, got %v", err)
	}
}

func TestValidate_RecursesIntoNested(t *testing.T) {
	schema := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"filter": {
				Type:       "object",
				Properties: map[string]*Schema{"field": {Type: "string"}},
				Required:   []string{"missing"},
			},
		},
	}
	if err := schema.Validate(); err == nil {
		t.Fatal("expected nested validation failure")
	}

	arraySchema := &Schema{
		Type: "array",
		Items: &Schema{
			Type:     "object",
			Required: []string{"nope"},
		},
	}
	if err := arraySchema.Validate(); err == nil {
		t.Fatal("expected items validation failure")
	}
}

func TestClone_IsDeep(t *testing.T) {
	original := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"city": {Type: "string", Enum: []any{"Paris", "Tokyo"}},
		},
		Required: []string{"city"},
	}

	clone := original.Clone()
	clone.Required[0] = "changed"
	clone.Properties["city"].Type = "integer"
	clone.Properties["extra"] = &Schema{Type: "boolean"}

	if original.Required[0] != "city" {
		t.Error("clone shares the required slice")
	}
	if original.Properties["city"].Type != "string" {
		t.Error("clone shares nested property schemas")
	}
	if _, ok := original.Properties["extra"]; ok {
		t.Error("clone shares the properties map")
	}

	var nilSchema *Schema
	if nilSchema.Clone() != nil {
		t.Error("cloning nil yields nil")
	}
}

func TestJSONString(t *testing.T) {
	schema := &Schema{
		Type:       "object",
		Properties: map[string]*Schema{"q": {Type: "string", Description: "query"}},
	}
	rendered, err := schema.JSONString()
	if err != nil {
		t.Fatalf("JSONString returned error: %v", err)
	}
	if !strings.Contains(rendered, `"type":"object"`) || !strings.Contains(rendered, `"description":"query"`) {
		t.Errorf("unexpected rendering: %s", rendered)
	}
}
