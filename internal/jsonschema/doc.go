// Package jsonschema defines the provider-independent JSON Schema subset used
// to describe tool parameters.
package jsonschema
