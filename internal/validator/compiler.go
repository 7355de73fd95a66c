// Package validator provides interfaces and types for JSON Schema validation.
package validator

import (
	"bytes"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// A JSONDocument is a parsed JSON document in the form produced by DecodeJSON.
type JSONDocument interface{}

// Validator represents something which can be used to validate a JSON document.
type Validator interface {
	// Validate validates a JSON document.
	Validate(v JSONDocument) error
}

// Compiler defines a JSON Schema compiler. Schemas are registered under an ID
// before they can be compiled.
type Compiler interface {
	// AddSchema registers a parsed JSON Schema with the compiler.
	AddSchema(id string, data JSONDocument) error

	// Compile creates a Validator from the schema previously added with the given ID.
	Compile(id string) (Validator, error)
}

// DecodeJSON parses raw JSON into a JSONDocument. Numbers are kept as json.Number
// which is what the compiler expects for both schemas and instances.
func DecodeJSON(data []byte) (JSONDocument, error) {
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}

// Violation is a single place where a document breaks its schema. Location is
// a JSON pointer into the document; the root is "/".
type Violation struct {
	Location string
	Message  string
}

// ViolationError is returned by Validate when a document does not match.
type ViolationError struct {
	Violations []Violation
}

func (e *ViolationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Location + ": " + v.Message
	}
	return strings.Join(parts, "; ")
}
