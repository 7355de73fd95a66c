package compdb

import (
	_ "embed"
	"sync"

	"github.com/andyballingall/cdbtidy/internal/validator"
)

const schemaID = "https://cdbtidy.local/compile_commands.schema.json"

//go:embed compile_commands.schema.json
var schemaText []byte

var compiledSchema = sync.OnceValues(func() (validator.Validator, error) {
	doc, err := validator.DecodeJSON(schemaText)
	if err != nil {
		return nil, err
	}
	c := validator.NewSanthoshCompiler()
	if err := c.AddSchema(schemaID, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaID)
})

// Validate checks that data is a well-formed single-entry compilation database.
func Validate(data []byte) error {
	v, err := compiledSchema()
	if err != nil {
		return err
	}

	doc, err := validator.DecodeJSON(data)
	if err != nil {
		return &InvalidDatabaseError{Wrapped: err}
	}
	if err := v.Validate(doc); err != nil {
		return &InvalidDatabaseError{Wrapped: err}
	}
	return nil
}
