package validator

import (
	"errors"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NewSanthoshCompiler returns a Compiler backed by santhosh-tekuri/jsonschema/v6.
// Schemas without a $schema keyword are read as draft 2020-12.
func NewSanthoshCompiler() Compiler {
	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft2020)
	return &santhoshCompiler{c: c}
}

type santhoshCompiler struct {
	mu sync.Mutex
	c  *jsonschema.Compiler
}

func (s *santhoshCompiler) AddSchema(id string, data JSONDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.AddResource(id, data)
}

func (s *santhoshCompiler) Compile(id string) (Validator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schema, err := s.c.Compile(id)
	if err != nil {
		return nil, err
	}
	return &santhoshValidator{schema: schema}, nil
}

type santhoshValidator struct {
	schema *jsonschema.Schema
}

// Validate returns a *ViolationError listing the innermost failures when doc
// does not match the schema.
func (sv *santhoshValidator) Validate(doc JSONDocument) error {
	err := sv.schema.Validate(doc)
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}

	p := message.NewPrinter(language.English)
	var violations []Violation
	collectLeaves(ve, func(leaf *jsonschema.ValidationError) {
		violations = append(violations, Violation{
			Location: "/" + strings.Join(leaf.InstanceLocation, "/"),
			Message:  leaf.ErrorKind.LocalizedString(p),
		})
	})
	return &ViolationError{Violations: violations}
}

func collectLeaves(ve *jsonschema.ValidationError, fn func(*jsonschema.ValidationError)) {
	if len(ve.Causes) == 0 {
		fn(ve)
		return
	}
	for _, c := range ve.Causes {
		collectLeaves(c, fn)
	}
}
