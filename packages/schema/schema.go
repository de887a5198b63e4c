// Package schema validates response bodies against JSON Schema documents.
package schema

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalid is wrapped by every error reporting a body that does not match
// its schema.
var ErrInvalid = errors.New("schema validation failed")

// ValidationError lists the schema violations of one document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

type Validator struct {
	schema *gojsonschema.Schema
}

// Load compiles the schema in the file at path.
func Load(path string) (*Validator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return New(data)
}

// New compiles a schema document.
func New(schemaData []byte) (*Validator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaData))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Validator{schema: s}, nil
}

// Validate checks body. A body that is not JSON is an error, a body that
// breaks the schema is a *ValidationError.
func (v *Validator) Validate(body []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return &ValidationError{Problems: problems}
}
