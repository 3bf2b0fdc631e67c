// Package schemas validates factor records and decisions against the JSON
// Schemas embedded in the top-level schemas package.
package schemas

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jonathan/platform-decider/schemas"
	"github.com/xeipuuv/gojsonschema"
)

// ValidationError lists every schema violation of one document
type ValidationError struct {
	Errors []FieldError
}

// FieldError is a single violation; Field is a dotted path or "(root)"
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// Fields returns the violated field paths in report order
func (ve *ValidationError) Fields() []string {
	fields := make([]string, len(ve.Errors))
	for i, fe := range ve.Errors {
		fields[i] = fe.Field
	}
	return fields
}

// SchemaLoadError means the schema itself could not be read or compiled
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// ValidateJSONString validates a JSON document against schema text
func ValidateJSONString(schemaContent, jsonContent string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaContent),
		gojsonschema.NewStringLoader(jsonContent),
	)
	if err != nil {
		return &SchemaLoadError{Path: "(string schema)", Message: "schema validation failed during load", Cause: err}
	}
	return resultError(result)
}

// compiled caches one embedded schema per name
var compiled sync.Map // name -> func() (*gojsonschema.Schema, error)

func embeddedSchema(name string) (*gojsonschema.Schema, error) {
	load, _ := compiled.LoadOrStore(name, sync.OnceValues(func() (*gojsonschema.Schema, error) {
		data, err := schemas.Read(name)
		if err != nil {
			return nil, &SchemaLoadError{Path: name, Message: "embedded schema missing", Cause: err}
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, &SchemaLoadError{Path: name, Message: "invalid schema", Cause: err}
		}
		return schema, nil
	}))
	return load.(func() (*gojsonschema.Schema, error))()
}

func validate(name string, document gojsonschema.JSONLoader) error {
	schema, err := embeddedSchema(name)
	if err != nil {
		return err
	}
	result, err := schema.Validate(document)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	return resultError(result)
}

// Validate checks raw JSON against the embedded schema called name
// (schemas.FactorRecord or schemas.PlatformDecision).
func Validate(name string, data []byte) error {
	return validate(name, gojsonschema.NewBytesLoader(data))
}

// ValidateFactorRecord validates raw factor record JSON
func ValidateFactorRecord(data []byte) error {
	return Validate(schemas.FactorRecord, data)
}

// ValidateDecision validates a decision value or its raw JSON bytes
func ValidateDecision(v any) error {
	if data, ok := v.([]byte); ok {
		return Validate(schemas.PlatformDecision, data)
	}
	return validate(schemas.PlatformDecision, gojsonschema.NewGoLoader(v))
}

func resultError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return validationErr
}
