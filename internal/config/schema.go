package config

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaSource string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("schema.json", strings.NewReader(schemaSource)); err != nil {
			schemaErr = fmt.Errorf("invalid schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("schema.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("invalid schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// validateSchema checks a decoded document against the embedded schema and
// reports each violation as a field error.
func validateSchema(doc interface{}) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	errs := &ValidationErrors{}
	collectSchemaErrors(verr, errs)
	if !errs.HasErrors() {
		errs.Add(fieldPath(verr.InstanceLocation), verr.Message)
	}
	return errs
}

// collectSchemaErrors flattens the leaf causes of a schema error.
func collectSchemaErrors(verr *jsonschema.ValidationError, errs *ValidationErrors) {
	if len(verr.Causes) == 0 {
		errs.Add(fieldPath(verr.InstanceLocation), verr.Message)
		return
	}
	for _, cause := range verr.Causes {
		collectSchemaErrors(cause, errs)
	}
}

// fieldPath turns a JSON pointer such as /element/name into element.name.
func fieldPath(pointer string) string {
	return strings.ReplaceAll(strings.TrimPrefix(pointer, "/"), "/", ".")
}
