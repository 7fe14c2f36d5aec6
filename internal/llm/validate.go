package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	pageSchemaOnce sync.Once
	pageSchema     *jsonschema.Schema
	pageSchemaErr  error
)

// CompileSchema compiles schemaMap into a reusable validator.
func CompileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateAgainstSchema checks data, any JSON-encodable value, against schema.
// The value is round-tripped so the validator sees plain JSON types ([]string -> []any).
func ValidateAgainstSchema(schema *jsonschema.Schema, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// ValidatePageFields checks a recovered page map against BuildPageJSONSchema.
// The schema is compiled once per process.
func ValidatePageFields(m map[string]any) error {
	pageSchemaOnce.Do(func() {
		pageSchema, pageSchemaErr = CompileSchema(BuildPageJSONSchema())
	})
	if pageSchemaErr != nil {
		return pageSchemaErr
	}
	if err := ValidateAgainstSchema(pageSchema, m); err != nil {
		return fmt.Errorf("page: %w", err)
	}
	return nil
}
