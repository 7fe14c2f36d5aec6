package llm

// BuildPageJSONSchema returns a JSON-Schema (draft 2020-12 subset) describing what a
// page answer should look like. It is deliberately permissive: extra keys are
// allowed and only the fields the pipeline reads are typed.
func BuildPageJSONSchema() map[string]any {
	props := map[string]any{
		"type":         map[string]any{"type": "string", "minLength": 1},
		"confidence":   map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		"main_content": map[string]any{"type": "string"},
		"key_data":     map[string]any{"type": "object"},
		"amounts": map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "string"},
		},
		"dates":          map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"tables":         map[string]any{"type": "array"},
		"important_info": map[string]any{"type": "array"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties":           props,
		"required":             []string{"type", "confidence"},
	}
}
