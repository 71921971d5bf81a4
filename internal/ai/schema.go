package ai

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildIdentifySchema returns the JSON-Schema the identification verdict
// must match. We pass it to providers as a structured output constraint and
// also use it locally to validate.
func BuildIdentifySchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"kind":       map[string]any{"type": "string", "enum": []string{"source_material", "novel"}},
			"game":       map[string]any{"type": "string", "minLength": 1},
			"edition":    map[string]any{"type": "string"},
			"book_code":  map[string]any{"type": "string"},
			"book_title": map[string]any{"type": "string"},
			"publisher":  map[string]any{"type": "string"},
			"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"rationale":  map[string]any{"type": "string"},
		},
		"required": []string{"kind", "game", "confidence"},
	}
}

// BuildCategorizeSchema constrains the category verdict to the allowed
// taxonomy plus Uncategorized.
func BuildCategorizeSchema(allowed []string) map[string]any {
	categoryProp := map[string]any{"type": "string"}
	if len(allowed) > 0 {
		enum := make([]any, 0, len(allowed)+1)
		for _, c := range allowed {
			enum = append(enum, c)
		}
		enum = append(enum, "Uncategorized")
		categoryProp["enum"] = enum
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"category":   categoryProp,
			"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"rationale":  map[string]any{"type": "string"},
		},
		"required": []string{"category", "confidence"},
	}
}

// BuildCharactersSchema constrains the character-pass output.
func BuildCharactersSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"characters": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"name":          map[string]any{"type": "string", "minLength": 1},
						"aliases":       stringArrayProp(),
						"personality":   stringArrayProp(),
						"behavior_tags": stringArrayProp(),
						"description":   map[string]any{"type": "string"},
						"related_to":    stringArrayProp(),
						"quotes":        stringArrayProp(),
					},
					"required": []string{"name"},
				},
			},
		},
		"required": []string{"characters"},
	}
}

func stringArrayProp() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
