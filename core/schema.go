package core

import (
	"fmt"

	"github.com/promptmesh/promptmesh/internal/util"
)

// Schema describes the parameters a function accepts. Definition exposes the
// model-facing JSON schema; Parse validates a raw argument payload produced
// by the model and converts it into the value handed to the function handler.
type Schema interface {
	// Definition returns the JSON schema advertised to the model.
	Definition() map[string]any

	// Parse validates raw arguments against the schema and converts them to
	// the handler argument value. Validation failures are reported as
	// *ValidationError.
	Parse(raw map[string]any) (any, error)
}

// structSchema derives its definition from a struct type via reflection and
// parses raw arguments into a value of that type.
type structSchema[T any] struct {
	def map[string]any
}

// SchemaOf builds a Schema from struct type T using reflection. Field naming
// follows the json tag ("-" skips a field, omitempty and pointer types mark a
// field optional); description tags populate per-field descriptions. Parse
// yields a T value.
func SchemaOf[T any]() Schema {
	var zero T
	return &structSchema[T]{def: util.CreateSchema(zero)}
}

// Definition implements the Schema interface.
func (s *structSchema[T]) Definition() map[string]any { return s.def }

// Parse implements the Schema interface, producing a T value.
func (s *structSchema[T]) Parse(raw map[string]any) (any, error) {
	if err := validateParameters(raw, s.def); err != nil {
		return nil, err
	}

	var v T
	if err := util.Decode(raw, &v); err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("cannot decode arguments: %v", err)}
	}

	return v, nil
}

// mapSchema wraps a hand-written JSON schema map. Parse validates raw
// arguments and returns the map unchanged.
type mapSchema struct {
	def map[string]any
}

// MapSchema builds a Schema from an explicit JSON schema map for cases where
// a reflection-derived definition is insufficient. Parse yields the validated
// raw map itself.
func MapSchema(def map[string]any) Schema {
	return &mapSchema{def: def}
}

// Definition implements the Schema interface.
func (s *mapSchema) Definition() map[string]any { return s.def }

// Parse implements the Schema interface, producing the validated raw map.
func (s *mapSchema) Parse(raw map[string]any) (any, error) {
	if err := validateParameters(raw, s.def); err != nil {
		return nil, err
	}
	return raw, nil
}

// validateParameters validates a raw argument payload against a JSON schema.
func validateParameters(params, schema map[string]any) error {
	for _, fieldName := range requiredFields(schema) {
		if _, exists := params[fieldName]; !exists {
			return &ValidationError{
				Field:   fieldName,
				Message: "required field is missing",
			}
		}
	}

	properties, _ := schema["properties"].(map[string]any)
	for fieldName, value := range params {
		propSchema, exists := properties[fieldName]
		if !exists {
			continue // Allow extra fields
		}

		propMap, ok := propSchema.(map[string]any)
		if !ok {
			continue
		}

		expectedType, _ := propMap["type"].(string)
		if !isValidType(value, expectedType) {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("expected type %s, got %T", expectedType, value),
			}
		}
	}

	return nil
}

// requiredFields normalizes the schema's required list, which may be []string
// (reflection-generated) or []any (hand-written / JSON-decoded).
func requiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		fields := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				fields = append(fields, s)
			}
		}
		return fields
	default:
		return nil
	}
}

// isValidType checks if a value is valid according to the expected JSON schema type.
func isValidType(value any, expectedType string) bool {
	if value == nil {
		return true // nil is valid for any type
	}

	switch expectedType {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64: // JSON unmarshaling often produces float64 for numbers
			return v == float64(int64(v)) // Check if it's actually an integer
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true // Unknown types are assumed valid
	}
}
