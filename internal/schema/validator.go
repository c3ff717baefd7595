// Package schema implements structural type checking of request payloads
// against a declared field-type schema.
//
// A schema is a map of field name to type descriptor. A descriptor is
// either a primitive name ("string", "number", "boolean", "array",
// "object", "auto") or a nested object carrying a "properties" sub-schema.
// Fields typed "auto" are server-generated and skipped. The schema is a
// whitelist of required checks; extra fields in the data are not reported.
package schema

import (
	"fmt"
	"math"
)

// Result holds the outcome of a validation pass. All failures are
// collected, never raised, so callers can surface the full list.
type Result struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors,omitempty"`
}

// Validate type-checks data against the schema and returns every mismatch.
func Validate(data map[string]interface{}, sch map[string]interface{}) Result {
	errors := validateFields(data, sch, "")
	return Result{IsValid: len(errors) == 0, Errors: errors}
}

func validateFields(data map[string]interface{}, sch map[string]interface{}, prefix string) []string {
	var errors []string

	for field, descriptor := range sch {
		path := field
		if prefix != "" {
			path = prefix + "." + field
		}

		if descriptor == "auto" {
			continue
		}

		value, present := data[field]
		if !present || value == nil {
			errors = append(errors, fmt.Sprintf("Missing required field: %s", path))
			continue
		}

		switch d := descriptor.(type) {
		case string:
			if !checkPrimitive(value, d) {
				errors = append(errors, fmt.Sprintf("Field %s must be of type %s, got %s", path, d, typeName(value)))
			}
		case map[string]interface{}:
			// Nested descriptor: {"properties": {...}}
			props, ok := d["properties"].(map[string]interface{})
			if !ok {
				errors = append(errors, fmt.Sprintf("Field %s has an invalid nested schema", path))
				continue
			}
			nested, ok := value.(map[string]interface{})
			if !ok {
				errors = append(errors, fmt.Sprintf("Field %s must be of type object, got %s", path, typeName(value)))
				continue
			}
			errors = append(errors, validateFields(nested, props, path)...)
		default:
			errors = append(errors, fmt.Sprintf("Field %s has an unknown type descriptor", path))
		}
	}

	return errors
}

func checkPrimitive(value interface{}, expected string) bool {
	switch expected {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		switch n := value.(type) {
		case float64:
			return !math.IsNaN(n) && !math.IsInf(n, 0)
		case int, int64, float32:
			return true
		default:
			return false
		}
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	default:
		return false
	}
}

func typeName(value interface{}) string {
	switch value.(type) {
	case string:
		return "string"
	case float64, int, int64, float32:
		return "number"
	case bool:
		return "boolean"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", value)
	}
}
