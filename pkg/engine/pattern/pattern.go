package pattern

import (
	"github.com/go-logr/logr"
)

// Validate validates a resource leaf value against a leaf pattern.
// Maps and slices in the pattern are handled by the caller, only `*` and `?*`
// accept a map or slice value.
func Validate(log logr.Logger, value, pattern interface{}) bool {
	switch typedPattern := pattern.(type) {
	case bool:
		typedValue, ok := value.(bool)
		if !ok {
			log.V(4).Info("expected type bool", "type", typeName(value), "value", value)
			return false
		}
		return typedValue == typedPattern
	case int:
		return validateNumber(log, value, float64(typedPattern))
	case int64:
		return validateNumber(log, value, float64(typedPattern))
	case float64:
		return validateNumber(log, value, typedPattern)
	case nil:
		return validateNil(value)
	case string:
		return compile(typedPattern).match(value)
	default:
		log.V(2).Info("pattern type not supported", "type", typeName(pattern))
		return false
	}
}

func validateNumber(log logr.Logger, value interface{}, pattern float64) bool {
	v, ok := toFloat(value)
	if !ok {
		log.V(4).Info("expected a number", "type", typeName(value), "value", value)
		return false
	}
	return v == pattern
}

// a null pattern accepts the zero value of any scalar
func validateNil(value interface{}) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	case bool:
		return !typed
	case int:
		return typed == 0
	case int64:
		return typed == 0
	case float64:
		return typed == 0
	default:
		return false
	}
}

func typeName(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case bool:
		return "bool"
	default:
		return "number"
	}
}
