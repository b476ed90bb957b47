package pattern

import (
	"strconv"
	"time"

	"k8s.io/apimachinery/pkg/api/resource"
)

func scalarString(value interface{}) (string, bool) {
	switch typed := value.(type) {
	case string:
		return typed, true
	case bool:
		return strconv.FormatBool(typed), true
	case int:
		return strconv.Itoa(typed), true
	case int64:
		return strconv.FormatInt(typed, 10), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	default:
		return "", false
	}
}

func isNonEmpty(value interface{}) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case string:
		return typed != ""
	case map[string]interface{}:
		return len(typed) > 0
	case []interface{}:
		return len(typed) > 0
	default:
		return true
	}
}

func toFloat(value interface{}) (float64, bool) {
	switch typed := value.(type) {
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case float64:
		return typed, true
	case string:
		f, err := strconv.ParseFloat(typed, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func equalsString(value interface{}, operand string) bool {
	str, ok := scalarString(value)
	if !ok {
		return false
	}
	if str == operand {
		return true
	}
	if _, isString := value.(string); !isString {
		if v, ok := toFloat(value); ok {
			if o, err := strconv.ParseFloat(operand, 64); err == nil {
				return v == o
			}
		}
		return false
	}
	// 1Gi == 1024Mi
	if cmp, ok := compareQuantities(str, operand); ok {
		return cmp == 0
	}
	return false
}

// compareWith compares a resource value to a pattern operand, using numbers,
// quantities or durations, in that order.
func compareWith(value interface{}, operand string) (int, bool) {
	if v, ok := toFloat(value); ok {
		if o, err := strconv.ParseFloat(operand, 64); err == nil {
			return compareFloats(v, o), true
		}
	}
	str, ok := scalarString(value)
	if !ok {
		return 0, false
	}
	if cmp, ok := compareQuantities(str, operand); ok {
		return cmp, true
	}
	if cmp, ok := compareDurations(str, operand); ok {
		return cmp, true
	}
	return 0, false
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareQuantities(value, operand string) (int, bool) {
	v, err := resource.ParseQuantity(value)
	if err != nil {
		return 0, false
	}
	o, err := resource.ParseQuantity(operand)
	if err != nil {
		return 0, false
	}
	return v.Cmp(o), true
}

func compareDurations(value, operand string) (int, bool) {
	v, err := time.ParseDuration(value)
	if err != nil {
		return 0, false
	}
	o, err := time.ParseDuration(operand)
	if err != nil {
		return 0, false
	}
	return compareFloats(float64(v), float64(o)), true
}
