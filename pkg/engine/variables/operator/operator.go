package operator

import (
	"fmt"
	"reflect"

	"github.com/go-logr/logr"
	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	"github.com/kyverno/admission-engine/pkg/engine/pattern"
	"github.com/kyverno/admission-engine/pkg/utils/wildcard"
)

// OperatorHandler provides interface to manage types
type OperatorHandler interface {
	Evaluate(key, value interface{}) bool
}

// CreateOperatorHandler returns the operator handler based on the operator used in condition
func CreateOperatorHandler(log logr.Logger, op kyvernov1.ConditionOperator) OperatorHandler {
	switch op {
	case kyvernov1.ConditionOperators["Equals"]:
		return EqualHandler{log: log}
	case kyvernov1.ConditionOperators["NotEquals"]:
		return NotHandler{handler: EqualHandler{log: log}}
	case kyvernov1.ConditionOperators["In"]:
		return InHandler{log: log}
	case kyvernov1.ConditionOperators["NotIn"]:
		return NotHandler{handler: InHandler{log: log}}
	case kyvernov1.ConditionOperators["GreaterThanOrEquals"],
		kyvernov1.ConditionOperators["GreaterThan"],
		kyvernov1.ConditionOperators["LessThanOrEquals"],
		kyvernov1.ConditionOperators["LessThan"]:
		return NumericOperatorHandler{log: log, condition: op}
	default:
		log.V(2).Info("unsupported condition operator", "operator", op)
		return nil
	}
}

// EqualHandler provides implementation to handle Equals Operator
type EqualHandler struct {
	log logr.Logger
}

// Evaluate evaluates expression with Equals Operator
func (eh EqualHandler) Evaluate(key, value interface{}) bool {
	switch typedKey := key.(type) {
	case map[string]interface{}, []interface{}:
		return reflect.DeepEqual(typedKey, value)
	case string:
		if typedValue, ok := value.(string); ok && wildcard.Match(typedValue, typedKey) {
			return true
		}
		return pattern.EqualScalars(typedKey, value)
	case nil:
		return value == nil
	case bool, int, int64, float64:
		if typedValue, ok := value.(bool); ok {
			b, isBool := typedKey.(bool)
			return isBool && b == typedValue
		}
		return pattern.EqualScalars(typedKey, value)
	default:
		eh.log.V(4).Info("unsupported type", "value", typedKey, "type", fmt.Sprintf("%T", typedKey))
		return false
	}
}

// InHandler checks the key is contained in the value set.
// A list key must be a subset of the value set.
type InHandler struct {
	log logr.Logger
}

// Evaluate evaluates expression with In Operator
func (ih InHandler) Evaluate(key, value interface{}) bool {
	set, ok := value.([]interface{})
	if !ok {
		if str, isString := value.(string); isString {
			set = []interface{}{str}
		} else {
			ih.log.V(4).Info("expected a list of values", "value", value, "type", fmt.Sprintf("%T", value))
			return false
		}
	}
	switch typedKey := key.(type) {
	case []interface{}:
		for _, k := range typedKey {
			if !contains(ih.log, set, k) {
				return false
			}
		}
		return true
	default:
		return contains(ih.log, set, typedKey)
	}
}

func contains(log logr.Logger, set []interface{}, key interface{}) bool {
	equal := EqualHandler{log: log}
	for _, v := range set {
		if equal.Evaluate(key, v) {
			return true
		}
	}
	return false
}

// NotHandler negates another handler
type NotHandler struct {
	handler OperatorHandler
}

// Evaluate evaluates the negation of the wrapped operator
func (nh NotHandler) Evaluate(key, value interface{}) bool {
	return !nh.handler.Evaluate(key, value)
}

// NumericOperatorHandler compares numbers, quantities and durations
type NumericOperatorHandler struct {
	log       logr.Logger
	condition kyvernov1.ConditionOperator
}

// Evaluate evaluates expression with a comparison Operator
func (nh NumericOperatorHandler) Evaluate(key, value interface{}) bool {
	cmp, ok := pattern.Compare(key, value)
	if !ok {
		nh.log.V(4).Info("values are not comparable", "key", key, "value", value)
		return false
	}
	switch nh.condition {
	case kyvernov1.ConditionOperators["GreaterThanOrEquals"]:
		return cmp >= 0
	case kyvernov1.ConditionOperators["GreaterThan"]:
		return cmp > 0
	case kyvernov1.ConditionOperators["LessThanOrEquals"]:
		return cmp <= 0
	case kyvernov1.ConditionOperators["LessThan"]:
		return cmp < 0
	}
	return false
}
