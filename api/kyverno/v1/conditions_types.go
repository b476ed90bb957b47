package v1

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// ConditionOperator is the operation performed on condition key and value.
// +kubebuilder:validation:Enum=Equals;NotEquals;In;NotIn;GreaterThanOrEquals;GreaterThan;LessThanOrEquals;LessThan
type ConditionOperator string

// ConditionOperators stores all the valid ConditionOperator types as key-value pairs.
// "Equals" evaluates if the key is equal to the value.
// "NotEquals" evaluates if the key is not equal to the value.
// "In" evaluates if the key is contained in the set of values.
// "NotIn" evaluates if the key is not contained in the set of values.
// "GreaterThan", "GreaterThanOrEquals", "LessThan" and "LessThanOrEquals" compare
// numbers, quantities and durations.
var ConditionOperators = map[string]ConditionOperator{
	"Equals":              ConditionOperator("Equals"),
	"NotEquals":           ConditionOperator("NotEquals"),
	"In":                  ConditionOperator("In"),
	"NotIn":               ConditionOperator("NotIn"),
	"GreaterThanOrEquals": ConditionOperator("GreaterThanOrEquals"),
	"GreaterThan":         ConditionOperator("GreaterThan"),
	"LessThanOrEquals":    ConditionOperator("LessThanOrEquals"),
	"LessThan":            ConditionOperator("LessThan"),
}

// Condition defines variable-based conditional criteria for rule execution.
type Condition struct {
	// Key is the context entry (using JMESPath) for conditional rule evaluation.
	RawKey interface{} `json:"key,omitempty" yaml:"key,omitempty"`

	// Operator is the conditional operation to perform.
	Operator ConditionOperator `json:"operator,omitempty" yaml:"operator,omitempty"`

	// Value is the conditional value, or set of values. The values can be fixed set
	// or can be variables declared using JMESPath.
	// +optional
	RawValue interface{} `json:"value,omitempty" yaml:"value,omitempty"`

	// Message is an optional display message
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// AnyAllConditions consists of conditions wrapped denoting a logical criteria to be fulfilled.
// AnyConditions get fulfilled when at least one of its sub-conditions passes.
// AllConditions get fulfilled only when all of its sub-conditions pass.
type AnyAllConditions struct {
	// AnyConditions enable variable-based conditional rule execution. This is useful for
	// finer control of when an rule is applied. A condition can reference object data
	// using JMESPath notation.
	// Here, at least one of the conditions need to pass
	// +optional
	AnyConditions []Condition `json:"any,omitempty" yaml:"any,omitempty"`

	// AllConditions enable variable-based conditional rule execution. This is useful for
	// finer control of when an rule is applied. A condition can reference object data
	// using JMESPath notation.
	// Here, all of the conditions need to pass
	// +optional
	AllConditions []Condition `json:"all,omitempty" yaml:"all,omitempty"`
}

// Validate implements programmatic validation
func (c *AnyAllConditions) Validate(path *field.Path) (errs field.ErrorList) {
	if len(c.AnyConditions) == 0 && len(c.AllConditions) == 0 {
		errs = append(errs, field.Required(path, "conditions must declare any or all"))
	}
	for i, cond := range c.AnyConditions {
		errs = append(errs, cond.Validate(path.Child("any").Index(i))...)
	}
	for i, cond := range c.AllConditions {
		errs = append(errs, cond.Validate(path.Child("all").Index(i))...)
	}
	return errs
}

// Validate implements programmatic validation
func (c Condition) Validate(path *field.Path) (errs field.ErrorList) {
	if c.RawKey == nil {
		errs = append(errs, field.Required(path.Child("key"), "condition key is required"))
	}
	if _, ok := ConditionOperators[string(c.Operator)]; !ok {
		errs = append(errs, field.Invalid(path.Child("operator"), c.Operator, fmt.Sprintf("unknown condition operator %q", c.Operator)))
	}
	return errs
}
