package variables

import (
	"fmt"

	"github.com/go-logr/logr"
	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	"github.com/kyverno/admission-engine/pkg/engine/context"
	"github.com/kyverno/admission-engine/pkg/engine/variables/operator"
)

// Evaluate evaluates the condition
func Evaluate(log logr.Logger, condition kyvernov1.Condition) (bool, error) {
	handle := operator.CreateOperatorHandler(log, condition.Operator)
	if handle == nil {
		return false, fmt.Errorf("failed to create handler for condition operator %s", condition.Operator)
	}
	return handle.Evaluate(condition.RawKey, condition.RawValue), nil
}

// EvaluateConditions evaluates all the conditions present in a slice, in a backwards compatible way
// any conditions pass if at least one of them is true, all conditions pass if every one is true.
// The returned message belongs to the first condition that made the evaluation fail.
func EvaluateConditions(log logr.Logger, ctx context.EvalInterface, conditions kyvernov1.AnyAllConditions) (bool, string, error) {
	substituted, err := SubstituteAllInConditions(log, ctx, conditions)
	if err != nil {
		return false, "", err
	}
	anyPassed, msg, err := evaluateAnyConditions(log, substituted.AnyConditions)
	if err != nil || !anyPassed {
		return false, msg, err
	}
	return evaluateAllConditions(log, substituted.AllConditions)
}

func evaluateAnyConditions(log logr.Logger, conditions []kyvernov1.Condition) (bool, string, error) {
	if len(conditions) == 0 {
		return true, "", nil
	}
	var messages []string
	for _, condition := range conditions {
		passed, err := Evaluate(log, condition)
		if err != nil {
			return false, "", err
		}
		if passed {
			return true, "", nil
		}
		if condition.Message != "" {
			messages = append(messages, condition.Message)
		}
	}
	if len(messages) > 0 {
		return false, messages[0], nil
	}
	return false, "no condition in any passed", nil
}

func evaluateAllConditions(log logr.Logger, conditions []kyvernov1.Condition) (bool, string, error) {
	for _, condition := range conditions {
		passed, err := Evaluate(log, condition)
		if err != nil {
			return false, "", err
		}
		if !passed {
			msg := condition.Message
			if msg == "" {
				msg = fmt.Sprintf("condition %v %s %v failed", condition.RawKey, condition.Operator, condition.RawValue)
			}
			return false, msg, nil
		}
	}
	return true, "", nil
}
