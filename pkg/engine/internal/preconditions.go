package internal

import (
	"github.com/go-logr/logr"
	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	enginecontext "github.com/kyverno/admission-engine/pkg/engine/context"
	"github.com/kyverno/admission-engine/pkg/engine/variables"
)

// CheckPreconditions returns true when the rule preconditions hold, a rule without preconditions always passes
func CheckPreconditions(logger logr.Logger, jsonContext enginecontext.EvalInterface, conditions *kyvernov1.AnyAllConditions) (bool, string, error) {
	if conditions == nil {
		return true, "", nil
	}
	pass, msg, err := variables.EvaluateConditions(logger, jsonContext, *conditions)
	if err != nil {
		return false, "", err
	}
	return pass, msg, nil
}

// CheckDenyPreconditions returns true when the deny conditions hold and the resource must be rejected
func CheckDenyPreconditions(logger logr.Logger, jsonContext enginecontext.EvalInterface, conditions *kyvernov1.AnyAllConditions) (bool, string, error) {
	if conditions == nil {
		return false, "", nil
	}
	return variables.EvaluateConditions(logger, jsonContext, *conditions)
}
