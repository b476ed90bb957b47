package metrics

import (
	"fmt"

	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
)

func ParsePolicyValidationMode(validationFailureAction kyvernov1.FailureAction) PolicyValidationMode {
	switch {
	case validationFailureAction.Enforce():
		return Enforce
	case validationFailureAction.Warn():
		return Warn
	default:
		return Audit
	}
}

func ParseResourceRequestOperation(requestOperationStr string) (ResourceRequestOperation, error) {
	switch requestOperationStr {
	case "CREATE", "":
		return ResourceCreated, nil
	case "UPDATE":
		return ResourceUpdated, nil
	case "DELETE":
		return ResourceDeleted, nil
	case "CONNECT":
		return ResourceConnected, nil
	default:
		return "", fmt.Errorf("unknown request operation made by resource: %s. Allowed requests: 'CREATE', 'UPDATE', 'DELETE', 'CONNECT'", requestOperationStr)
	}
}

func ParseRuleTypeFromEngineRuleResponse(rule engineapi.RuleResponse) RuleType {
	switch rule.RuleType() {
	case engineapi.Validation:
		return Validate
	case engineapi.Mutation:
		return Mutate
	case engineapi.Generation:
		return Generate
	default:
		return EmptyRuleType
	}
}

func ParseRuleResult(status engineapi.RuleStatus) RuleResult {
	switch status {
	case engineapi.RuleStatusPass:
		return Pass
	case engineapi.RuleStatusSkip:
		return Skip
	case engineapi.RuleStatusError:
		return Error
	default:
		return Fail
	}
}

func GetPolicyInfos(policy kyvernov1.PolicyInterface) (string, string, PolicyType, PolicyValidationMode) {
	name := policy.GetName()
	namespace := "-"
	policyType := Cluster
	if policy.IsNamespaced() {
		namespace = policy.GetNamespace()
		policyType = Namespaced
	}
	validationMode := ParsePolicyValidationMode(policy.GetSpec().GetValidationFailureAction())
	return name, namespace, policyType, validationMode
}
