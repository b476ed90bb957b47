package internal

import (
	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
	"github.com/kyverno/admission-engine/pkg/utils/wildcard"
)

// FailureAction resolves the failure action of a validate rule for a resource.
// The rule action wins over the namespace overrides of the policy, which win over the policy action.
func FailureAction(policy kyvernov1.PolicyInterface, rule kyvernov1.Rule, resource engineapi.Resource) kyvernov1.FailureAction {
	if rule.Validation != nil && rule.Validation.FailureAction != nil {
		return rule.Validation.FailureAction.Normalize()
	}
	spec := policy.GetSpec()
	namespace := resource.ScopeNamespace()
	if namespace != "" {
		for _, override := range spec.ValidationFailureActionOverrides {
			if wildcard.MatchAny(override.Namespaces, namespace) {
				return override.Action.Normalize()
			}
		}
	}
	return spec.GetValidationFailureAction().Normalize()
}
