package verdict

import (
	"fmt"

	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
)

// Aggregate folds the rule outcomes of one resource into a verdict.
// Outcomes are expected in evaluation order: policies in load order, rules in declaration order.
func Aggregate(original engineapi.Resource, outcomes []engineapi.RuleResponse) engineapi.Verdict {
	verdict := engineapi.Verdict{
		Resource:        original.Spec(),
		Decision:        engineapi.Allow,
		Outcomes:        outcomes,
		PatchedResource: *original.Object.DeepCopy(),
	}
	patched := &original.Object
	mutated := false
	for i := range outcomes {
		outcome := &outcomes[i]
		if outcome.HasStatus(engineapi.RuleStatusFail, engineapi.RuleStatusError) {
			verdict.Failures = append(verdict.Failures, *outcome)
		}
		if outcome.IsEnforcedFailure() {
			verdict.Decision = engineapi.Deny
		}
		if outcome.HasStatus(engineapi.RuleStatusFail) && outcome.FailureAction().Warn() {
			verdict.Warnings = append(verdict.Warnings, warning(outcome))
		}
		switch outcome.RuleType() {
		case engineapi.Mutation:
			if verdict.MutationError != nil {
				continue
			}
			if outcome.HasStatus(engineapi.RuleStatusError) {
				verdict.MutationError = outcome
				continue
			}
			if outcome.HasStatus(engineapi.RuleStatusPass) && outcome.PatchedResource() != nil {
				patched = outcome.PatchedResource()
				mutated = true
			}
		case engineapi.Generation:
			if outcome.HasStatus(engineapi.RuleStatusPass) && outcome.GeneratedResource() != nil {
				verdict.GeneratedResources = append(verdict.GeneratedResources, *outcome.GeneratedResource())
			}
		}
	}
	// an aborted chain leaves the resource untouched
	if verdict.MutationError != nil || !mutated {
		return verdict
	}
	patches, err := createPatches(original.Object, *patched)
	if err != nil {
		verdict.MutationError = engineapi.RuleError("", engineapi.Mutation, "failed to compute patches", err)
		return verdict
	}
	verdict.Patches = patches
	verdict.PatchedResource = *patched.DeepCopy()
	return verdict
}

func warning(outcome *engineapi.RuleResponse) string {
	if outcome.Policy() == "" {
		return fmt.Sprintf("%s: %s", outcome.Name(), outcome.Message())
	}
	return fmt.Sprintf("policy %s.%s: %s", outcome.Policy(), outcome.Name(), outcome.Message())
}
