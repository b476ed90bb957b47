package utils

import (
	"fmt"

	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
	"sigs.k8s.io/yaml"
)

// GetBlockedMessages returns the enforced failures of a verdict grouped by policy, empty when nothing blocks
func GetBlockedMessages(verdict engineapi.Verdict) string {
	failures := map[string]map[string]string{}
	for i := range verdict.Failures {
		failure := &verdict.Failures[i]
		if !failure.IsEnforcedFailure() {
			continue
		}
		ruleToReason, ok := failures[failure.Policy()]
		if !ok {
			ruleToReason = map[string]string{}
			failures[failure.Policy()] = ruleToReason
		}
		ruleToReason[failure.Name()] = failure.Message()
	}
	if len(failures) == 0 {
		return ""
	}
	r := verdict.Resource
	resourceName := fmt.Sprintf("%s/%s/%s", r.Kind, r.Namespace, r.Name)
	results, _ := yaml.Marshal(failures)
	return fmt.Sprintf("\n\nresource %s was blocked due to the following policies \n\n%s", resourceName, results)
}

// GetWarningMessages returns the warnings of a verdict, a mutation error is reported as a warning
func GetWarningMessages(verdict engineapi.Verdict) []string {
	warnings := append([]string{}, verdict.Warnings...)
	if verdict.MutationError != nil {
		warnings = append(warnings, fmt.Sprintf("mutation failed, the resource is not patched: %s", verdict.MutationError.String()))
	}
	if len(warnings) == 0 {
		return nil
	}
	return warnings
}
