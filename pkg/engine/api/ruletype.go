package api

import kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"

// RuleType represents the type of a rule
type RuleType string

const (
	// Mutation type for mutation rule
	Mutation RuleType = "Mutation"
	// Validation type for validation rule
	Validation RuleType = "Validation"
	// Generation type for generation rule
	Generation RuleType = "Generation"
)

// RuleTypeOf returns the type of the rule action
func RuleTypeOf(rule kyvernov1.Rule) RuleType {
	switch {
	case rule.HasMutate():
		return Mutation
	case rule.HasGenerate():
		return Generation
	default:
		return Validation
	}
}
