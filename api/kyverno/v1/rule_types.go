package v1

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Rule defines a validation, mutation, or generation control for matching resources.
// Each rule contains a match declaration to select resources, an optional exclude
// declaration to specify which resources to exclude, and exactly one action.
type Rule struct {
	// Name is a label to identify the rule, it must be unique within the policy.
	// +kubebuilder:validation:MaxLength=63
	Name string `json:"name" yaml:"name"`

	// MatchResources defines when this policy rule should be applied. The match
	// criteria can include resource information (e.g. kind, name, namespace, labels)
	// and admission review request information like the request operation.
	MatchResources MatchResources `json:"match" yaml:"match"`

	// ExcludeResources defines when this policy rule should not be applied. The exclude
	// criteria can include resource information (e.g. kind, name, namespace, labels)
	// and admission review request information like the request operation.
	// +optional
	ExcludeResources *MatchResources `json:"exclude,omitempty" yaml:"exclude,omitempty"`

	// Preconditions are used to determine if a policy rule should be applied by evaluating a
	// set of conditions. The declaration can contain nested `any` or `all` statements.
	// +optional
	Preconditions *AnyAllConditions `json:"preconditions,omitempty" yaml:"preconditions,omitempty"`

	// Mutation is used to modify matching resources.
	// +optional
	Mutation *Mutation `json:"mutate,omitempty" yaml:"mutate,omitempty"`

	// Validation is used to validate matching resources.
	// +optional
	Validation *Validation `json:"validate,omitempty" yaml:"validate,omitempty"`

	// Generation is used to create new resources.
	// +optional
	Generation *Generation `json:"generate,omitempty" yaml:"generate,omitempty"`
}

// HasMutate checks for mutate rule
func (r *Rule) HasMutate() bool {
	return r.Mutation != nil
}

// HasValidate checks for validate rule
func (r *Rule) HasValidate() bool {
	return r.Validation != nil
}

// HasGenerate checks for generate rule
func (r *Rule) HasGenerate() bool {
	return r.Generation != nil
}

// ValidateRuleType checks only one type of rule is defined per rule
func (r *Rule) ValidateRuleType(path *field.Path) (errs field.ErrorList) {
	var defined []string
	if r.HasMutate() {
		defined = append(defined, "mutate")
	}
	if r.HasValidate() {
		defined = append(defined, "validate")
	}
	if r.HasGenerate() {
		defined = append(defined, "generate")
	}
	switch len(defined) {
	case 0:
		msg := fmt.Sprintf("No operation defined in the rule '%s'.(supported operations: mutate,validate,generate)", r.Name)
		errs = append(errs, field.Invalid(path, r.Name, msg))
	case 1:
	default:
		msg := fmt.Sprintf("Multiple operations defined in the rule '%s', only one operation (mutate,validate,generate) is allowed per rule, found: %s", r.Name, strings.Join(defined, ","))
		errs = append(errs, field.Invalid(path, r.Name, msg))
	}
	return errs
}

// ValidateMatchExcludeConflict checks that no exclude filter is identical to a match filter,
// such a rule could never apply to any resource.
func (r *Rule) ValidateMatchExcludeConflict(path *field.Path) (errs field.ErrorList) {
	if r.ExcludeResources == nil {
		return nil
	}
	for _, match := range r.MatchResources.Filters() {
		for i, exclude := range r.ExcludeResources.Filters() {
			if equality.Semantic.DeepEqual(match, exclude) {
				errs = append(errs, field.Invalid(path.Child("exclude").Index(i), r.Name, "exclude filter is identical to a match filter, the rule would never apply"))
			}
		}
	}
	return errs
}

// Validate implements programmatic validation
func (r *Rule) Validate(path *field.Path) (errs field.ErrorList) {
	if r.Name == "" {
		errs = append(errs, field.Required(path.Child("name"), "rule name is required"))
	} else if len(r.Name) > 63 {
		errs = append(errs, field.TooLong(path.Child("name"), r.Name, 63))
	}
	errs = append(errs, r.ValidateRuleType(path)...)
	errs = append(errs, r.MatchResources.Validate(path.Child("match"))...)
	if r.ExcludeResources != nil {
		errs = append(errs, r.ExcludeResources.ValidateExclude(path.Child("exclude"))...)
	}
	errs = append(errs, r.ValidateMatchExcludeConflict(path)...)
	if r.Preconditions != nil {
		errs = append(errs, r.Preconditions.Validate(path.Child("preconditions"))...)
	}
	if r.Mutation != nil {
		errs = append(errs, r.Mutation.Validate(path.Child("mutate"))...)
	}
	if r.Validation != nil {
		errs = append(errs, r.Validation.Validate(path.Child("validate"))...)
	}
	if r.Generation != nil {
		errs = append(errs, r.Generation.Validate(path.Child("generate"))...)
	}
	return errs
}
