package v1

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// FailureAction defines the policy validation failure action
// +kubebuilder:validation:Enum=audit;enforce;warn;Audit;Enforce;Warn
type FailureAction string

// Policy Reporting Modes
const (
	// Enforce blocks the request on failure
	Enforce FailureAction = "Enforce"
	// Audit indicates not to block the request on failure, but report failures as policy violations
	Audit FailureAction = "Audit"
	// Warn indicates not to block the request on failure, but return an admission warning
	Warn FailureAction = "Warn"
)

// Enforce returns true if the action blocks the resource
func (a FailureAction) Enforce() bool {
	return a == Enforce || a == "enforce"
}

// Audit returns true if the action only reports failures
func (a FailureAction) Audit() bool {
	return a == Audit || a == "audit"
}

// Warn returns true if the action turns failures into admission warnings
func (a FailureAction) Warn() bool {
	return a == Warn || a == "warn"
}

// IsValid returns true if the action is one of the known failure actions
func (a FailureAction) IsValid() bool {
	return a.Enforce() || a.Audit() || a.Warn()
}

// Normalize returns the canonical spelling of the action
func (a FailureAction) Normalize() FailureAction {
	switch {
	case a.Enforce():
		return Enforce
	case a.Warn():
		return Warn
	default:
		return Audit
	}
}

// FailureActionOverride overrides the failure action for a set of namespaces.
type FailureActionOverride struct {
	// Action is the failure action to apply in the selected namespaces.
	Action FailureAction `json:"action,omitempty" yaml:"action,omitempty"`

	// Namespaces is a list of namespace names, wildcards are supported.
	Namespaces []string `json:"namespaces,omitempty" yaml:"namespaces,omitempty"`
}

// Spec contains a list of Rule instances and other policy controls.
type Spec struct {
	// Rules is a list of Rule instances. A Policy contains multiple rules and
	// each rule can validate, mutate, or generate resources.
	Rules []Rule `json:"rules,omitempty" yaml:"rules,omitempty"`

	// ValidationFailureAction defines if a validation policy rule violation should block
	// the admission review request (Enforce), only report it (Audit) or return a warning (Warn).
	// Defaults to Audit.
	// +optional
	ValidationFailureAction FailureAction `json:"validationFailureAction,omitempty" yaml:"validationFailureAction,omitempty"`

	// ValidationFailureActionOverrides is a Cluster Policy attribute that specifies ValidationFailureAction
	// namespace-wise. It overrides ValidationFailureAction for the specified namespaces.
	// +optional
	ValidationFailureActionOverrides []FailureActionOverride `json:"validationFailureActionOverrides,omitempty" yaml:"validationFailureActionOverrides,omitempty"`
}

// HasMutate checks for mutate rule types
func (s *Spec) HasMutate() bool {
	for _, rule := range s.Rules {
		if rule.HasMutate() {
			return true
		}
	}
	return false
}

// HasValidate checks for validate rule types
func (s *Spec) HasValidate() bool {
	for _, rule := range s.Rules {
		if rule.HasValidate() {
			return true
		}
	}
	return false
}

// HasGenerate checks for generate rule types
func (s *Spec) HasGenerate() bool {
	for _, rule := range s.Rules {
		if rule.HasGenerate() {
			return true
		}
	}
	return false
}

// GetValidationFailureAction returns the value of the validationFailureAction
func (s *Spec) GetValidationFailureAction() FailureAction {
	if s.ValidationFailureAction == "" {
		return Audit
	}
	return s.ValidationFailureAction.Normalize()
}

// ValidateRuleNames checks if the rule names are unique across a policy
func (s *Spec) ValidateRuleNames(path *field.Path) (errs field.ErrorList) {
	names := sets.New[string]()
	for i, rule := range s.Rules {
		rulePath := path.Index(i)
		if names.Has(rule.Name) {
			errs = append(errs, field.Invalid(rulePath.Child("name"), rule, fmt.Sprintf(`Duplicate rule name: '%s'`, rule.Name)))
		}
		names.Insert(rule.Name)
	}
	return errs
}

// ValidateRules implements programmatic validation of Rules
func (s *Spec) ValidateRules(path *field.Path) (errs field.ErrorList) {
	errs = append(errs, s.ValidateRuleNames(path)...)
	for i, rule := range s.Rules {
		errs = append(errs, rule.Validate(path.Index(i))...)
	}
	return errs
}

// Validate implements programmatic validation
func (s *Spec) Validate(path *field.Path) (errs field.ErrorList) {
	if len(s.Rules) == 0 {
		errs = append(errs, field.Required(path.Child("rules"), "a policy must declare at least one rule"))
	}
	if s.ValidationFailureAction != "" && !s.ValidationFailureAction.IsValid() {
		errs = append(errs, field.NotSupported(path.Child("validationFailureAction"), s.ValidationFailureAction, []string{string(Enforce), string(Audit), string(Warn)}))
	}
	for i, override := range s.ValidationFailureActionOverrides {
		if !override.Action.IsValid() {
			errs = append(errs, field.NotSupported(path.Child("validationFailureActionOverrides").Index(i).Child("action"), override.Action, []string{string(Enforce), string(Audit), string(Warn)}))
		}
	}
	errs = append(errs, s.ValidateRules(path.Child("rules"))...)
	return errs
}
