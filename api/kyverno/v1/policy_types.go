package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Policy declares validation, mutation, and generation behaviors for matching resources.
// A Policy only applies to resources in its own namespace.
type Policy struct {
	metav1.TypeMeta   `json:",inline,omitempty" yaml:",inline,omitempty"`
	metav1.ObjectMeta `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Spec defines policy behaviors and contains one or more rules.
	Spec Spec `json:"spec" yaml:"spec"`
}

// HasMutate checks for mutate rule types
func (p *Policy) HasMutate() bool {
	return p.Spec.HasMutate()
}

// HasValidate checks for validate rule types
func (p *Policy) HasValidate() bool {
	return p.Spec.HasValidate()
}

// HasGenerate checks for generate rule types
func (p *Policy) HasGenerate() bool {
	return p.Spec.HasGenerate()
}

// GetSpec returns the policy spec
func (p *Policy) GetSpec() *Spec {
	return &p.Spec
}

// IsNamespaced indicates if the policy is namespace scoped
func (p *Policy) IsNamespaced() bool {
	return true
}

// Validate implements programmatic validation.
// A namespaced policy must carry its namespace.
func (p *Policy) Validate() (errs field.ErrorList) {
	errs = append(errs, ValidatePolicyName(field.NewPath("metadata").Child("name"), p.Name)...)
	if p.Namespace == "" {
		errs = append(errs, field.Required(field.NewPath("metadata").Child("namespace"), "a Policy must declare a namespace"))
	}
	errs = append(errs, p.Spec.Validate(field.NewPath("spec"))...)
	return errs
}

func (p *Policy) GetKind() string {
	return "Policy"
}
