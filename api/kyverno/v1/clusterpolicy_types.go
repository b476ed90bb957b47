package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// ClusterPolicy declares validation, mutation, and generation behaviors for matching resources
// across all namespaces.
type ClusterPolicy struct {
	metav1.TypeMeta   `json:",inline,omitempty" yaml:",inline,omitempty"`
	metav1.ObjectMeta `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Spec declares policy behaviors.
	Spec Spec `json:"spec" yaml:"spec"`
}

// HasMutate checks for mutate rule types
func (p *ClusterPolicy) HasMutate() bool {
	return p.Spec.HasMutate()
}

// HasValidate checks for validate rule types
func (p *ClusterPolicy) HasValidate() bool {
	return p.Spec.HasValidate()
}

// HasGenerate checks for generate rule types
func (p *ClusterPolicy) HasGenerate() bool {
	return p.Spec.HasGenerate()
}

// GetSpec returns the policy spec
func (p *ClusterPolicy) GetSpec() *Spec {
	return &p.Spec
}

// IsNamespaced indicates if the policy is namespace scoped
func (p *ClusterPolicy) IsNamespaced() bool {
	return false
}

// Validate implements programmatic validation
func (p *ClusterPolicy) Validate() (errs field.ErrorList) {
	errs = append(errs, ValidatePolicyName(field.NewPath("metadata").Child("name"), p.Name)...)
	if p.Namespace != "" {
		errs = append(errs, field.Forbidden(field.NewPath("metadata").Child("namespace"), "a ClusterPolicy is cluster scoped and can not declare a namespace"))
	}
	errs = append(errs, p.Spec.Validate(field.NewPath("spec"))...)
	return errs
}

func (p *ClusterPolicy) GetKind() string {
	return "ClusterPolicy"
}
