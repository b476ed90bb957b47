package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// GroupVersion is the group version used by policy documents.
var GroupVersion = schema.GroupVersion{Group: "kyverno.io", Version: "v1"}

// PolicyInterface abstracts the concrete policy type (Policy vs ClusterPolicy).
// Loaded policies are shared between evaluations and must be treated as read only.
type PolicyInterface interface {
	metav1.Object
	GetSpec() *Spec
	GetKind() string
	IsNamespaced() bool
	HasMutate() bool
	HasValidate() bool
	HasGenerate() bool
	Validate() field.ErrorList
}

var (
	_ PolicyInterface = &ClusterPolicy{}
	_ PolicyInterface = &Policy{}
)
