package api

import (
	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Resource is the admission input evaluated against policies.
// Kind, namespace, name and labels are read from the body.
type Resource struct {
	// Object is the full structured body
	Object unstructured.Unstructured
	// Operation is the admission operation, CREATE when empty
	Operation kyvernov1.AdmissionOperation
	// NamespaceLabels are the labels of the resource namespace, used by namespace selectors
	NamespaceLabels map[string]string
}

// NewResource wraps an object received for the given operation
func NewResource(object map[string]interface{}, operation kyvernov1.AdmissionOperation) Resource {
	return Resource{
		Object:    unstructured.Unstructured{Object: object},
		Operation: operation,
	}
}

// WithNamespaceLabels returns a copy of the resource carrying namespace labels
func (r Resource) WithNamespaceLabels(labels map[string]string) Resource {
	r.NamespaceLabels = labels
	return r
}

func (r Resource) Kind() string {
	return r.Object.GetKind()
}

func (r Resource) Namespace() string {
	return r.Object.GetNamespace()
}

// ScopeNamespace returns the namespace the resource is scoped to, a Namespace is its own scope
func (r Resource) ScopeNamespace() string {
	if r.Kind() == "Namespace" {
		return r.Name()
	}
	return r.Namespace()
}

func (r Resource) Name() string {
	return r.Object.GetName()
}

func (r Resource) Labels() map[string]string {
	return r.Object.GetLabels()
}

func (r Resource) GroupVersionKind() schema.GroupVersionKind {
	return r.Object.GroupVersionKind()
}

// GetOperation returns the admission operation, CREATE when unset
func (r Resource) GetOperation() kyvernov1.AdmissionOperation {
	if r.Operation == "" {
		return kyvernov1.Create
	}
	return r.Operation
}

// Spec returns the resource identity
func (r Resource) Spec() ResourceSpec {
	return ResourceSpec{
		Kind:       r.Kind(),
		APIVersion: r.Object.GetAPIVersion(),
		Namespace:  r.Namespace(),
		Name:       r.Name(),
	}
}
