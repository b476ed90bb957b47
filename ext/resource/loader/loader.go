package loader

import (
	"errors"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/yaml"
)

type Loader interface {
	Load([]byte) (schema.GroupVersionKind, unstructured.Unstructured, error)
}

type loader struct{}

// New returns a loader decoding YAML or JSON documents into unstructured resources
func New() Loader {
	return loader{}
}

func (l loader) Load(document []byte) (schema.GroupVersionKind, unstructured.Unstructured, error) {
	var object map[string]interface{}
	if err := yaml.Unmarshal(document, &object); err != nil {
		return schema.GroupVersionKind{}, unstructured.Unstructured{}, fmt.Errorf("failed to parse document (%w)", err)
	}
	if object == nil {
		return schema.GroupVersionKind{}, unstructured.Unstructured{}, errors.New("failed to parse document (not an object)")
	}
	result := unstructured.Unstructured{Object: object}
	gvk := result.GroupVersionKind()
	if gvk.Kind == "" {
		return gvk, unstructured.Unstructured{}, errors.New("failed to validate resource (kind is required)")
	}
	if gvk.Version == "" {
		return gvk, unstructured.Unstructured{}, errors.New("failed to validate resource (apiVersion is required)")
	}
	return gvk, result, nil
}
