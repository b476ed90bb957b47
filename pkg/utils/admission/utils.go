package admission

import (
	"encoding/json"
	"fmt"

	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
	admissionv1 "k8s.io/api/admission/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// GetResourceName returns `namespace/kind/name`, or `kind/name` for cluster scoped requests
func GetResourceName(request *admissionv1.AdmissionRequest) string {
	resourceName := request.Kind.Kind + "/" + request.Name
	if request.Namespace != "" {
		resourceName = request.Namespace + "/" + resourceName
	}
	return resourceName
}

// GetResource builds the engine input of an admission request.
// DELETE requests carry the old object only.
func GetResource(request *admissionv1.AdmissionRequest) (engineapi.Resource, error) {
	raw := request.Object.Raw
	if request.Operation == admissionv1.Delete {
		raw = request.OldObject.Raw
	}
	if len(raw) == 0 {
		return engineapi.Resource{}, fmt.Errorf("admission request %s carries no object", GetResourceName(request))
	}
	var object map[string]interface{}
	if err := json.Unmarshal(raw, &object); err != nil {
		return engineapi.Resource{}, fmt.Errorf("failed to decode object: %w", err)
	}
	resource := engineapi.NewResource(object, kyvernov1.AdmissionOperation(request.Operation))
	if resource.Object.GetKind() == "" {
		resource.Object.SetGroupVersionKind(schema.GroupVersionKind(request.Kind))
	}
	if resource.Object.GetNamespace() == "" && request.Namespace != "" {
		resource.Object.SetNamespace(request.Namespace)
	}
	if resource.Object.GetName() == "" && request.Name != "" {
		resource.Object.SetName(request.Name)
	}
	return resource, nil
}
