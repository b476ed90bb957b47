package generate

import (
	"strings"
	"testing"

	"github.com/go-logr/logr"
	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	"github.com/kyverno/admission-engine/pkg/engine/context"
	"github.com/stretchr/testify/assert"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func trigger() unstructured.Unstructured {
	return unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Namespace",
		"metadata": map[string]interface{}{
			"name":   "team-a",
			"labels": map[string]interface{}{"owner": "alice"},
		},
	}}
}

func newContext(t *testing.T, resource unstructured.Unstructured) context.Interface {
	t.Helper()
	ctx, err := context.NewContextFromRequest(context.Request{
		Object:    resource.Object,
		Operation: "CREATE",
		Name:      resource.GetName(),
		Kind:      resource.GetKind(),
	})
	assert.NoError(t, err)
	return ctx
}

func TestProcessGeneration(t *testing.T) {
	generation := kyvernov1.Generation{
		Kind:      "ConfigMap",
		Name:      "{{request.object.metadata.name}}-defaults",
		Namespace: "{{request.object.metadata.name}}",
		Data: map[string]interface{}{
			"data": map[string]interface{}{
				"owner": "{{request.object.metadata.labels.owner}}",
			},
		},
	}
	generated, err := ProcessGeneration(logr.Discard(), newContext(t, trigger()), generation, trigger())
	assert.NoError(t, err)
	assert.Equal(t, "v1", generated.GetAPIVersion())
	assert.Equal(t, "ConfigMap", generated.GetKind())
	assert.Equal(t, "team-a-defaults", generated.GetName())
	assert.Equal(t, "team-a", generated.GetNamespace())
	owner, _, _ := unstructured.NestedString(generated.Object, "data", "owner")
	assert.Equal(t, "alice", owner)
	assert.Equal(t, map[string]string{
		LabelManagedBy:       ValueManagedBy,
		LabelGeneratedByKind: "Namespace",
		LabelGeneratedByName: "team-a",
	}, generated.GetLabels())
	// the template is left untouched
	assert.Equal(t, "{{request.object.metadata.name}}-defaults", generation.Name)
}

func TestProcessGeneration_MissingVariable(t *testing.T) {
	generation := kyvernov1.Generation{
		Kind: "ConfigMap",
		Name: "{{request.object.metadata.labels.missing}}",
		Data: map[string]interface{}{},
	}
	_, err := ProcessGeneration(logr.Discard(), newContext(t, trigger()), generation, trigger())
	var genErr *GenerationError
	assert.ErrorAs(t, err, &genErr)
	assert.True(t, IsMissingVariable(err))
}

func TestProcessGeneration_RequiredFields(t *testing.T) {
	_, err := ProcessGeneration(logr.Discard(), newContext(t, trigger()), kyvernov1.Generation{Name: "a", Data: map[string]interface{}{}}, trigger())
	assert.ErrorContains(t, err, "kind is required")
	_, err = ProcessGeneration(logr.Discard(), newContext(t, trigger()), kyvernov1.Generation{Kind: "ConfigMap", Data: map[string]interface{}{}}, trigger())
	assert.ErrorContains(t, err, "name is required")
	_, err = ProcessGeneration(logr.Discard(), newContext(t, trigger()), kyvernov1.Generation{Kind: "ConfigMap", Name: "a", Data: "text"}, trigger())
	assert.ErrorContains(t, err, "must be an object")
}

func TestManageLabels(t *testing.T) {
	generated := &unstructured.Unstructured{Object: map[string]interface{}{}}
	generated.SetLabels(map[string]string{LabelManagedBy: "helm"})
	long := trigger()
	long.SetName(strings.Repeat("a", 70))
	manageLabels(logr.Discard(), generated, long)
	labels := generated.GetLabels()
	assert.Equal(t, "helm", labels[LabelManagedBy])
	assert.Len(t, labels[LabelGeneratedByName], 63)
}
