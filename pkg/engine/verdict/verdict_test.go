package verdict

import (
	"errors"
	"testing"

	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gomodules.xyz/jsonpatch/v2"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func newPod(labels map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Pod",
		"metadata": map[string]interface{}{
			"name":      "nginx",
			"namespace": "default",
			"labels":    labels,
		},
	}
}

func fail(name string, action kyvernov1.FailureAction) engineapi.RuleResponse {
	return *engineapi.RuleFail(name, engineapi.Validation, "validation error: label env is required").
		WithPolicy("require-labels").
		WithPath("/metadata/labels/env").
		WithFailureAction(action)
}

func TestAggregate_Empty(t *testing.T) {
	resource := engineapi.NewResource(newPod(map[string]interface{}{"app": "x"}), kyvernov1.Create)
	verdict := Aggregate(resource, nil)
	assert.Equal(t, engineapi.Allow, verdict.Decision)
	assert.True(t, verdict.IsAllowed())
	assert.Empty(t, verdict.Outcomes)
	assert.Empty(t, verdict.Failures)
	assert.Empty(t, verdict.Warnings)
	assert.Empty(t, verdict.Patches)
	assert.Nil(t, verdict.MutationError)
	assert.Equal(t, resource.Object.Object, verdict.PatchedResource.Object)
	assert.Equal(t, "Pod/default/nginx", verdict.Resource.String())
}

func TestAggregate_Decision(t *testing.T) {
	resource := engineapi.NewResource(newPod(nil), kyvernov1.Create)
	tests := []struct {
		name     string
		outcomes []engineapi.RuleResponse
		decision engineapi.Decision
		failures int
		warnings []string
	}{
		{
			name:     "enforced failure denies",
			outcomes: []engineapi.RuleResponse{fail("check-env", kyvernov1.Enforce)},
			decision: engineapi.Deny,
			failures: 1,
		},
		{
			name:     "audit failure is reported",
			outcomes: []engineapi.RuleResponse{fail("check-env", kyvernov1.Audit)},
			decision: engineapi.Allow,
			failures: 1,
		},
		{
			name:     "warn failure is a warning",
			outcomes: []engineapi.RuleResponse{fail("check-env", kyvernov1.Warn)},
			decision: engineapi.Allow,
			failures: 1,
			warnings: []string{"policy require-labels.check-env: validation error: label env is required"},
		},
		{
			name: "errors never deny",
			outcomes: []engineapi.RuleResponse{
				*engineapi.RuleError("check-env", engineapi.Validation, "failed to substitute variables", errors.New("boom")).WithFailureAction(kyvernov1.Enforce),
			},
			decision: engineapi.Allow,
			failures: 1,
		},
		{
			name: "pass and skip are not failures",
			outcomes: []engineapi.RuleResponse{
				*engineapi.RulePass("a", engineapi.Validation, "ok").WithFailureAction(kyvernov1.Enforce),
				*engineapi.RuleSkip("b", engineapi.Validation, "preconditions not met").WithFailureAction(kyvernov1.Enforce),
			},
			decision: engineapi.Allow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Aggregate(resource, tt.outcomes)
			assert.Equal(t, tt.decision, verdict.Decision)
			assert.Len(t, verdict.Failures, tt.failures)
			assert.Equal(t, tt.warnings, verdict.Warnings)
			assert.Len(t, verdict.Outcomes, len(tt.outcomes))
		})
	}
}

func TestAggregate_MutationFold(t *testing.T) {
	resource := engineapi.NewResource(newPod(map[string]interface{}{"app": "x"}), kyvernov1.Create)
	first := unstructured.Unstructured{Object: newPod(map[string]interface{}{"app": "x", "team": "unassigned"})}
	second := unstructured.Unstructured{Object: newPod(map[string]interface{}{"app": "x", "team": "unassigned", "env": "dev"})}
	second.SetAnnotations(map[string]string{"owner": "platform"})
	outcomes := []engineapi.RuleResponse{
		*engineapi.RulePass("add-team", engineapi.Mutation, "mutated").WithPatchedResource(first),
		*engineapi.RuleSkip("skipped", engineapi.Mutation, "conditions not met"),
		*engineapi.RulePass("add-env", engineapi.Mutation, "mutated").WithPatchedResource(second),
	}
	verdict := Aggregate(resource, outcomes)
	assert.Nil(t, verdict.MutationError)
	assert.Equal(t, second.Object, verdict.PatchedResource.Object)
	require.Len(t, verdict.Patches, 3)
	var paths []string
	for _, patch := range verdict.Patches {
		assert.Equal(t, "add", patch.Operation)
		paths = append(paths, patch.Path)
	}
	assert.Equal(t, []string{"/metadata/annotations", "/metadata/labels/env", "/metadata/labels/team"}, paths)
	// the input resource is left untouched
	assert.Equal(t, map[string]string{"app": "x"}, resource.Labels())
}

func TestAggregate_MutationErrorAbortsChain(t *testing.T) {
	resource := engineapi.NewResource(newPod(map[string]interface{}{"app": "x"}), kyvernov1.Create)
	patched := unstructured.Unstructured{Object: newPod(map[string]interface{}{"app": "x", "team": "unassigned"})}
	outcomes := []engineapi.RuleResponse{
		*engineapi.RulePass("add-team", engineapi.Mutation, "mutated").WithPatchedResource(patched),
		*engineapi.RuleError("bad-overlay", engineapi.Mutation, "failed to apply overlay", errors.New("type mismatch")),
		fail("check-env", kyvernov1.Enforce),
	}
	verdict := Aggregate(resource, outcomes)
	require.NotNil(t, verdict.MutationError)
	assert.Equal(t, "bad-overlay", verdict.MutationError.Name())
	assert.Empty(t, verdict.Patches)
	assert.Equal(t, resource.Object.Object, verdict.PatchedResource.Object)
	// validation outcomes are still reported
	assert.Equal(t, engineapi.Deny, verdict.Decision)
	assert.Len(t, verdict.Failures, 2)
}

func TestAggregate_GeneratedResources(t *testing.T) {
	resource := engineapi.NewResource(map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Namespace",
		"metadata":   map[string]interface{}{"name": "team-a"},
	}, kyvernov1.Create)
	generated := unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata":   map[string]interface{}{"name": "defaults", "namespace": "team-a"},
	}}
	outcomes := []engineapi.RuleResponse{
		*engineapi.RulePass("gen", engineapi.Generation, "generated").WithGeneratedResource(generated, true),
		*engineapi.RuleError("gen-missing", engineapi.Generation, "failed to generate", errors.New("variable not found")),
	}
	verdict := Aggregate(resource, outcomes)
	require.Len(t, verdict.GeneratedResources, 1)
	assert.Equal(t, "defaults", verdict.GeneratedResources[0].GetName())
	assert.Equal(t, engineapi.Allow, verdict.Decision)
	assert.Len(t, verdict.Failures, 1)
}

func TestAggregate_Idempotent(t *testing.T) {
	resource := engineapi.NewResource(newPod(map[string]interface{}{"app": "x"}), kyvernov1.Create)
	patched := unstructured.Unstructured{Object: newPod(map[string]interface{}{"app": "y", "b": "1", "c": "2", "d": "3"})}
	outcomes := []engineapi.RuleResponse{
		*engineapi.RulePass("m", engineapi.Mutation, "mutated").WithPatchedResource(patched),
		fail("check-env", kyvernov1.Audit),
	}
	first := Aggregate(resource, outcomes)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Aggregate(resource, outcomes))
	}
}

func TestSortEntries_KeepsArrayOrder(t *testing.T) {
	original := map[string]interface{}{
		"spec": map[string]interface{}{
			"containers": []interface{}{
				map[string]interface{}{"name": "a"},
				map[string]interface{}{"name": "b"},
				map[string]interface{}{"name": "c"},
			},
		},
	}
	entries := []patchEntry{
		{segments: splitPointer("/spec/containers/2"), op: jsonpatch.NewOperation("remove", "/spec/containers/2", nil)},
		{segments: splitPointer("/spec/containers/1"), op: jsonpatch.NewOperation("remove", "/spec/containers/1", nil)},
		{segments: splitPointer("/spec/containers/0/name"), op: jsonpatch.NewOperation("replace", "/spec/containers/0/name", "z")},
		{segments: splitPointer("/metadata"), op: jsonpatch.NewOperation("add", "/metadata", map[string]interface{}{})},
	}
	sortEntries(entries, 0, original)
	var paths []string
	for _, entry := range entries {
		paths = append(paths, entry.op.Path)
	}
	assert.Equal(t, []string{"/metadata", "/spec/containers/2", "/spec/containers/1", "/spec/containers/0/name"}, paths)
}

func TestSplitPointer(t *testing.T) {
	assert.Equal(t, []string{"metadata", "annotations", "kyverno.io/policy", "a~b"}, splitPointer("/metadata/annotations/kyverno.io~1policy/a~0b"))
	assert.Nil(t, splitPointer(""))
}
