package v1

import (
	"encoding/json"
	"testing"

	"gotest.tools/assert"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

func Test_Validate_RuleType_EmptyRule(t *testing.T) {
	subject := Rule{
		Name: "validate-user-privilege",
	}
	path := field.NewPath("dummy")
	errs := subject.ValidateRuleType(path)
	assert.Equal(t, len(errs), 1)
	assert.Equal(t, errs[0].Field, "dummy")
	assert.Equal(t, errs[0].Type, field.ErrorTypeInvalid)
	assert.Equal(t, errs[0].Detail, "No operation defined in the rule 'validate-user-privilege'.(supported operations: mutate,validate,generate)")
}

func Test_Validate_RuleType_MultipleRule(t *testing.T) {
	rawPolicy := []byte(`
	{
		"spec": {
			"rules": [
				{
					"name": "validate-user-privilege",
					"match": {
						"any": [
							{ "resources": { "kinds": ["Deployment"] } }
						]
					},
					"mutate": {
						"overlay": {
							"metadata": { "labels": { "+(team)": "platform" } }
						}
					},
					"validate": {
						"message": "Runtime user is denied",
						"pattern": {
							"metadata": { "labels": { "team": "?*" } }
						}
					}
				}
			]
		}
	}`)
	var policy *ClusterPolicy
	err := json.Unmarshal(rawPolicy, &policy)
	assert.NilError(t, err)
	for _, rule := range policy.Spec.Rules {
		errs := rule.ValidateRuleType(field.NewPath("dummy"))
		assert.Equal(t, len(errs), 1)
		assert.Equal(t, errs[0].Detail, "Multiple operations defined in the rule 'validate-user-privilege', only one operation (mutate,validate,generate) is allowed per rule, found: mutate,validate")
	}
}

func Test_Validate_Rule_MatchExcludeConflict(t *testing.T) {
	filter := ResourceFilter{ResourceDescription: ResourceDescription{Kinds: []string{"Pod"}, Namespaces: []string{"kube-system"}}}
	subject := Rule{
		Name:             "conflict",
		MatchResources:   MatchResources{Any: ResourceFilters{filter}},
		ExcludeResources: &MatchResources{Any: ResourceFilters{filter}},
		Validation:       &Validation{Pattern: map[string]interface{}{"metadata": map[string]interface{}{"name": "?*"}}},
	}
	errs := subject.Validate(field.NewPath("spec").Child("rules").Index(0))
	assert.Equal(t, len(errs), 1)
	assert.Equal(t, errs[0].Field, "spec.rules[0].exclude[0]")
}

func Test_Validate_Rule_ExcludeDifferentFromMatch(t *testing.T) {
	subject := Rule{
		Name: "no-conflict",
		MatchResources: MatchResources{Any: ResourceFilters{
			{ResourceDescription: ResourceDescription{Kinds: []string{"Pod"}}},
		}},
		ExcludeResources: &MatchResources{Any: ResourceFilters{
			{ResourceDescription: ResourceDescription{Namespaces: []string{"kube-system"}}},
		}},
		Validation: &Validation{Pattern: map[string]interface{}{"metadata": map[string]interface{}{"name": "?*"}}},
	}
	errs := subject.Validate(field.NewPath("dummy"))
	assert.Equal(t, len(errs), 0)
}

func Test_Validate_Mutation(t *testing.T) {
	testcases := []struct {
		name     string
		mutation Mutation
		errors   int
	}{{
		name:     "neither",
		mutation: Mutation{},
		errors:   1,
	}, {
		name: "both",
		mutation: Mutation{
			Overlay:         map[string]interface{}{"metadata": map[string]interface{}{}},
			PatchesJSON6902: `[{"op":"add","path":"/metadata/labels/a","value":"b"}]`,
		},
		errors: 1,
	}, {
		name:     "json patch",
		mutation: Mutation{PatchesJSON6902: `[{"op":"add","path":"/metadata/labels/a","value":"b"}]`},
		errors:   0,
	}, {
		name: "yaml patch",
		mutation: Mutation{PatchesJSON6902: `
- op: add
  path: /metadata/labels/a
  value: b`},
		errors: 0,
	}, {
		name:     "broken patch",
		mutation: Mutation{PatchesJSON6902: `{"op":`},
		errors:   1,
	}}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			errs := tc.mutation.Validate(field.NewPath("mutate"))
			assert.Equal(t, len(errs), tc.errors, errs.ToAggregate())
		})
	}
}

func Test_Validate_Validation(t *testing.T) {
	invalidAction := FailureAction("Block")
	testcases := []struct {
		name       string
		validation Validation
		errors     int
	}{{
		name:       "nothing declared",
		validation: Validation{},
		errors:     1,
	}, {
		name: "pattern and anyPattern",
		validation: Validation{
			Pattern:    map[string]interface{}{"a": "b"},
			AnyPattern: []interface{}{map[string]interface{}{"a": "b"}},
		},
		errors: 1,
	}, {
		name: "deny without conditions",
		validation: Validation{
			Deny: &Deny{},
		},
		errors: 1,
	}, {
		name: "deny with conditions",
		validation: Validation{
			Deny: &Deny{Conditions: &AnyAllConditions{AnyConditions: []Condition{{RawKey: "{{ request.operation }}", Operator: "Equals", RawValue: "DELETE"}}}},
		},
		errors: 0,
	}, {
		name: "invalid failure action",
		validation: Validation{
			Pattern:       map[string]interface{}{"a": "b"},
			FailureAction: &invalidAction,
		},
		errors: 1,
	}}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			errs := tc.validation.Validate(field.NewPath("validate"))
			assert.Equal(t, len(errs), tc.errors, errs.ToAggregate())
		})
	}
}

func Test_Validate_Generation(t *testing.T) {
	subject := Generation{Kind: "ConfigMap"}
	errs := subject.Validate(field.NewPath("generate"))
	assert.Equal(t, len(errs), 2)
	assert.Equal(t, errs[0].Field, "generate.name")
	assert.Equal(t, errs[1].Field, "generate.data")
}

func Test_Condition_UnknownOperator(t *testing.T) {
	conditions := AnyAllConditions{AllConditions: []Condition{{RawKey: "a", Operator: "Matches", RawValue: "b"}}}
	errs := conditions.Validate(field.NewPath("preconditions"))
	assert.Equal(t, len(errs), 1)
	assert.Equal(t, errs[0].Field, "preconditions.all[0].operator")
}
