package api

import (
	"fmt"

	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// RuleResponse details for each rule application
type RuleResponse struct {
	// policy is the key of the policy the rule belongs to
	policy string
	// name is the rule name specified in policy
	name string
	// ruleType is the rule type (Mutation,Generation,Validation) for Kyverno Policy
	ruleType RuleType
	// message is the message response from the rule application
	message string
	// status rule status
	status RuleStatus
	// path is the first violating path of a failed validation
	path string
	// failureAction is the failure action configured for the rule
	failureAction kyvernov1.FailureAction
	// patchedResource is the resource produced by a mutation
	patchedResource *unstructured.Unstructured
	// generatedResource is the resource produced by a generation
	generatedResource *unstructured.Unstructured
	// synchronize is the sync policy of a generated resource
	synchronize bool
}

func NewRuleResponse(name string, ruleType RuleType, msg string, status RuleStatus) *RuleResponse {
	return &RuleResponse{
		name:     name,
		ruleType: ruleType,
		message:  msg,
		status:   status,
	}
}

func RuleError(name string, ruleType RuleType, msg string, err error) *RuleResponse {
	if err != nil {
		return NewRuleResponse(name, ruleType, fmt.Sprintf("%s: %s", msg, err.Error()), RuleStatusError)
	}
	return NewRuleResponse(name, ruleType, msg, RuleStatusError)
}

func RuleSkip(name string, ruleType RuleType, msg string) *RuleResponse {
	return NewRuleResponse(name, ruleType, msg, RuleStatusSkip)
}

func RulePass(name string, ruleType RuleType, msg string) *RuleResponse {
	return NewRuleResponse(name, ruleType, msg, RuleStatusPass)
}

func RuleFail(name string, ruleType RuleType, msg string) *RuleResponse {
	return NewRuleResponse(name, ruleType, msg, RuleStatusFail)
}

func (r RuleResponse) WithPolicy(policy string) *RuleResponse {
	r.policy = policy
	return &r
}

func (r RuleResponse) WithPath(path string) *RuleResponse {
	r.path = path
	return &r
}

func (r RuleResponse) WithFailureAction(action kyvernov1.FailureAction) *RuleResponse {
	r.failureAction = action
	return &r
}

func (r RuleResponse) WithPatchedResource(resource unstructured.Unstructured) *RuleResponse {
	r.patchedResource = &resource
	return &r
}

func (r RuleResponse) WithGeneratedResource(resource unstructured.Unstructured, synchronize bool) *RuleResponse {
	r.generatedResource = &resource
	r.synchronize = synchronize
	return &r
}

func (r *RuleResponse) Policy() string {
	return r.policy
}

func (r *RuleResponse) Name() string {
	return r.name
}

func (r *RuleResponse) RuleType() RuleType {
	return r.ruleType
}

func (r *RuleResponse) Message() string {
	return r.message
}

func (r *RuleResponse) Status() RuleStatus {
	return r.status
}

func (r *RuleResponse) Path() string {
	return r.path
}

func (r *RuleResponse) FailureAction() kyvernov1.FailureAction {
	return r.failureAction
}

// PatchedResource returns the mutated resource, nil unless a mutation passed
func (r *RuleResponse) PatchedResource() *unstructured.Unstructured {
	return r.patchedResource
}

// GeneratedResource returns the generated resource, nil unless a generation passed
func (r *RuleResponse) GeneratedResource() *unstructured.Unstructured {
	return r.generatedResource
}

func (r *RuleResponse) Synchronize() bool {
	return r.synchronize
}

// HasStatus checks if rule status is in a given list
func (r *RuleResponse) HasStatus(status ...RuleStatus) bool {
	for _, s := range status {
		if r.status == s {
			return true
		}
	}
	return false
}

// IsEnforcedFailure returns true for a failure that blocks the resource
func (r *RuleResponse) IsEnforcedFailure() bool {
	return r.status == RuleStatusFail && r.failureAction.Enforce()
}

// String implements Stringer interface
func (r *RuleResponse) String() string {
	return fmt.Sprintf("rule %s (%s): %v", r.name, r.ruleType, r.message)
}
