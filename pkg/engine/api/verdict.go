package api

import (
	"gomodules.xyz/jsonpatch/v2"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Decision is the admission decision
type Decision string

const (
	Allow Decision = "Allow"
	Deny  Decision = "Deny"
)

// Verdict is the aggregate of all rule responses for one resource
type Verdict struct {
	// Resource identifies the evaluated resource
	Resource ResourceSpec
	// Decision is Deny iff at least one failure is enforced
	Decision Decision
	// Outcomes contains every rule response, policies in load order and rules in declaration order
	Outcomes []RuleResponse
	// Failures contains the failed and errored rule responses
	Failures []RuleResponse
	// Warnings contains the messages of failures in Warn mode
	Warnings []string
	// Patches is the RFC 6902 diff between the original and the patched resource
	Patches []jsonpatch.Operation
	// PatchedResource is the resource with every passed mutation applied
	PatchedResource unstructured.Unstructured
	// GeneratedResources contains the resources generated by passed generate rules
	GeneratedResources []unstructured.Unstructured
	// MutationError is set when a mutation failed and the mutation chain was aborted
	MutationError *RuleResponse
}

// IsAllowed returns true if the resource is admitted
func (v Verdict) IsAllowed() bool {
	return v.Decision != Deny
}

// Messages returns the failure messages, in outcome order
func (v Verdict) Messages() []string {
	var messages []string
	for i := range v.Failures {
		messages = append(messages, v.Failures[i].Policy()+"/"+v.Failures[i].String())
	}
	return messages
}
