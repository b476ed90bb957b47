package policycontext

import (
	"fmt"

	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
	enginectx "github.com/kyverno/admission-engine/pkg/engine/context"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// PolicyContext contains the contexts for engine to process
type PolicyContext struct {
	// policy is the policy to be processed
	policy kyvernov1.PolicyInterface

	// resource is the admission input
	resource engineapi.Resource

	// jsonContext is the variable context
	jsonContext enginectx.Interface
}

func (c *PolicyContext) Policy() kyvernov1.PolicyInterface {
	return c.policy
}

func (c *PolicyContext) Resource() engineapi.Resource {
	return c.resource
}

// NewResource returns the body being evaluated, it follows the mutation chain
func (c *PolicyContext) NewResource() unstructured.Unstructured {
	return c.resource.Object
}

func (c *PolicyContext) Operation() kyvernov1.AdmissionOperation {
	return c.resource.GetOperation()
}

func (c *PolicyContext) NamespaceLabels() map[string]string {
	return c.resource.NamespaceLabels
}

func (c *PolicyContext) JSONContext() enginectx.EvalInterface {
	return c.jsonContext
}

// Mutators

// WithPolicy returns a copy of the context bound to a policy, the JSON context is shared
func (c *PolicyContext) WithPolicy(policy kyvernov1.PolicyInterface) *PolicyContext {
	copy := *c
	copy.policy = policy
	return &copy
}

// WithNewResource returns a copy of the context for a mutated body, with a fresh JSON context
func (c *PolicyContext) WithNewResource(object unstructured.Unstructured) (*PolicyContext, error) {
	resource := c.resource
	resource.Object = object
	jsonContext, err := newJSONContext(resource)
	if err != nil {
		return nil, err
	}
	copy := *c
	copy.resource = resource
	copy.jsonContext = jsonContext
	return &copy, nil
}

// Constructors

// NewPolicyContext builds the evaluation context of an admission input
func NewPolicyContext(resource engineapi.Resource) (*PolicyContext, error) {
	jsonContext, err := newJSONContext(resource)
	if err != nil {
		return nil, err
	}
	return &PolicyContext{
		resource:    resource,
		jsonContext: jsonContext,
	}, nil
}

func newJSONContext(resource engineapi.Resource) (enginectx.Interface, error) {
	jsonContext, err := enginectx.NewContextFromRequest(enginectx.Request{
		Object:    resource.Object.Object,
		Operation: string(resource.GetOperation()),
		Namespace: resource.Namespace(),
		Name:      resource.Name(),
		Kind:      resource.Kind(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add request to the JSON context: %w", err)
	}
	return jsonContext, nil
}
