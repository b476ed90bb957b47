package mutation

import (
	"context"
	"errors"

	"github.com/go-logr/logr"
	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
	enginecontext "github.com/kyverno/admission-engine/pkg/engine/context"
	"github.com/kyverno/admission-engine/pkg/engine/handlers"
	"github.com/kyverno/admission-engine/pkg/engine/internal"
	"github.com/kyverno/admission-engine/pkg/engine/mutate"
	"github.com/kyverno/admission-engine/pkg/engine/policycontext"
	"github.com/kyverno/admission-engine/pkg/engine/variables"
	stringutils "github.com/kyverno/admission-engine/pkg/utils/strings"
	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

type mutateResourceHandler struct{}

func NewMutateResourceHandler() (handlers.Handler, error) {
	return mutateResourceHandler{}, nil
}

// Process applies the rule overlay or JSON patches to the resource.
// The returned resource is the input resource unless the rule passed.
func (h mutateResourceHandler) Process(
	_ context.Context,
	logger logr.Logger,
	policyContext *policycontext.PolicyContext,
	resource unstructured.Unstructured,
	rule kyvernov1.Rule,
) (unstructured.Unstructured, []engineapi.RuleResponse) {
	if rule.Mutation == nil {
		return resource, handlers.WithError(rule, engineapi.Mutation, "invalid mutate rule", errors.New("mutate declaration expected"))
	}
	logger.V(3).Info("processing mutate rule")
	jsonContext := policyContext.JSONContext()
	preconditionsPassed, msg, err := internal.CheckPreconditions(logger, jsonContext, rule.Preconditions)
	if err != nil {
		return resource, handlers.WithError(rule, engineapi.Mutation, "failed to evaluate preconditions", err)
	}
	if !preconditionsPassed {
		return resource, handlers.WithSkip(rule, engineapi.Mutation, stringutils.JoinNonEmpty([]string{"preconditions not met", msg}, "; "))
	}
	patched, err := mutateResource(logger, jsonContext, rule.Mutation, resource)
	if err != nil {
		if mutate.IsConditionError(err) {
			logger.V(3).Info("mutation conditions not met", "reason", err.Error())
			return resource, handlers.WithSkip(rule, engineapi.Mutation, err.Error())
		}
		logger.V(2).Info("failed to mutate resource", "error", err.Error())
		return resource, handlers.WithError(rule, engineapi.Mutation, "failed to mutate resource", err)
	}
	if equality.Semantic.DeepEqual(resource.Object, patched.Object) {
		return resource, handlers.WithSkip(rule, engineapi.Mutation, "no patches applied")
	}
	logger.V(4).Info("successfully processed rule")
	return patched, handlers.WithResponses(
		engineapi.RulePass(rule.Name, engineapi.Mutation, "mutated resource").WithPatchedResource(patched),
	)
}

func mutateResource(logger logr.Logger, jsonContext enginecontext.EvalInterface, mutation *kyvernov1.Mutation, resource unstructured.Unstructured) (unstructured.Unstructured, error) {
	if mutation.Overlay != nil {
		overlay, err := variables.SubstituteAll(logger, jsonContext, mutation.Overlay)
		if err != nil {
			return resource, err
		}
		patched, err := mutate.ProcessOverlay(logger, resource.Object, overlay, mutate.Options{AppendPaths: mutation.AppendPaths})
		if err != nil {
			return resource, err
		}
		return unstructured.Unstructured{Object: patched}, nil
	}
	patches, err := variables.SubstituteString(logger, jsonContext, mutation.PatchesJSON6902)
	if err != nil {
		return resource, err
	}
	patched, err := mutate.ProcessPatchesJSON6902(logger, resource.Object, patches)
	if err != nil {
		return resource, err
	}
	return unstructured.Unstructured{Object: patched}, nil
}
