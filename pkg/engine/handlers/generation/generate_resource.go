package generation

import (
	"context"
	"errors"

	"github.com/go-logr/logr"
	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
	"github.com/kyverno/admission-engine/pkg/engine/generate"
	"github.com/kyverno/admission-engine/pkg/engine/handlers"
	"github.com/kyverno/admission-engine/pkg/engine/internal"
	"github.com/kyverno/admission-engine/pkg/engine/policycontext"
	stringutils "github.com/kyverno/admission-engine/pkg/utils/strings"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

type generateResourceHandler struct{}

func NewGenerateResourceHandler() (handlers.Handler, error) {
	return generateResourceHandler{}, nil
}

// Process renders the generate template against the trigger, the trigger itself is never modified
func (h generateResourceHandler) Process(
	_ context.Context,
	logger logr.Logger,
	policyContext *policycontext.PolicyContext,
	resource unstructured.Unstructured,
	rule kyvernov1.Rule,
) (unstructured.Unstructured, []engineapi.RuleResponse) {
	if rule.Generation == nil {
		return resource, handlers.WithError(rule, engineapi.Generation, "invalid generate rule", errors.New("generate declaration expected"))
	}
	jsonContext := policyContext.JSONContext()
	preconditionsPassed, msg, err := internal.CheckPreconditions(logger, jsonContext, rule.Preconditions)
	if err != nil {
		return resource, handlers.WithError(rule, engineapi.Generation, "failed to evaluate preconditions", err)
	}
	if !preconditionsPassed {
		return resource, handlers.WithSkip(rule, engineapi.Generation, stringutils.JoinNonEmpty([]string{"preconditions not met", msg}, "; "))
	}
	generated, err := generate.ProcessGeneration(logger, jsonContext, *rule.Generation, resource)
	if err != nil {
		if generate.IsMissingVariable(err) {
			logger.V(3).Info("generate template references a missing variable", "error", err.Error())
		} else {
			logger.V(2).Info("failed to generate resource", "error", err.Error())
		}
		return resource, handlers.WithError(rule, engineapi.Generation, "failed to generate resource", err)
	}
	logger.V(4).Info("generated resource", "kind", generated.GetKind(), "namespace", generated.GetNamespace(), "name", generated.GetName())
	return resource, handlers.WithResponses(
		engineapi.RulePass(rule.Name, engineapi.Generation, "generated "+generated.GetKind()+"/"+generated.GetName()).
			WithGeneratedResource(*generated, rule.Generation.Synchronize),
	)
}
