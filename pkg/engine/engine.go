package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/kyverno/admission-engine/pkg/config"
	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
	"github.com/kyverno/admission-engine/pkg/engine/handlers"
	"github.com/kyverno/admission-engine/pkg/engine/handlers/generation"
	"github.com/kyverno/admission-engine/pkg/engine/handlers/mutation"
	"github.com/kyverno/admission-engine/pkg/engine/handlers/validation"
	"github.com/kyverno/admission-engine/pkg/engine/internal"
	"github.com/kyverno/admission-engine/pkg/engine/match"
	"github.com/kyverno/admission-engine/pkg/engine/policycontext"
	"github.com/kyverno/admission-engine/pkg/engine/verdict"
	"github.com/kyverno/admission-engine/pkg/logging"
	"github.com/kyverno/admission-engine/pkg/metrics"
	"github.com/kyverno/admission-engine/pkg/metrics/policyresults"
	"github.com/kyverno/admission-engine/pkg/tracing"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Engine evaluates admission inputs against a policy set
type Engine struct {
	configuration           config.Configuration
	matcher                 *match.Matcher
	metrics                 metrics.MetricsConfigManager
	validateResourceHandler handlers.Handler
	mutateResourceHandler   handlers.Handler
	generateResourceHandler handlers.Handler
}

// NewEngine returns an engine, the metrics manager is optional
func NewEngine(
	configuration config.Configuration,
	metricsManager metrics.MetricsConfigManager,
) (*Engine, error) {
	logger := logging.WithName("engine")
	matcher, err := match.NewMatcher(logger.WithName("match"))
	if err != nil {
		return nil, err
	}
	validateResourceHandler, err := validation.NewValidateResourceHandler()
	if err != nil {
		return nil, err
	}
	mutateResourceHandler, err := mutation.NewMutateResourceHandler()
	if err != nil {
		return nil, err
	}
	generateResourceHandler, err := generation.NewGenerateResourceHandler()
	if err != nil {
		return nil, err
	}
	return &Engine{
		configuration:           configuration,
		matcher:                 matcher,
		metrics:                 metricsManager,
		validateResourceHandler: validateResourceHandler,
		mutateResourceHandler:   mutateResourceHandler,
		generateResourceHandler: generateResourceHandler,
	}, nil
}

// Evaluate runs every applicable rule of the policy set against the resource and aggregates the outcomes.
// Mutate rules are folded in order on the calling goroutine, validate and generate rules
// see the mutated resource and run in parallel.
// Outcomes are ordered by policy load order then rule declaration order.
func (e *Engine) Evaluate(
	ctx context.Context,
	resource engineapi.Resource,
	policies match.PolicySet,
) engineapi.Verdict {
	return tracing.Span1(
		ctx,
		"pkg/engine",
		fmt.Sprintf("EVALUATE %s", resource.Kind()),
		func(ctx context.Context, span trace.Span) engineapi.Verdict {
			span.SetAttributes(
				tracing.ResourceKindKey.String(resource.Kind()),
				tracing.ResourceNamespaceKey.String(resource.Namespace()),
				tracing.ResourceNameKey.String(resource.Name()),
				tracing.RequestOperationKey.String(string(resource.GetOperation())),
			)
			logger := internal.LoggerWithResource(logging.WithName("engine"), "resource", resource)
			result := e.evaluate(ctx, logger, resource, policies)
			span.SetAttributes(tracing.DecisionKey.String(string(result.Decision)))
			if operation, err := metrics.ParseResourceRequestOperation(string(resource.GetOperation())); err != nil {
				logger.V(2).Info("failed to record policy results", "error", err.Error())
			} else {
				policyresults.ProcessVerdict(ctx, e.metrics, result, operation)
			}
			return result
		},
	)
}

func (e *Engine) evaluate(
	ctx context.Context,
	logger logr.Logger,
	resource engineapi.Resource,
	policies match.PolicySet,
) engineapi.Verdict {
	if e.configuration != nil && e.configuration.ToFilter(resource.GroupVersionKind(), resource.Namespace(), resource.Name()) {
		logger.V(4).Info("resource is filtered by configuration")
		return verdict.Aggregate(resource, nil)
	}
	refs, err := e.matcher.ApplicableRules(resource, policies)
	if err != nil {
		// match errors only exclude the offending rules
		logger.V(3).Info("some rules could not be matched", "error", err.Error())
	}
	if len(refs) == 0 {
		return verdict.Aggregate(resource, nil)
	}
	slots := make([][]engineapi.RuleResponse, len(refs))
	policyContext, err := policycontext.NewPolicyContext(resource)
	if err != nil {
		logger.Error(err, "failed to build the policy context")
		for i, ref := range refs {
			slots[i] = []engineapi.RuleResponse{*e.decorate(ref, resource, engineapi.RuleError(ref.Rule.Name, engineapi.RuleTypeOf(ref.Rule), "failed to build the policy context", err))}
		}
		return verdict.Aggregate(resource, flatten(slots))
	}
	original := policyContext
	// mutations
	current := resource.Object
	aborted := false
	for i, ref := range refs {
		if engineapi.RuleTypeOf(ref.Rule) != engineapi.Mutation {
			continue
		}
		if aborted {
			slots[i] = []engineapi.RuleResponse{*e.decorate(ref, resource, engineapi.RuleSkip(ref.Rule.Name, engineapi.Mutation, "mutation chain aborted"))}
			continue
		}
		patched, responses := e.invokeRuleHandler(ctx, logger, e.mutateResourceHandler, policyContext, resource, current, ref)
		slots[i] = responses
		if hasError(responses) {
			logger.V(2).Info("mutation chain aborted", "policy", ref.PolicyKey(), "rule", ref.Rule.Name)
			aborted = true
			continue
		}
		if hasPatched(responses) {
			updated, err := policyContext.WithNewResource(patched)
			if err != nil {
				slots[i] = []engineapi.RuleResponse{*e.decorate(ref, resource, engineapi.RuleError(ref.Rule.Name, engineapi.Mutation, "failed to update the JSON context", err))}
				aborted = true
				continue
			}
			policyContext = updated
			current = patched
		}
	}
	if aborted {
		policyContext = original
		current = resource.Object
	}
	// validations and generations
	limit := 1
	if e.configuration != nil && e.configuration.GetConcurrency() > 0 {
		limit = e.configuration.GetConcurrency()
	}
	group := &errgroup.Group{}
	group.SetLimit(limit)
	for i, ref := range refs {
		var handler handlers.Handler
		switch engineapi.RuleTypeOf(ref.Rule) {
		case engineapi.Validation:
			handler = e.validateResourceHandler
		case engineapi.Generation:
			handler = e.generateResourceHandler
		default:
			continue
		}
		i, ref := i, ref
		group.Go(func() error {
			_, slots[i] = e.invokeRuleHandler(ctx, logger, handler, policyContext, resource, current, ref)
			return nil
		})
	}
	_ = group.Wait()
	return verdict.Aggregate(resource, flatten(slots))
}

func (e *Engine) invokeRuleHandler(
	ctx context.Context,
	logger logr.Logger,
	handler handlers.Handler,
	policyContext *policycontext.PolicyContext,
	original engineapi.Resource,
	resource unstructured.Unstructured,
	ref match.RuleRef,
) (unstructured.Unstructured, []engineapi.RuleResponse) {
	type result struct {
		resource  unstructured.Unstructured
		responses []engineapi.RuleResponse
	}
	ruleType := engineapi.RuleTypeOf(ref.Rule)
	res := tracing.ChildSpan1(
		ctx,
		"pkg/engine",
		fmt.Sprintf("RULE %s", ref.Rule.Name),
		func(ctx context.Context, span trace.Span) (out result) {
			logger := internal.LoggerWithRule(internal.LoggerWithPolicy(logger, ref.Policy), ref.Rule)
			startTime := time.Now()
			defer func() {
				if r := recover(); r != nil {
					logger.Error(fmt.Errorf("%v", r), "rule evaluation panicked")
					out = result{
						resource:  resource,
						responses: handlers.WithError(ref.Rule, ruleType, "rule evaluation panicked", fmt.Errorf("%v", r)),
					}
				}
				for i := range out.responses {
					out.responses[i] = *e.decorate(ref, original, &out.responses[i])
					e.recordDuration(ctx, logger, ref, out.responses[i], time.Since(startTime))
					tracing.SetRuleStatus(span, string(out.responses[i].Status()), out.responses[i].Status() == engineapi.RuleStatusError, out.responses[i].Message())
				}
			}()
			span.SetAttributes(
				tracing.PolicyNameKey.String(ref.Policy.GetName()),
				tracing.PolicyNamespaceKey.String(ref.Policy.GetNamespace()),
				tracing.RuleNameKey.String(ref.Rule.Name),
				tracing.RuleTypeKey.String(string(ruleType)),
			)
			patched, responses := handler.Process(ctx, logger, policyContext.WithPolicy(ref.Policy), resource, ref.Rule)
			return result{resource: patched, responses: responses}
		},
	)
	return res.resource, res.responses
}

// decorate stamps the policy key and the resolved failure action on a rule response
func (e *Engine) decorate(ref match.RuleRef, resource engineapi.Resource, response *engineapi.RuleResponse) *engineapi.RuleResponse {
	return response.
		WithPolicy(ref.PolicyKey()).
		WithFailureAction(internal.FailureAction(ref.Policy, ref.Rule, resource))
}

func (e *Engine) recordDuration(ctx context.Context, logger logr.Logger, ref match.RuleRef, response engineapi.RuleResponse, duration time.Duration) {
	logger.V(4).Info("rule processed", "status", response.Status(), "duration", duration.String())
	if e.metrics == nil {
		return
	}
	e.metrics.RecordRuleExecutionDuration(
		ctx,
		ref.Policy.GetName(),
		ref.Rule.Name,
		metrics.ParseRuleTypeFromEngineRuleResponse(response),
		metrics.ParseRuleResult(response.Status()),
		duration.Seconds(),
	)
}

func hasError(responses []engineapi.RuleResponse) bool {
	for i := range responses {
		if responses[i].HasStatus(engineapi.RuleStatusError) {
			return true
		}
	}
	return false
}

func hasPatched(responses []engineapi.RuleResponse) bool {
	for i := range responses {
		if responses[i].HasStatus(engineapi.RuleStatusPass) && responses[i].PatchedResource() != nil {
			return true
		}
	}
	return false
}

func flatten(slots [][]engineapi.RuleResponse) []engineapi.RuleResponse {
	var out []engineapi.RuleResponse
	for _, slot := range slots {
		out = append(out, slot...)
	}
	return out
}
