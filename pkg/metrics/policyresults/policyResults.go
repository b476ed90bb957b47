package policyresults

import (
	"context"
	"strings"

	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
	"github.com/kyverno/admission-engine/pkg/metrics"
)

// ProcessVerdict records one result per rule outcome of the verdict
func ProcessVerdict(ctx context.Context, m metrics.MetricsConfigManager, verdict engineapi.Verdict, resourceRequestOperation metrics.ResourceRequestOperation) {
	if m == nil {
		return
	}
	for i := range verdict.Outcomes {
		rule := verdict.Outcomes[i]
		policyType := metrics.Cluster
		policyNamespace, policyName := "-", rule.Policy()
		if ns, name, ok := strings.Cut(rule.Policy(), "/"); ok {
			policyType = metrics.Namespaced
			policyNamespace, policyName = ns, name
		}
		m.RecordPolicyResults(
			ctx,
			metrics.ParsePolicyValidationMode(rule.FailureAction()),
			policyType,
			policyNamespace,
			policyName,
			verdict.Resource.Kind,
			verdict.Resource.Namespace,
			resourceRequestOperation,
			rule.Name(),
			metrics.ParseRuleResult(rule.Status()),
			metrics.ParseRuleTypeFromEngineRuleResponse(rule),
		)
	}
}
