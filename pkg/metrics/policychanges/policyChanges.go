package policychanges

import (
	"context"

	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	"github.com/kyverno/admission-engine/pkg/metrics"
)

// PolicyChangeType is the kind of change observed between two policy set generations
type PolicyChangeType string

const (
	PolicyCreated PolicyChangeType = "created"
	PolicyUpdated PolicyChangeType = "updated"
	PolicyDeleted PolicyChangeType = "deleted"
)

// RegisterPolicy records a change of a loaded policy, nothing is recorded without a manager
func RegisterPolicy(ctx context.Context, m metrics.MetricsConfigManager, policy kyvernov1.PolicyInterface, policyChangeType PolicyChangeType) {
	if m == nil {
		return
	}
	name, namespace, policyType, validationMode := metrics.GetPolicyInfos(policy)
	m.RecordPolicyChanges(ctx, validationMode, policyType, namespace, name, string(policyChangeType))
}
