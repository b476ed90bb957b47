package tracing

import "go.opentelemetry.io/otel/attribute"

const (
	// TracerName is the name of the tracer used by the engine
	TracerName = "kyverno-engine"
)

// Span attribute keys
const (
	PolicyNameKey        = attribute.Key("kyverno.policy.name")
	PolicyNamespaceKey   = attribute.Key("kyverno.policy.namespace")
	RuleNameKey          = attribute.Key("kyverno.rule.name")
	RuleTypeKey          = attribute.Key("kyverno.rule.type")
	RuleStatusKey        = attribute.Key("kyverno.rule.status")
	ResourceKindKey      = attribute.Key("kyverno.resource.kind")
	ResourceNamespaceKey = attribute.Key("kyverno.resource.namespace")
	ResourceNameKey      = attribute.Key("kyverno.resource.name")
	RequestOperationKey  = attribute.Key("kyverno.request.operation")
	DecisionKey          = attribute.Key("kyverno.decision")
	RequestUidKey        = attribute.Key("admission.request.uid")
	ResponseAllowedKey   = attribute.Key("admission.response.allowed")
	ResponseWarningsKey  = attribute.Key("admission.response.warnings")
)
