package internal

import (
	"github.com/go-logr/logr"
	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
)

func LoggerWithPolicy(logger logr.Logger, policy kyvernov1.PolicyInterface) logr.Logger {
	return logger.WithValues(
		"policy.name", policy.GetName(),
		"policy.namespace", policy.GetNamespace(),
		"policy.kind", policy.GetKind(),
	)
}

func LoggerWithResource(logger logr.Logger, prefix string, resource engineapi.Resource) logr.Logger {
	if resource.Object.Object == nil {
		return logger
	}
	return logger.WithValues(
		prefix+".kind", resource.Kind(),
		prefix+".namespace", resource.Namespace(),
		prefix+".name", resource.Name(),
		prefix+".operation", resource.GetOperation(),
	)
}

func LoggerWithRule(logger logr.Logger, rule kyvernov1.Rule) logr.Logger {
	return logger.WithValues("rule.name", rule.Name)
}
