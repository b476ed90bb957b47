package handlers

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/kyverno/admission-engine/pkg/metrics"
	"github.com/kyverno/admission-engine/pkg/metrics/admissionreviewduration"
	admissionv1 "k8s.io/api/admission/v1"
)

func (inner AdmissionHandler) WithMetrics(metricsConfig metrics.MetricsConfigManager) AdmissionHandler {
	return inner.withMetrics(metricsConfig).WithTrace("METRICS")
}

func (inner AdmissionHandler) withMetrics(metricsConfig metrics.MetricsConfigManager) AdmissionHandler {
	if metricsConfig == nil {
		return inner
	}
	return func(ctx context.Context, logger logr.Logger, request *admissionv1.AdmissionRequest, startTime time.Time) *admissionv1.AdmissionResponse {
		response := inner(ctx, logger, request, startTime)
		admissionreviewduration.Process(ctx, metricsConfig, request, response, time.Since(startTime))
		return response
	}
}
