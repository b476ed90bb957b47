package admissionreviewduration

import (
	"context"
	"strings"
	"time"

	"github.com/kyverno/admission-engine/pkg/metrics"
	admissionv1 "k8s.io/api/admission/v1"
)

func Process(ctx context.Context, m metrics.MetricsConfigManager, request *admissionv1.AdmissionRequest, response *admissionv1.AdmissionResponse, latency time.Duration) {
	if m == nil || request == nil || response == nil {
		return
	}
	op := strings.ToLower(string(request.Operation))
	m.RecordAdmissionReviewDuration(ctx, request.Kind.Kind, request.Namespace, op, latency.Seconds(), response.Allowed)
}
