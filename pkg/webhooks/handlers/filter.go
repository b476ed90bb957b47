package handlers

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	admissionv1 "k8s.io/api/admission/v1"
)

// WithSubResourceFilter admits requests targeting a sub resource (status, scale...) without evaluation
func (inner AdmissionHandler) WithSubResourceFilter() AdmissionHandler {
	return func(ctx context.Context, logger logr.Logger, request *admissionv1.AdmissionRequest, startTime time.Time) *admissionv1.AdmissionResponse {
		if request.SubResource != "" {
			logger.V(4).Info("skipping sub resource", "subResource", request.SubResource)
			return nil
		}
		return inner(ctx, logger, request, startTime)
	}
}
