package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/kyverno/admission-engine/pkg/config"
	admissionutils "github.com/kyverno/admission-engine/pkg/utils/admission"
	admissionv1 "k8s.io/api/admission/v1"
)

// WithTimeout answers with the failure policy when the inner handler does not respond in time.
// The inner evaluation is not interrupted, its late response is dropped.
func (inner AdmissionHandler) WithTimeout(timeout time.Duration, failurePolicy config.FailurePolicy) AdmissionHandler {
	if timeout <= 0 {
		return inner
	}
	return func(ctx context.Context, logger logr.Logger, request *admissionv1.AdmissionRequest, startTime time.Time) *admissionv1.AdmissionResponse {
		ctx, cancel := context.WithTimeout(ctx, timeout-time.Since(startTime))
		defer cancel()
		responses := make(chan *admissionv1.AdmissionResponse, 1)
		go func() {
			responses <- inner(ctx, logger, request, startTime)
		}()
		select {
		case response := <-responses:
			return response
		case <-ctx.Done():
			logger.Info("admission review timed out", "timeout", timeout.String(), "failurePolicy", failurePolicy)
			return timeoutResponse(timeout, failurePolicy)
		}
	}
}

func timeoutResponse(timeout time.Duration, failurePolicy config.FailurePolicy) *admissionv1.AdmissionResponse {
	if failurePolicy == config.Ignore {
		return admissionutils.ResponseSuccess(fmt.Sprintf("policies were not evaluated within %s, the request is admitted", timeout))
	}
	return admissionutils.Response(fmt.Errorf("policies were not evaluated within %s", timeout))
}
