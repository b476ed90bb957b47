package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/go-logr/logr"
	admissionv1 "k8s.io/api/admission/v1"
)

func (inner AdmissionHandler) WithDump(enabled bool) AdmissionHandler {
	if !enabled {
		return inner
	}
	return func(ctx context.Context, logger logr.Logger, request *admissionv1.AdmissionRequest, startTime time.Time) *admissionv1.AdmissionResponse {
		response := inner(ctx, logger, request, startTime)
		dumpPayload(logger, request, response)
		return response
	}
}

func dumpPayload(logger logr.Logger, request *admissionv1.AdmissionRequest, response *admissionv1.AdmissionResponse) {
	payload := request.DeepCopy()
	// secret payloads are never logged
	if strings.EqualFold(payload.Kind.Kind, "Secret") {
		payload.Object.Raw = nil
		payload.OldObject.Raw = nil
	}
	logger.Info("admission request and response payload", "AdmissionRequest", payload, "AdmissionResponse", response)
}
