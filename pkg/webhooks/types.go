package webhooks

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	admissionv1 "k8s.io/api/admission/v1"
)

// ResourceHandlers answers admission reviews of resources
type ResourceHandlers interface {
	// Mutate admits or denies the resource and returns the patch of the mutation rules
	Mutate(context.Context, logr.Logger, *admissionv1.AdmissionRequest, time.Time) *admissionv1.AdmissionResponse
	// Validate admits or denies the resource
	Validate(context.Context, logr.Logger, *admissionv1.AdmissionRequest, time.Time) *admissionv1.AdmissionResponse
}
