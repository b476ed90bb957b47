package resource

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-logr/logr"
	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
	"github.com/kyverno/admission-engine/pkg/engine/match"
	admissionutils "github.com/kyverno/admission-engine/pkg/utils/admission"
	"github.com/kyverno/admission-engine/pkg/webhooks"
	webhookutils "github.com/kyverno/admission-engine/pkg/webhooks/utils"
	admissionv1 "k8s.io/api/admission/v1"
)

// Engine evaluates a resource against a policy set
type Engine interface {
	Evaluate(context.Context, engineapi.Resource, match.PolicySet) engineapi.Verdict
}

type resourceHandlers struct {
	engine   Engine
	policies func() match.PolicySet
}

// NewHandlers creates the resource handlers, policies is called once per admission review
func NewHandlers(engine Engine, policies func() match.PolicySet) webhooks.ResourceHandlers {
	return &resourceHandlers{
		engine:   engine,
		policies: policies,
	}
}

func (h *resourceHandlers) Validate(ctx context.Context, logger logr.Logger, request *admissionv1.AdmissionRequest, _ time.Time) *admissionv1.AdmissionResponse {
	verdict, err := h.evaluate(ctx, logger, request)
	if err != nil {
		return admissionutils.Response(err)
	}
	warnings := webhookutils.GetWarningMessages(verdict)
	if !verdict.IsAllowed() {
		logger.V(2).Info("admission request denied", "failures", len(verdict.Failures))
		return admissionutils.Response(errors.New(webhookutils.GetBlockedMessages(verdict)), warnings...)
	}
	return admissionutils.ResponseSuccess(warnings...)
}

func (h *resourceHandlers) Mutate(ctx context.Context, logger logr.Logger, request *admissionv1.AdmissionRequest, _ time.Time) *admissionv1.AdmissionResponse {
	verdict, err := h.evaluate(ctx, logger, request)
	if err != nil {
		return admissionutils.Response(err)
	}
	warnings := webhookutils.GetWarningMessages(verdict)
	if !verdict.IsAllowed() {
		logger.V(2).Info("admission request denied", "failures", len(verdict.Failures))
		return admissionutils.Response(errors.New(webhookutils.GetBlockedMessages(verdict)), warnings...)
	}
	if len(verdict.Patches) == 0 {
		return admissionutils.ResponseSuccess(warnings...)
	}
	patch, err := json.Marshal(verdict.Patches)
	if err != nil {
		logger.Error(err, "failed to encode patches")
		return admissionutils.Response(err, warnings...)
	}
	logger.V(3).Info("mutating resource", "patches", len(verdict.Patches))
	return admissionutils.MutationResponse(patch, warnings...)
}

func (h *resourceHandlers) evaluate(ctx context.Context, logger logr.Logger, request *admissionv1.AdmissionRequest) (engineapi.Verdict, error) {
	resource, err := admissionutils.GetResource(request)
	if err != nil {
		logger.Error(err, "failed to read the admission request resource")
		return engineapi.Verdict{}, err
	}
	return h.engine.Evaluate(ctx, resource, h.policies()), nil
}
