package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/kyverno/admission-engine/pkg/tracing"
	"go.opentelemetry.io/otel/trace"
	admissionv1 "k8s.io/api/admission/v1"
)

func (inner HttpHandler) WithTrace(name string) HttpHandler {
	return func(writer http.ResponseWriter, request *http.Request) {
		tracing.Span(
			request.Context(),
			"webhooks/handlers",
			fmt.Sprintf("%s %s %s", name, request.Method, request.URL.Path),
			func(ctx context.Context, span trace.Span) {
				inner(writer, request.WithContext(ctx))
			},
			trace.WithSpanKind(trace.SpanKindServer),
		)
	}
}

func (inner AdmissionHandler) WithTrace(name string) AdmissionHandler {
	return func(ctx context.Context, logger logr.Logger, request *admissionv1.AdmissionRequest, startTime time.Time) *admissionv1.AdmissionResponse {
		return tracing.Span1(
			ctx,
			"webhooks/handlers",
			fmt.Sprintf("%s %s %s", name, request.Operation, request.Kind.Kind),
			func(ctx context.Context, span trace.Span) *admissionv1.AdmissionResponse {
				response := inner(ctx, logger, request, startTime)
				if response != nil {
					span.SetAttributes(
						tracing.ResponseAllowedKey.Bool(response.Allowed),
						tracing.ResponseWarningsKey.StringSlice(response.Warnings),
					)
				}
				return response
			},
			trace.WithAttributes(
				tracing.RequestUidKey.String(string(request.UID)),
				tracing.RequestOperationKey.String(string(request.Operation)),
				tracing.ResourceKindKey.String(request.Kind.Kind),
				tracing.ResourceNamespaceKey.String(request.Namespace),
				tracing.ResourceNameKey.String(request.Name),
			),
		)
	}
}
