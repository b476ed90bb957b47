package tracing

import (
	"context"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

func SetSpanStatus(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// SetRuleStatus records the rule status on the span, a rule that errored marks the span as failed
func SetRuleStatus(span trace.Span, status string, failed bool, message string) {
	span.SetAttributes(RuleStatusKey.String(status))
	if failed {
		SetSpanStatus(span, errors.New(message))
	}
}

func SetHttpStatus(ctx context.Context, err error, code int) {
	span := CurrentSpan(ctx)
	if err != nil {
		span.RecordError(err)
	}
	span.SetAttributes(semconv.HTTPStatusCodeKey.Int(code))
	if code >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(code))
	} else {
		span.SetStatus(codes.Ok, http.StatusText(code))
	}
}

func CurrentSpan(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}
