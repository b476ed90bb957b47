package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan creates a span from a context with `operationName` name
func StartSpan(
	ctx context.Context,
	tracerName string,
	operationName string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, operationName, opts...)
}

// StartChildSpan creates a span only when the context already carries a recording span
func StartChildSpan(
	ctx context.Context,
	tracerName string,
	operationName string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	span := CurrentSpan(ctx)
	if !span.IsRecording() {
		return ctx, span
	}
	return StartSpan(ctx, tracerName, operationName, opts...)
}

// Span executes function doFn inside new span with `operationName` name and hooking as child to a span found within given context if any.
func Span(
	ctx context.Context,
	tracerName string,
	operationName string,
	doFn func(context.Context, trace.Span),
	opts ...trace.SpanStartOption,
) {
	ctx, span := StartSpan(ctx, tracerName, operationName, opts...)
	defer span.End()
	doFn(ctx, span)
}

// Span1 is Span for functions returning one value
func Span1[T1 any](
	ctx context.Context,
	tracerName string,
	operationName string,
	doFn func(context.Context, trace.Span) T1,
	opts ...trace.SpanStartOption,
) T1 {
	ctx, span := StartSpan(ctx, tracerName, operationName, opts...)
	defer span.End()
	return doFn(ctx, span)
}

// ChildSpan1 is Span1 creating the span only inside an existing trace
func ChildSpan1[T1 any](
	ctx context.Context,
	tracerName string,
	operationName string,
	doFn func(context.Context, trace.Span) T1,
	opts ...trace.SpanStartOption,
) T1 {
	ctx, span := StartChildSpan(ctx, tracerName, operationName, opts...)
	defer span.End()
	return doFn(ctx, span)
}
