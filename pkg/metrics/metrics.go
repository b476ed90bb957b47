package metrics

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/kyverno/admission-engine/pkg/version"
	prom "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const (
	MeterName = "kyverno-engine"
)

// DefaultBucketBoundaries are the histogram boundaries, in seconds
var DefaultBucketBoundaries = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 20, 25, 30}

var metricsConfig MetricsConfigManager

func GetManager() MetricsConfigManager {
	return metricsConfig
}

func SetManager(manager MetricsConfigManager) {
	metricsConfig = manager
}

type MetricsConfigManager interface {
	RecordPolicyChanges(ctx context.Context, policyValidationMode PolicyValidationMode, policyType PolicyType, policyNamespace string, policyName string, policyChangeType string)
	RecordPolicyResults(ctx context.Context, policyValidationMode PolicyValidationMode, policyType PolicyType, policyNamespace string, policyName string, resourceKind string, resourceNamespace string, resourceRequestOperation ResourceRequestOperation, ruleName string, ruleResult RuleResult, ruleType RuleType)
	RecordRuleExecutionDuration(ctx context.Context, policyName string, ruleName string, ruleType RuleType, ruleResult RuleResult, seconds float64)
	RecordAdmissionReviewDuration(ctx context.Context, resourceKind string, resourceNamespace string, resourceRequestOperation string, seconds float64, allowed bool)
}

type MetricsConfig struct {
	// instruments
	policyChangesMetric           metric.Int64Counter
	policyResultsMetric           metric.Int64Counter
	ruleExecutionDurationMetric   metric.Float64Histogram
	admissionReviewDurationMetric metric.Float64Histogram
	admissionRequestsMetric       metric.Int64Counter

	Log logr.Logger
}

// NewMetricsConfigManager creates the instruments on the given provider, the global provider is used when nil
func NewMetricsConfigManager(logger logr.Logger, meterProvider metric.MeterProvider) (*MetricsConfig, error) {
	if meterProvider == nil {
		meterProvider = otel.GetMeterProvider()
	}
	config := &MetricsConfig{Log: logger}
	if err := config.initializeMetrics(meterProvider); err != nil {
		return nil, err
	}
	return config, nil
}

func (m *MetricsConfig) initializeMetrics(meterProvider metric.MeterProvider) error {
	var err error
	meter := meterProvider.Meter(MeterName)
	m.policyChangesMetric, err = meter.Int64Counter("kyverno_policy_changes", metric.WithDescription("can be used to track all the changes associated with the loaded policies such as creation, updates and deletions"))
	if err != nil {
		m.Log.Error(err, "Failed to create instrument, kyverno_policy_changes")
		return err
	}
	m.policyResultsMetric, err = meter.Int64Counter("kyverno_policy_results", metric.WithDescription("can be used to track the results associated with the policies applied to incoming resources"))
	if err != nil {
		m.Log.Error(err, "Failed to create instrument, kyverno_policy_results")
		return err
	}
	m.ruleExecutionDurationMetric, err = meter.Float64Histogram("kyverno_policy_rule_execution_duration_seconds", metric.WithDescription("can be used to track the latencies (in seconds) associated with the execution of individual rules"))
	if err != nil {
		m.Log.Error(err, "Failed to create instrument, kyverno_policy_rule_execution_duration_seconds")
		return err
	}
	m.admissionReviewDurationMetric, err = meter.Float64Histogram("kyverno_admission_review_duration_seconds", metric.WithDescription("can be used to track the latencies (in seconds) associated with the entire individual admission review"))
	if err != nil {
		m.Log.Error(err, "Failed to create instrument, kyverno_admission_review_duration_seconds")
		return err
	}
	m.admissionRequestsMetric, err = meter.Int64Counter("kyverno_admission_requests", metric.WithDescription("can be used to track the number of admission requests encountered"))
	if err != nil {
		m.Log.Error(err, "Failed to create instrument, kyverno_admission_requests")
		return err
	}
	return nil
}

func aggregationSelector(boundaries []float64) func(ik sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return func(ik sdkmetric.InstrumentKind) sdkmetric.Aggregation {
		switch ik {
		case sdkmetric.InstrumentKindHistogram:
			return sdkmetric.AggregationExplicitBucketHistogram{
				Boundaries: boundaries,
				NoMinMax:   true,
			}
		default:
			return sdkmetric.DefaultAggregationSelector(ik)
		}
	}
}

// NewPrometheusConfig creates a meter provider exporting to the given prometheus registerer
func NewPrometheusConfig(log logr.Logger, registerer prom.Registerer) (*sdkmetric.MeterProvider, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceNameKey.String(MeterName),
			semconv.ServiceVersionKey.String(version.Version()),
		),
	)
	if err != nil {
		log.Error(err, "failed creating resource")
		return nil, err
	}
	exporter, err := prometheus.New(
		prometheus.WithoutUnits(),
		prometheus.WithoutTargetInfo(),
		prometheus.WithRegisterer(registerer),
		prometheus.WithAggregationSelector(aggregationSelector(DefaultBucketBoundaries)),
	)
	if err != nil {
		log.Error(err, "failed to initialize prometheus exporter")
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	return provider, nil
}

func ShutDownController(ctx context.Context, provider *sdkmetric.MeterProvider) {
	if provider != nil {
		if err := provider.Shutdown(ctx); err != nil {
			otel.Handle(err)
		}
	}
}

func (m *MetricsConfig) RecordPolicyChanges(ctx context.Context, policyValidationMode PolicyValidationMode, policyType PolicyType, policyNamespace string, policyName string, policyChangeType string) {
	commonLabels := []attribute.KeyValue{
		attribute.String("policy_validation_mode", string(policyValidationMode)),
		attribute.String("policy_type", string(policyType)),
		attribute.String("policy_namespace", policyNamespace),
		attribute.String("policy_name", policyName),
		attribute.String("policy_change_type", policyChangeType),
	}
	m.policyChangesMetric.Add(ctx, 1, metric.WithAttributes(commonLabels...))
}

func (m *MetricsConfig) RecordPolicyResults(ctx context.Context, policyValidationMode PolicyValidationMode, policyType PolicyType, policyNamespace string, policyName string, resourceKind string, resourceNamespace string, resourceRequestOperation ResourceRequestOperation, ruleName string, ruleResult RuleResult, ruleType RuleType) {
	commonLabels := []attribute.KeyValue{
		attribute.String("policy_validation_mode", string(policyValidationMode)),
		attribute.String("policy_type", string(policyType)),
		attribute.String("policy_namespace", policyNamespace),
		attribute.String("policy_name", policyName),
		attribute.String("resource_kind", resourceKind),
		attribute.String("resource_namespace", resourceNamespace),
		attribute.String("resource_request_operation", string(resourceRequestOperation)),
		attribute.String("rule_name", ruleName),
		attribute.String("rule_result", string(ruleResult)),
		attribute.String("rule_type", string(ruleType)),
	}
	m.policyResultsMetric.Add(ctx, 1, metric.WithAttributes(commonLabels...))
}

func (m *MetricsConfig) RecordRuleExecutionDuration(ctx context.Context, policyName string, ruleName string, ruleType RuleType, ruleResult RuleResult, seconds float64) {
	commonLabels := []attribute.KeyValue{
		attribute.String("policy_name", policyName),
		attribute.String("rule_name", ruleName),
		attribute.String("rule_type", string(ruleType)),
		attribute.String("rule_result", string(ruleResult)),
	}
	m.ruleExecutionDurationMetric.Record(ctx, seconds, metric.WithAttributes(commonLabels...))
}

func (m *MetricsConfig) RecordAdmissionReviewDuration(ctx context.Context, resourceKind string, resourceNamespace string, resourceRequestOperation string, seconds float64, allowed bool) {
	commonLabels := []attribute.KeyValue{
		attribute.String("resource_kind", resourceKind),
		attribute.String("resource_namespace", resourceNamespace),
		attribute.String("resource_request_operation", resourceRequestOperation),
		attribute.Bool("request_allowed", allowed),
	}
	m.admissionReviewDurationMetric.Record(ctx, seconds, metric.WithAttributes(commonLabels...))
	m.admissionRequestsMetric.Add(ctx, 1, metric.WithAttributes(commonLabels...))
}
