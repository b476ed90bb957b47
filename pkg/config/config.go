package config

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/kyverno/admission-engine/pkg/logging"
	"github.com/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/yaml"
)

const (
	// ValidatingWebhookServicePath is the path of the validating webhook
	ValidatingWebhookServicePath = "/validate"
	// MutatingWebhookServicePath is the path of the mutating webhook
	MutatingWebhookServicePath = "/mutate"
	// LivenessServicePath is the path of the liveness probe
	LivenessServicePath = "/health/liveness"
	// ReadinessServicePath is the path of the readiness probe
	ReadinessServicePath = "/health/readiness"
	// MetricsPath is the path of the prometheus endpoint
	MetricsPath = "/metrics"
)

// FailurePolicy defines the admission response returned when no verdict is available in time.
type FailurePolicy string

const (
	// Ignore admits the request (fail open).
	Ignore FailurePolicy = "Ignore"
	// Fail rejects the request (fail closed).
	Fail FailurePolicy = "Fail"
)

const (
	// DefaultResourceFilters are the resources skipped before any policy is matched.
	DefaultResourceFilters = "[Event,*,*][*,kube-system,*][*,kube-public,*][*,kube-node-lease,*]"
	// DefaultWebhookTimeout is the time budget of one admission review.
	DefaultWebhookTimeout = 10 * time.Second
	// DefaultFailurePolicy is applied when a verdict arrives too late.
	DefaultFailurePolicy = Fail
	// DefaultLogFormat is the default logger output format.
	DefaultLogFormat = logging.TextFormat
)

var logger = logging.WithName("config")

// Configuration stores the engine configuration.
type Configuration interface {
	// ToFilter checks if the given resource is set to be filtered in the configuration
	ToFilter(gvk schema.GroupVersionKind, namespace, name string) bool
	// GetConcurrency returns the maximum number of rules evaluated in parallel
	GetConcurrency() int
	// GetFailurePolicy returns the admission response used when no verdict is available
	GetFailurePolicy() FailurePolicy
	// GetWebhookTimeout returns the time budget of an admission review
	GetWebhookTimeout() time.Duration
	// GetLogFormat returns the logger output format
	GetLogFormat() string
	// Load replaces the configuration with the content of a configuration document
	Load(data []byte) error
}

// Document is the on-disk form of the configuration.
type Document struct {
	// ResourceFilters uses the `[Kind,Namespace,Name]` syntax, wildcards are supported.
	ResourceFilters string `json:"resourceFilters,omitempty"`
	// Concurrency bounds the number of validate and generate rules evaluated in parallel.
	Concurrency int `json:"concurrency,omitempty"`
	// FailurePolicy is either Ignore or Fail.
	FailurePolicy FailurePolicy `json:"failurePolicy,omitempty"`
	// WebhookTimeout is a duration such as `10s`.
	WebhookTimeout *metav1.Duration `json:"webhookTimeout,omitempty"`
	// LogFormat is either text or json.
	LogFormat string `json:"logFormat,omitempty"`
}

type configuration struct {
	mux            sync.RWMutex
	filters        []filter
	concurrency    int
	failurePolicy  FailurePolicy
	webhookTimeout time.Duration
	logFormat      string
}

// NewDefaultConfiguration returns a configuration populated with defaults.
func NewDefaultConfiguration() *configuration {
	return &configuration{
		filters:        parseKinds(DefaultResourceFilters),
		concurrency:    runtime.NumCPU(),
		failurePolicy:  DefaultFailurePolicy,
		webhookTimeout: DefaultWebhookTimeout,
		logFormat:      DefaultLogFormat,
	}
}

// NewConfiguration parses a configuration document on top of the defaults.
func NewConfiguration(data []byte) (*configuration, error) {
	cd := NewDefaultConfiguration()
	if err := cd.Load(data); err != nil {
		return nil, err
	}
	return cd, nil
}

// LoadFile reads a configuration file, an empty path returns the defaults.
func LoadFile(path string) (*configuration, error) {
	if path == "" {
		return NewDefaultConfiguration(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read configuration file %s", path)
	}
	cd, err := NewConfiguration(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load configuration file %s", path)
	}
	return cd, nil
}

// Load implements Configuration.
// Fields missing in the document keep their default value.
func (cd *configuration) Load(data []byte) error {
	var doc Document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return err
	}
	if doc.Concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", doc.Concurrency)
	}
	switch doc.FailurePolicy {
	case "", Ignore, Fail:
	default:
		return fmt.Errorf("failurePolicy must be %s or %s, got %s", Ignore, Fail, doc.FailurePolicy)
	}
	switch doc.LogFormat {
	case "", logging.TextFormat, logging.JSONFormat:
	default:
		return fmt.Errorf("logFormat must be %s or %s, got %s", logging.TextFormat, logging.JSONFormat, doc.LogFormat)
	}
	if doc.WebhookTimeout != nil && doc.WebhookTimeout.Duration <= 0 {
		return fmt.Errorf("webhookTimeout must be positive, got %s", doc.WebhookTimeout.Duration)
	}
	cd.mux.Lock()
	defer cd.mux.Unlock()
	if doc.ResourceFilters != "" {
		logger.V(2).Info("init configuration for resourceFilters", "filters", doc.ResourceFilters)
		cd.filters = parseKinds(doc.ResourceFilters)
	}
	if doc.Concurrency > 0 {
		cd.concurrency = doc.Concurrency
	}
	if doc.FailurePolicy != "" {
		cd.failurePolicy = doc.FailurePolicy
	}
	if doc.WebhookTimeout != nil {
		cd.webhookTimeout = doc.WebhookTimeout.Duration
	}
	if doc.LogFormat != "" {
		cd.logFormat = doc.LogFormat
	}
	return nil
}

// ToFilter checks if the given resource is set to be filtered in the configuration
func (cd *configuration) ToFilter(gvk schema.GroupVersionKind, namespace, name string) bool {
	cd.mux.RLock()
	defer cd.mux.RUnlock()
	for _, f := range cd.filters {
		if f.matches(gvk, namespace, name) {
			return true
		}
		if gvk.Kind == "Namespace" {
			// [Namespace,kube-system,*] || [*,kube-system,*]
			if (f.Kind == "Namespace" || f.Kind == "*") && f.matchesNamespace(name) {
				return true
			}
		}
	}
	return false
}

func (cd *configuration) GetConcurrency() int {
	cd.mux.RLock()
	defer cd.mux.RUnlock()
	return cd.concurrency
}

func (cd *configuration) GetFailurePolicy() FailurePolicy {
	cd.mux.RLock()
	defer cd.mux.RUnlock()
	return cd.failurePolicy
}

func (cd *configuration) GetWebhookTimeout() time.Duration {
	cd.mux.RLock()
	defer cd.mux.RUnlock()
	return cd.webhookTimeout
}

func (cd *configuration) GetLogFormat() string {
	cd.mux.RLock()
	defer cd.mux.RUnlock()
	return cd.logFormat
}

// SetConcurrency overrides the concurrency, non positive values are ignored.
func (cd *configuration) SetConcurrency(concurrency int) {
	if concurrency <= 0 {
		return
	}
	cd.mux.Lock()
	defer cd.mux.Unlock()
	cd.concurrency = concurrency
}

// SetFailurePolicy overrides the failure policy.
func (cd *configuration) SetFailurePolicy(policy FailurePolicy) {
	cd.mux.Lock()
	defer cd.mux.Unlock()
	cd.failurePolicy = policy
}

// SetWebhookTimeout overrides the webhook timeout, non positive values are ignored.
func (cd *configuration) SetWebhookTimeout(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	cd.mux.Lock()
	defer cd.mux.Unlock()
	cd.webhookTimeout = timeout
}
