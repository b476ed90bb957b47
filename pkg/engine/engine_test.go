package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	"github.com/kyverno/admission-engine/pkg/config"
	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
	"github.com/kyverno/admission-engine/pkg/engine/policycontext"
	"github.com/kyverno/admission-engine/pkg/metrics"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"gotest.tools/assert"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"
)

type policySet []kyvernov1.PolicyInterface

func (s policySet) PoliciesForKind(string) []kyvernov1.PolicyInterface {
	return s
}

func loadPolicy(t *testing.T, raw string) kyvernov1.PolicyInterface {
	var policy kyvernov1.ClusterPolicy
	assert.NilError(t, yaml.UnmarshalStrict([]byte(raw), &policy))
	assert.Equal(t, len(policy.Validate()), 0)
	return &policy
}

func loadResource(t *testing.T, raw string) engineapi.Resource {
	var object map[string]interface{}
	assert.NilError(t, yaml.Unmarshal([]byte(raw), &object))
	return engineapi.NewResource(object, kyvernov1.Create)
}

func newEngine(t *testing.T) *Engine {
	e, err := NewEngine(config.NewDefaultConfiguration(), nil)
	assert.NilError(t, err)
	return e
}

func requireLabels(action kyvernov1.FailureAction) string {
	return fmt.Sprintf(`
apiVersion: kyverno.io/v1
kind: ClusterPolicy
metadata:
  name: require-labels
spec:
  validationFailureAction: %s
  rules:
  - name: check-for-labels
    match:
      any:
      - resources:
          kinds:
          - Pod
    validate:
      message: "labels app, env and team are required"
      pattern:
        metadata:
          labels:
            app: "?*"
            env: "?*"
            team: "?*"
`, action)
}

const addDefaultTeam = `
apiVersion: kyverno.io/v1
kind: ClusterPolicy
metadata:
  name: add-default-team
spec:
  rules:
  - name: add-team
    match:
      any:
      - resources:
          kinds:
          - Pod
    mutate:
      overlay:
        metadata:
          labels:
            +(team): unassigned
`

const requireTeam = `
apiVersion: kyverno.io/v1
kind: ClusterPolicy
metadata:
  name: require-team
spec:
  validationFailureAction: Enforce
  rules:
  - name: check-team
    match:
      any:
      - resources:
          kinds:
          - Pod
    validate:
      pattern:
        metadata:
          labels:
            team: "?*"
`

const podWithApp = `
apiVersion: v1
kind: Pod
metadata:
  name: nginx
  namespace: default
  labels:
    app: x
spec:
  containers:
  - name: nginx
    image: nginx:1.25
`

func Test_Evaluate_EmptyPolicySet(t *testing.T) {
	e := newEngine(t)
	resource := loadResource(t, podWithApp)
	for _, policies := range []policySet{nil, {}} {
		verdict := e.Evaluate(context.TODO(), resource, policies)
		assert.Equal(t, verdict.Decision, engineapi.Allow)
		assert.Equal(t, len(verdict.Outcomes), 0)
		assert.Equal(t, len(verdict.Failures), 0)
		assert.Equal(t, len(verdict.Patches), 0)
	}
}

func Test_Evaluate_RequireLabels(t *testing.T) {
	e := newEngine(t)
	resource := loadResource(t, podWithApp)

	verdict := e.Evaluate(context.TODO(), resource, policySet{loadPolicy(t, requireLabels(kyvernov1.Enforce))})
	assert.Equal(t, verdict.Decision, engineapi.Deny)
	assert.Equal(t, len(verdict.Failures), 1)
	failure := verdict.Failures[0]
	assert.Equal(t, failure.Status(), engineapi.RuleStatusFail)
	assert.Equal(t, failure.Policy(), "require-labels")
	assert.Equal(t, failure.Name(), "check-for-labels")
	assert.Equal(t, failure.Path(), "/metadata/labels/env")
	assert.Equal(t, failure.FailureAction(), kyvernov1.Enforce)

	audit := e.Evaluate(context.TODO(), resource, policySet{loadPolicy(t, requireLabels(kyvernov1.Audit))})
	assert.Equal(t, audit.Decision, engineapi.Allow)
	assert.Equal(t, len(audit.Failures), 1)
	assert.Equal(t, audit.Failures[0].Path(), failure.Path())
	assert.Equal(t, audit.Failures[0].Message(), failure.Message())
	assert.Equal(t, len(audit.Warnings), 0)

	warn := e.Evaluate(context.TODO(), resource, policySet{loadPolicy(t, requireLabels(kyvernov1.Warn))})
	assert.Equal(t, warn.Decision, engineapi.Allow)
	assert.Equal(t, len(warn.Warnings), 1)
}

func Test_Evaluate_MutateThenValidate(t *testing.T) {
	e := newEngine(t)
	resource := loadResource(t, podWithApp)
	// the validating policy is loaded first, mutations still run before validations
	verdict := e.Evaluate(context.TODO(), resource, policySet{loadPolicy(t, requireTeam), loadPolicy(t, addDefaultTeam)})
	assert.Equal(t, verdict.Decision, engineapi.Allow)
	assert.Equal(t, len(verdict.Failures), 0)
	assert.Equal(t, len(verdict.Outcomes), 2)
	assert.Equal(t, verdict.Outcomes[0].Policy(), "require-team")
	assert.Equal(t, verdict.Outcomes[0].Status(), engineapi.RuleStatusPass)
	assert.Equal(t, verdict.Outcomes[1].Policy(), "add-default-team")
	assert.Equal(t, verdict.Outcomes[1].Status(), engineapi.RuleStatusPass)
	assert.Equal(t, len(verdict.Patches), 1)
	assert.Equal(t, verdict.Patches[0].Path, "/metadata/labels/team")
	assert.Equal(t, verdict.PatchedResource.GetLabels()["team"], "unassigned")
	// the input is left untouched
	assert.Equal(t, resource.Labels()["team"], "")
}

func Test_Evaluate_MutationErrorAbortsChain(t *testing.T) {
	e := newEngine(t)
	resource := loadResource(t, podWithApp)
	broken := loadPolicy(t, `
apiVersion: kyverno.io/v1
kind: ClusterPolicy
metadata:
  name: broken
spec:
  rules:
  - name: type-mismatch
    match:
      any:
      - resources:
          kinds:
          - Pod
    mutate:
      overlay:
        metadata:
          name:
            nested: value
`)
	verdict := e.Evaluate(context.TODO(), resource, policySet{broken, loadPolicy(t, addDefaultTeam), loadPolicy(t, requireTeam)})
	assert.Assert(t, verdict.MutationError != nil)
	assert.Equal(t, verdict.MutationError.Name(), "type-mismatch")
	assert.Equal(t, len(verdict.Patches), 0)
	assert.Equal(t, verdict.Outcomes[1].Status(), engineapi.RuleStatusSkip)
	assert.Equal(t, verdict.Outcomes[1].Message(), "mutation chain aborted")
	// validation runs against the original resource
	assert.Equal(t, verdict.Outcomes[2].Status(), engineapi.RuleStatusFail)
	assert.Equal(t, verdict.Decision, engineapi.Deny)
}

func Test_Evaluate_Idempotent(t *testing.T) {
	e := newEngine(t)
	resource := loadResource(t, podWithApp)
	policies := policySet{loadPolicy(t, addDefaultTeam), loadPolicy(t, requireLabels(kyvernov1.Enforce)), loadPolicy(t, requireTeam)}
	first := e.Evaluate(context.TODO(), resource, policies)
	for i := 0; i < 5; i++ {
		next := e.Evaluate(context.TODO(), resource, policies)
		assert.DeepEqual(t, next.Messages(), first.Messages())
		assert.Equal(t, next.Decision, first.Decision)
		assert.DeepEqual(t, next.Patches, first.Patches)
		assert.DeepEqual(t, next.PatchedResource.Object, first.PatchedResource.Object)
	}
}

func Test_Evaluate_OrderingIsDeterministic(t *testing.T) {
	configuration := config.NewDefaultConfiguration()
	configuration.SetConcurrency(8)
	e, err := NewEngine(configuration, nil)
	assert.NilError(t, err)
	var policies policySet
	var expected []string
	for i := 0; i < 10; i++ {
		policy := loadPolicy(t, requireLabels(kyvernov1.Audit)).(*kyvernov1.ClusterPolicy)
		policy.Name = fmt.Sprintf("policy-%02d", i)
		rule := policy.Spec.Rules[0]
		policy.Spec.Rules = nil
		for j := 0; j < 3; j++ {
			rule.Name = fmt.Sprintf("rule-%d", j)
			policy.Spec.Rules = append(policy.Spec.Rules, rule)
			expected = append(expected, policy.Name+"/"+rule.Name)
		}
		policies = append(policies, policy)
	}
	verdict := e.Evaluate(context.TODO(), loadResource(t, podWithApp), policies)
	var actual []string
	for _, outcome := range verdict.Outcomes {
		actual = append(actual, outcome.Policy()+"/"+outcome.Name())
	}
	assert.DeepEqual(t, actual, expected)
}

type panicHandler struct{}

func (panicHandler) Process(context.Context, logr.Logger, *policycontext.PolicyContext, unstructured.Unstructured, kyvernov1.Rule) (unstructured.Unstructured, []engineapi.RuleResponse) {
	panic("boom")
}

func Test_Evaluate_PanicIsolation(t *testing.T) {
	e := newEngine(t)
	e.generateResourceHandler = panicHandler{}
	generate := loadPolicy(t, `
apiVersion: kyverno.io/v1
kind: ClusterPolicy
metadata:
  name: generate-defaults
spec:
  rules:
  - name: generate-configmap
    match:
      any:
      - resources:
          kinds:
          - Pod
    generate:
      kind: ConfigMap
      name: defaults
      data: {}
`)
	verdict := e.Evaluate(context.TODO(), loadResource(t, podWithApp), policySet{generate, loadPolicy(t, requireLabels(kyvernov1.Enforce))})
	assert.Equal(t, len(verdict.Outcomes), 2)
	assert.Equal(t, verdict.Outcomes[0].Status(), engineapi.RuleStatusError)
	assert.Equal(t, verdict.Outcomes[0].Message(), "rule evaluation panicked: boom")
	assert.Equal(t, verdict.Outcomes[1].Status(), engineapi.RuleStatusFail)
	assert.Equal(t, verdict.Decision, engineapi.Deny)
}

func Test_Evaluate_ConfigurationFilters(t *testing.T) {
	e := newEngine(t)
	resource := loadResource(t, `
apiVersion: v1
kind: Pod
metadata:
  name: coredns
  namespace: kube-system
`)
	verdict := e.Evaluate(context.TODO(), resource, policySet{loadPolicy(t, requireLabels(kyvernov1.Enforce))})
	assert.Equal(t, verdict.Decision, engineapi.Allow)
	assert.Equal(t, len(verdict.Outcomes), 0)
}

func Test_Evaluate_NamespaceOverride(t *testing.T) {
	e := newEngine(t)
	policy := loadPolicy(t, requireLabels(kyvernov1.Enforce))
	policy.GetSpec().ValidationFailureActionOverrides = []kyvernov1.FailureActionOverride{{
		Action:     kyvernov1.Audit,
		Namespaces: []string{"def*"},
	}}
	verdict := e.Evaluate(context.TODO(), loadResource(t, podWithApp), policySet{policy})
	assert.Equal(t, verdict.Decision, engineapi.Allow)
	assert.Equal(t, verdict.Failures[0].FailureAction(), kyvernov1.Audit)
}

func Test_Evaluate_Generate(t *testing.T) {
	e := newEngine(t)
	policy := loadPolicy(t, `
apiVersion: kyverno.io/v1
kind: ClusterPolicy
metadata:
  name: add-networkpolicy
spec:
  rules:
  - name: default-deny
    match:
      any:
      - resources:
          kinds:
          - Namespace
    generate:
      apiVersion: networking.k8s.io/v1
      kind: NetworkPolicy
      name: default-deny
      namespace: "{{ request.object.metadata.name }}"
      synchronize: true
      data:
        spec:
          podSelector: {}
          policyTypes:
          - Ingress
`)
	resource := loadResource(t, `
apiVersion: v1
kind: Namespace
metadata:
  name: team-a
`)
	verdict := e.Evaluate(context.TODO(), resource, policySet{policy})
	assert.Equal(t, len(verdict.GeneratedResources), 1)
	assert.Equal(t, verdict.GeneratedResources[0].GetNamespace(), "team-a")
	assert.Equal(t, verdict.GeneratedResources[0].GetKind(), "NetworkPolicy")
}

func Test_Evaluate_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	manager, err := metrics.NewMetricsConfigManager(logr.Discard(), sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	assert.NilError(t, err)
	e, err := NewEngine(config.NewDefaultConfiguration(), manager)
	assert.NilError(t, err)
	e.Evaluate(context.TODO(), loadResource(t, podWithApp), policySet{loadPolicy(t, requireLabels(kyvernov1.Enforce))})

	var rm metricdata.ResourceMetrics
	assert.NilError(t, reader.Collect(context.TODO(), &rm))
	found := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			found[m.Name] = true
		}
	}
	assert.Assert(t, found["kyverno_policy_results"])
	assert.Assert(t, found["kyverno_policy_rule_execution_duration_seconds"])
}

func Test_Evaluate_ResourceContentIsNotATemplate(t *testing.T) {
	e := newEngine(t)
	policy := loadPolicy(t, `
apiVersion: kyverno.io/v1
kind: ClusterPolicy
metadata:
  name: require-team-owner
spec:
  validationFailureAction: Enforce
  rules:
  - name: check-team
    match:
      any:
      - resources:
          kinds:
          - Pod
    validate:
      message: "owner is {{request.object.metadata.annotations.owner}}"
      pattern:
        metadata:
          labels:
            team: "?*"
`)
	resource := loadResource(t, `
apiVersion: v1
kind: Pod
metadata:
  name: nginx
  namespace: default
  annotations:
    owner: "x {{request.object.metadata.annotations.owner}}"
spec:
  containers:
  - name: nginx
    image: nginx:1.25
`)
	done := make(chan engineapi.Verdict, 1)
	go func() {
		done <- e.Evaluate(context.TODO(), resource, policySet{policy})
	}()
	select {
	case verdict := <-done:
		assert.Equal(t, verdict.Decision, engineapi.Deny)
		assert.Equal(t, len(verdict.Failures), 1)
		assert.Assert(t, strings.Contains(verdict.Failures[0].Message(), "owner is x {{request.object.metadata.annotations.owner}}"), verdict.Failures[0].Message())
	case <-time.After(5 * time.Second):
		t.Fatal("evaluation did not complete")
	}
}
