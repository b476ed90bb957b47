package policystore

import (
	"context"
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-logr/logr"
	"github.com/kyverno/admission-engine/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const requireLabels = `
apiVersion: kyverno.io/v1
kind: ClusterPolicy
metadata:
  name: require-labels
spec:
  validationFailureAction: Enforce
  rules:
  - name: check-app
    match:
      any:
      - resources:
          kinds:
          - Pod
    validate:
      message: label app is required
      pattern:
        metadata:
          labels:
            app: "?*"
`

const addTeam = `
apiVersion: kyverno.io/v1
kind: Policy
metadata:
  name: add-team
  namespace: dev
spec:
  rules:
  - name: add-team
    match:
      any:
      - resources:
          kinds:
          - apps/v1/Deployment
          - Pod
    mutate:
      overlay:
        metadata:
          labels:
            +(team): platform
`

const anyKind = `
apiVersion: kyverno.io/v1
kind: ClusterPolicy
metadata:
  name: deny-delete
spec:
  rules:
  - name: deny-delete
    match:
      any:
      - resources:
          operations:
          - DELETE
    validate:
      deny:
        conditions:
          any:
          - key: "{{ request.operation }}"
            operator: Equals
            value: DELETE
`

const missingName = `
apiVersion: kyverno.io/v1
kind: ClusterPolicy
metadata:
  labels:
    foo: bar
spec:
  rules:
  - name: check-app
    match:
      any:
      - resources:
          kinds:
          - Pod
    validate:
      pattern:
        metadata:
          name: "?*"
`

type changes struct {
	metrics.MetricsConfigManager
	recorded map[string]string
}

func (c *changes) RecordPolicyChanges(_ context.Context, _ metrics.PolicyValidationMode, _ metrics.PolicyType, _ string, name string, changeType string) {
	c.recorded[name] = changeType
}

func newStore() *Store {
	return NewStore(logr.Discard(), nil)
}

func Test_Load(t *testing.T) {
	s := newStore()
	assert.Equal(t, uint64(0), s.Snapshot().Generation())
	require.NoError(t, s.Load([][]byte{[]byte(requireLabels + "---\n" + addTeam)}))
	snapshot := s.Snapshot()
	assert.Equal(t, uint64(1), snapshot.Generation())
	assert.Equal(t, 2, snapshot.Len())
	policy, err := s.Get("require-labels")
	require.NoError(t, err)
	assert.Equal(t, "ClusterPolicy", policy.GetKind())
	policy, err = s.Get("dev/add-team")
	require.NoError(t, err)
	assert.True(t, policy.IsNamespaced())
}

func Test_Load_CommentHeader(t *testing.T) {
	s := newStore()
	require.NoError(t, s.Load([][]byte{[]byte("---\n# require-labels policy\n---\n" + requireLabels)}))
	snapshot := s.Snapshot()
	assert.Equal(t, uint64(1), snapshot.Generation())
	assert.Equal(t, 1, snapshot.Len())
	_, err := s.Get("require-labels")
	require.NoError(t, err)
}

func Test_Get_NotFound(t *testing.T) {
	s := newStore()
	require.NoError(t, s.Load([][]byte{[]byte(addTeam)}))
	_, err := s.Get("add-team")
	assert.True(t, errors.Is(err, ErrNotFound))
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "add-team", notFound.Name)
}

func Test_Load_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		document string
		errors   int
	}{{
		name:     "missing name",
		document: missingName,
		errors:   1,
	}, {
		name:     "unknown kind",
		document: "apiVersion: kyverno.io/v1\nkind: ValidatingPolicy\nmetadata:\n  name: foo\n",
		errors:   1,
	}, {
		name:     "no rules",
		document: "apiVersion: kyverno.io/v1\nkind: ClusterPolicy\nmetadata:\n  name: foo\nspec:\n  rules: []\n",
		errors:   1,
	}, {
		name:     "unknown field",
		document: "apiVersion: kyverno.io/v1\nkind: ClusterPolicy\nmetadata:\n  name: foo\nspec:\n  foo: bar\n",
		errors:   1,
	}, {
		name:     "duplicate policy",
		document: requireLabels + "---\n" + requireLabels,
		errors:   1,
	}, {
		name:     "every bad document is reported",
		document: missingName + "---\n" + requireLabels + "---\nkind: Foo\n",
		errors:   2,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore()
			require.NoError(t, s.Load([][]byte{[]byte(anyKind)}))
			err := s.Load([][]byte{[]byte(tt.document)})
			require.Error(t, err)
			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Len(t, parseErr.Errors(), tt.errors)
			// the active set is unchanged
			snapshot := s.Snapshot()
			assert.Equal(t, uint64(1), snapshot.Generation())
			assert.Equal(t, 1, snapshot.Len())
			_, err = s.Get("deny-delete")
			assert.NoError(t, err)
		})
	}
}

func Test_Load_MissingNameReportsField(t *testing.T) {
	err := newStore().Load([][]byte{[]byte(missingName)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metadata.name")
	assert.Contains(t, err.Error(), "document[0][0]")
}

func Test_Load_MixedActions(t *testing.T) {
	document := `
apiVersion: kyverno.io/v1
kind: ClusterPolicy
metadata:
  name: mixed
spec:
  rules:
  - name: mixed
    match:
      any:
      - resources:
          kinds:
          - Pod
    mutate:
      overlay:
        metadata:
          labels:
            foo: bar
    validate:
      pattern:
        metadata:
          name: "?*"
`
	err := newStore().Load([][]byte{[]byte(document)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Multiple operations defined in the rule 'mixed'")
}

func Test_PoliciesForKind(t *testing.T) {
	s := newStore()
	require.NoError(t, s.Load([][]byte{[]byte(requireLabels), []byte(anyKind), []byte(addTeam)}))
	snapshot := s.Snapshot()
	names := func(kind string) []string {
		var out []string
		for _, policy := range snapshot.PoliciesForKind(kind) {
			out = append(out, policy.GetName())
		}
		return out
	}
	assert.Equal(t, []string{"require-labels", "deny-delete", "add-team"}, names("Pod"))
	assert.Equal(t, []string{"deny-delete", "add-team"}, names("Deployment"))
	assert.Equal(t, []string{"deny-delete"}, names("ConfigMap"))
}

func Test_Snapshot_IsImmutable(t *testing.T) {
	s := newStore()
	require.NoError(t, s.Load([][]byte{[]byte(requireLabels)}))
	before := s.Snapshot()
	require.NoError(t, s.Load([][]byte{[]byte(addTeam)}))
	assert.Equal(t, 1, before.Len())
	_, err := before.Get("require-labels")
	assert.NoError(t, err)
	_, err = s.Get("require-labels")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, uint64(2), s.Snapshot().Generation())
}

func Test_Load_RecordsChanges(t *testing.T) {
	recorder := &changes{recorded: map[string]string{}}
	s := NewStore(logr.Discard(), recorder)
	require.NoError(t, s.Load([][]byte{[]byte(requireLabels + "---\n" + anyKind)}))
	assert.Equal(t, map[string]string{"require-labels": "created", "deny-delete": "created"}, recorder.recorded)
	recorder.recorded = map[string]string{}
	updated := []byte(`
apiVersion: kyverno.io/v1
kind: ClusterPolicy
metadata:
  name: require-labels
spec:
  validationFailureAction: Audit
  rules:
  - name: check-app
    match:
      any:
      - resources:
          kinds:
          - Pod
    validate:
      pattern:
        metadata:
          labels:
            app: "?*"
`)
	require.NoError(t, s.Load([][]byte{updated}))
	assert.Equal(t, map[string]string{"require-labels": "updated", "deny-delete": "deleted"}, recorder.recorded)
}

func Test_LoadFS(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "policies/b/require-labels.yaml", []byte(requireLabels), 0o644))
	require.NoError(t, util.WriteFile(fs, "policies/a/add-team.yml", []byte(addTeam), 0o644))
	require.NoError(t, util.WriteFile(fs, "policies/README.md", []byte("# policies"), 0o644))
	require.NoError(t, util.WriteFile(fs, "other/deny-delete.yaml", []byte(anyKind), 0o644))
	s := newStore()
	require.NoError(t, s.LoadFS(context.TODO(), fs, "policies"))
	policies := s.Snapshot().Policies()
	require.Len(t, policies, 2)
	// files are loaded in path order
	assert.Equal(t, "add-team", policies[0].GetName())
	assert.Equal(t, "require-labels", policies[1].GetName())
}

func Test_LoadFS_Errors(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "policies/bad.yaml", []byte(missingName), 0o644))
	s := newStore()
	err := s.LoadFS(context.TODO(), fs, "policies")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policies/bad.yaml[0]")
	err = s.LoadFS(context.TODO(), fs, "missing")
	require.Error(t, err)
	assert.Equal(t, uint64(0), s.Snapshot().Generation())
}

func Test_Reloader(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "policies/require-labels.yaml", []byte(requireLabels), 0o644))
	s := newStore()
	reload := s.Reloader(fs, "policies")
	require.NoError(t, reload(context.TODO()))
	require.NoError(t, util.WriteFile(fs, "policies/deny-delete.yaml", []byte(anyKind), 0o644))
	require.NoError(t, reload(context.TODO()))
	assert.Equal(t, 2, s.Snapshot().Len())
	assert.Equal(t, uint64(2), s.Snapshot().Generation())
}
