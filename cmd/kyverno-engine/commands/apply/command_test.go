package apply

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

const requireApp = `
apiVersion: kyverno.io/v1
kind: ClusterPolicy
metadata:
  name: require-app
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

const auditOwner = `
apiVersion: kyverno.io/v1
kind: ClusterPolicy
metadata:
  name: audit-owner
spec:
  validationFailureAction: Audit
  rules:
  - name: check-owner
    match:
      any:
      - resources:
          kinds:
          - Pod
    validate:
      message: label owner is recommended
      pattern:
        metadata:
          labels:
            owner: "?*"
`

const goodPod = `
apiVersion: v1
kind: Pod
metadata:
  name: good
  namespace: dev
  labels:
    app: web
spec:
  containers:
  - name: nginx
    image: nginx:1.25
`

const badPod = `
apiVersion: v1
kind: Pod
metadata:
  name: bad
  namespace: dev
spec:
  containers:
  - name: nginx
    image: nginx:1.25
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runApply(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := Command()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func Test_Apply(t *testing.T) {
	dir := t.TempDir()
	policies := writeFile(t, dir, "policies/require-app.yaml", requireApp)
	writeFile(t, dir, "policies/nested/audit-owner.yml", auditOwner)
	good := writeFile(t, dir, "resources/good.yaml", goodPod)
	both := writeFile(t, dir, "mixed/pods.yaml", goodPod+"\n---\n"+badPod)

	t.Run("allowed", func(t *testing.T) {
		out, err := runApply(t, policies, "--resource", good, "--remove-color")
		assert.NoError(t, err)
		assert.Contains(t, out, "dev/Pod/good: Allow")
		assert.Contains(t, out, "pass: 1, fail: 0, warn: 0, error: 0, skip: 0")
	})
	t.Run("denied", func(t *testing.T) {
		out, err := runApply(t, filepath.Join(dir, "policies"), "--resource", both, "--remove-color")
		assert.EqualError(t, err, "exit as 1 resource(s) denied")
		assert.Contains(t, out, "dev/Pod/bad: Deny")
		assert.Contains(t, out, "require-app -> check-app: Fail")
		assert.Contains(t, out, "allowed: 1, denied: 1")
	})
	t.Run("audit warn", func(t *testing.T) {
		out, err := runApply(t, filepath.Join(dir, "policies"), "--resource", good, "--remove-color", "--audit-warn")
		assert.NoError(t, err)
		assert.Contains(t, out, "audit-owner -> check-owner: Warn")
		assert.Contains(t, out, "pass: 1, fail: 0, warn: 1, error: 0, skip: 0")
	})
	t.Run("table", func(t *testing.T) {
		out, err := runApply(t, policies, "--resource", filepath.Join(dir, "resources"), "--remove-color", "--table")
		assert.NoError(t, err)
		assert.Contains(t, out, "require-app")
		assert.Contains(t, out, "check-app")
		assert.Contains(t, out, "Pass")
	})
	t.Run("yaml", func(t *testing.T) {
		out, err := runApply(t, policies, "--resource", good, "-o", "yaml")
		assert.NoError(t, err)
		documents := strings.Split(strings.TrimPrefix(out, "---\n"), "\n---\n")
		require.Len(t, documents, 1)
		var result verdictResult
		require.NoError(t, yaml.Unmarshal([]byte(documents[0]), &result))
		assert.Equal(t, "Pod", result.Resource.Kind)
		assert.Equal(t, "good", result.Resource.Name)
		assert.Equal(t, "Allow", string(result.Decision))
		require.Len(t, result.Results, 1)
		assert.Equal(t, "require-app", result.Results[0].Policy)
		assert.Equal(t, "pass", result.Results[0].Status)
	})
	t.Run("invalid policy", func(t *testing.T) {
		invalid := writeFile(t, dir, "invalid/policy.yaml", "apiVersion: kyverno.io/v1\nkind: Unknown\nmetadata:\n  name: x\n")
		_, err := runApply(t, invalid, "--resource", good)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load policies")
	})
	t.Run("no resources", func(t *testing.T) {
		empty := t.TempDir()
		_, err := runApply(t, policies, "--resource", empty)
		assert.Error(t, err)
	})
}

func TestApplyCommandConfig_checkArguments(t *testing.T) {
	tests := []struct {
		name    string
		config  ApplyCommandConfig
		want    kyvernov1.AdmissionOperation
		wantErr bool
	}{{
		name:    "no policy",
		config:  ApplyCommandConfig{ResourcePaths: []string{"pod.yaml"}},
		wantErr: true,
	}, {
		name:    "no resource",
		config:  ApplyCommandConfig{PolicyPaths: []string{"policy.yaml"}},
		wantErr: true,
	}, {
		name:   "default operation",
		config: ApplyCommandConfig{PolicyPaths: []string{"policy.yaml"}, ResourcePaths: []string{"pod.yaml"}},
		want:   kyvernov1.Create,
	}, {
		name:   "lower case operation",
		config: ApplyCommandConfig{PolicyPaths: []string{"policy.yaml"}, ResourcePaths: []string{"pod.yaml"}, Operation: "delete"},
		want:   kyvernov1.Delete,
	}, {
		name:    "invalid operation",
		config:  ApplyCommandConfig{PolicyPaths: []string{"policy.yaml"}, ResourcePaths: []string{"pod.yaml"}, Operation: "PATCH"},
		wantErr: true,
	}, {
		name:    "invalid output",
		config:  ApplyCommandConfig{PolicyPaths: []string{"policy.yaml"}, ResourcePaths: []string{"pod.yaml"}, OutputFormat: "json"},
		wantErr: true,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.config.checkArguments()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_parseGitSource(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantRepo string
		wantDir  string
		wantErr  bool
	}{{
		name:     "repository root",
		path:     "https://github.com/kyverno/policies",
		wantRepo: "https://github.com/kyverno/policies",
		wantDir:  "/",
	}, {
		name:     "directory",
		path:     "https://github.com/kyverno/policies/best-practices/require-labels/",
		wantRepo: "https://github.com/kyverno/policies",
		wantDir:  "/best-practices/require-labels",
	}, {
		name:    "missing repository",
		path:    "https://github.com/kyverno",
		wantErr: true,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, dir, err := parseGitSource(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantRepo, repo)
			assert.Equal(t, tt.wantDir, dir)
		})
	}
}

func Test_isGit(t *testing.T) {
	assert.True(t, isGit("https://github.com/kyverno/policies"))
	assert.True(t, isGit("http://gitea.local/org/repo"))
	assert.False(t, isGit("/path/to/policies"))
	assert.False(t, isGit("policies/require-labels.yaml"))
}
