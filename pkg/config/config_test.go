package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/assert"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

var (
	podGVK       = schema.GroupVersionKind{Version: "v1", Kind: "Pod"}
	namespaceGVK = schema.GroupVersionKind{Version: "v1", Kind: "Namespace"}
	eventGVK     = schema.GroupVersionKind{Group: "events.k8s.io", Version: "v1", Kind: "Event"}
)

func Test_parseKinds(t *testing.T) {
	filters := parseKinds("[Event,*,*][apps/v1/Deployment,default][ConfigMap] garbage [a,b,c,d]")
	assert.Equal(t, len(filters), 3)
	assert.DeepEqual(t, filters[0], filter{Group: "*", Version: "*", Kind: "Event", Namespace: "*", Name: "*"})
	assert.DeepEqual(t, filters[1], filter{Group: "apps", Version: "v1", Kind: "Deployment", Namespace: "default", Name: "*"})
	assert.DeepEqual(t, filters[2], filter{Group: "*", Version: "*", Kind: "ConfigMap", Namespace: "*", Name: "*"})
}

func Test_ToFilter_Defaults(t *testing.T) {
	cd := NewDefaultConfiguration()
	assert.Assert(t, cd.ToFilter(eventGVK, "default", "e1"))
	assert.Assert(t, cd.ToFilter(podGVK, "kube-system", "coredns"))
	assert.Assert(t, !cd.ToFilter(podGVK, "default", "nginx"))
	// namespaces are filtered by name
	assert.Assert(t, cd.ToFilter(namespaceGVK, "", "kube-public"))
	assert.Assert(t, !cd.ToFilter(namespaceGVK, "", "team-a"))
}

func Test_Load(t *testing.T) {
	cd, err := NewConfiguration([]byte(`
resourceFilters: "[Pod,scratch-*,*]"
concurrency: 3
failurePolicy: Ignore
webhookTimeout: 2s
logFormat: json
`))
	assert.NilError(t, err)
	assert.Equal(t, cd.GetConcurrency(), 3)
	assert.Equal(t, cd.GetFailurePolicy(), Ignore)
	assert.Equal(t, cd.GetWebhookTimeout(), 2*time.Second)
	assert.Equal(t, cd.GetLogFormat(), "json")
	assert.Assert(t, cd.ToFilter(podGVK, "scratch-1", "p"))
	// defaults are replaced
	assert.Assert(t, !cd.ToFilter(podGVK, "kube-system", "p"))
}

func Test_Load_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown field":  "resourcefilter: x",
		"failure policy": "failurePolicy: Maybe",
		"concurrency":    "concurrency: -1",
		"timeout":        "webhookTimeout: 0s",
		"log format":     "logFormat: xml",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewConfiguration([]byte(doc))
			assert.Assert(t, err != nil)
		})
	}
}

func Test_LoadFile(t *testing.T) {
	cd, err := LoadFile("")
	assert.NilError(t, err)
	assert.Equal(t, cd.GetFailurePolicy(), DefaultFailurePolicy)

	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NilError(t, os.WriteFile(path, []byte("concurrency: 7\n"), 0o600))
	cd, err = LoadFile(path)
	assert.NilError(t, err)
	assert.Equal(t, cd.GetConcurrency(), 7)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read configuration file")
}

func Test_Setters(t *testing.T) {
	cd := NewDefaultConfiguration()
	cd.SetConcurrency(0)
	assert.Assert(t, cd.GetConcurrency() > 0)
	cd.SetConcurrency(2)
	assert.Equal(t, cd.GetConcurrency(), 2)
	cd.SetFailurePolicy(Ignore)
	assert.Equal(t, cd.GetFailurePolicy(), Ignore)
	cd.SetWebhookTimeout(time.Second)
	assert.Equal(t, cd.GetWebhookTimeout(), time.Second)
}
