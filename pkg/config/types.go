package config

import (
	"regexp"
	"strings"

	"github.com/kyverno/admission-engine/pkg/utils/kube"
	"github.com/kyverno/admission-engine/pkg/utils/wildcard"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

var filterRegex = regexp.MustCompile(`\[([^\[\]]*)\]`)

type filter struct {
	Group     string
	Version   string
	Kind      string
	Namespace string
	Name      string
}

func newFilter(kind, namespace, name string) filter {
	if kind == "" {
		return filter{}
	}
	g, v, k := kube.ParseKindSelector(kind)
	return filter{
		Group:     g,
		Version:   v,
		Kind:      k,
		Namespace: namespace,
		Name:      name,
	}
}

func (f filter) matches(gvk schema.GroupVersionKind, namespace, name string) bool {
	if f.Kind == "" {
		return false
	}
	return wildcard.Match(f.Group, gvk.Group) &&
		wildcard.Match(f.Version, gvk.Version) &&
		wildcard.Match(f.Kind, gvk.Kind) &&
		f.matchesNamespace(namespace) &&
		wildcard.Match(f.Name, name)
}

func (f filter) matchesNamespace(namespace string) bool {
	return wildcard.Match(f.Namespace, namespace)
}

// parseKinds parses the kinds if a single string contains comma separated kinds
// "[Event,*,*][*,kube-system,*]" => {Event,*,*} {*,kube-system,*}
func parseKinds(in string) []filter {
	resources := []filter{}
	for _, element := range filterRegex.FindAllString(in, -1) {
		element = strings.Trim(element, "[")
		element = strings.Trim(element, "]")
		elements := strings.Split(element, ",")
		for i := range elements {
			elements[i] = strings.TrimSpace(elements[i])
		}
		var resource filter
		switch len(elements) {
		case 3:
			resource = newFilter(elements[0], elements[1], elements[2])
		case 2:
			resource = newFilter(elements[0], elements[1], "*")
		case 1:
			resource = newFilter(elements[0], "*", "*")
		default:
			continue
		}
		resources = append(resources, resource)
	}
	return resources
}
