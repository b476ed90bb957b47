package policystore

import (
	"fmt"

	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	extyaml "github.com/kyverno/admission-engine/ext/yaml"
	"github.com/kyverno/admission-engine/pkg/engine/match"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

// source is a named blob of YAML documents
type source struct {
	name string
	data []byte
}

// decode parses every policy of the sources, errors are collected and not returned early
func decode(sources ...source) ([]kyvernov1.PolicyInterface, error) {
	var policies []kyvernov1.PolicyInterface
	var errs []error
	keys := map[string]string{}
	for _, src := range sources {
		documents, err := extyaml.SplitDocuments(src.data)
		if err != nil {
			errs = append(errs, &DocumentError{Source: src.name, Err: fmt.Errorf("failed to split documents: %w", err)})
			continue
		}
		for i, document := range documents {
			policy, err := decodePolicy(document)
			if err != nil {
				errs = append(errs, &DocumentError{Source: src.name, Index: i, Err: err})
				continue
			}
			key := match.PolicyKey(policy)
			location := fmt.Sprintf("%s[%d]", src.name, i)
			if previous, ok := keys[key]; ok {
				errs = append(errs, &DocumentError{Source: src.name, Index: i, Err: fmt.Errorf("duplicate policy %s, already declared in %s", key, previous)})
				continue
			}
			keys[key] = location
			policies = append(policies, policy)
		}
	}
	if err := newParseError(errs...); err != nil {
		return nil, err
	}
	return policies, nil
}

func decodePolicy(document []byte) (kyvernov1.PolicyInterface, error) {
	var meta metav1.TypeMeta
	if err := yaml.Unmarshal(document, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if meta.APIVersion != "" && meta.APIVersion != kyvernov1.GroupVersion.String() {
		return nil, fmt.Errorf("unsupported apiVersion %s", meta.APIVersion)
	}
	var policy kyvernov1.PolicyInterface
	switch meta.Kind {
	case "ClusterPolicy":
		policy = &kyvernov1.ClusterPolicy{}
	case "Policy":
		policy = &kyvernov1.Policy{}
	case "":
		return nil, fmt.Errorf("document kind is required")
	default:
		return nil, fmt.Errorf("unknown kind %s", meta.Kind)
	}
	if err := yaml.UnmarshalStrict(document, policy); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", meta.Kind, err)
	}
	if errs := policy.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid %s %s: %w", meta.Kind, policy.GetName(), errs.ToAggregate())
	}
	return policy, nil
}
