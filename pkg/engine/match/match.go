package match

import (
	"fmt"

	"github.com/go-logr/logr"
	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
	kubeutils "github.com/kyverno/admission-engine/pkg/utils/kube"
	"github.com/kyverno/admission-engine/pkg/utils/wildcard"
	"go.uber.org/multierr"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// PolicySet is an ordered set of policies
type PolicySet interface {
	// PoliciesForKind returns, in load order, the policies that may hold rules matching the kind
	PoliciesForKind(kind string) []kyvernov1.PolicyInterface
}

// RuleRef points to a rule applicable to a resource
type RuleRef struct {
	Policy    kyvernov1.PolicyInterface
	RuleIndex int
	Rule      kyvernov1.Rule
}

// PolicyKey returns the policy cache key, `namespace/name` for namespaced policies
func (r RuleRef) PolicyKey() string {
	return PolicyKey(r.Policy)
}

// PolicyKey returns the cache key of a policy
func PolicyKey(policy kyvernov1.PolicyInterface) string {
	if policy.IsNamespaced() {
		return policy.GetNamespace() + "/" + policy.GetName()
	}
	return policy.GetName()
}

// MatchError reports a rule whose selectors could not be evaluated, the rule never matches
type MatchError struct {
	Policy string
	Rule   string
	Err    error
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("failed to match rule %s/%s: %v", e.Policy, e.Rule, e.Err)
}

func (e *MatchError) Unwrap() error {
	return e.Err
}

// Matcher selects the rules applicable to a resource
type Matcher struct {
	log       logr.Logger
	selectors *selectorCache
}

// NewMatcher creates a matcher with a label selector cache
func NewMatcher(log logr.Logger) (*Matcher, error) {
	selectors, err := newSelectorCache()
	if err != nil {
		return nil, err
	}
	return &Matcher{log: log, selectors: selectors}, nil
}

// ApplicableRules returns the rules applicable to the resource, policies in load order
// and rules in declaration order. Rules with malformed selectors are skipped and
// reported in the returned error, they never prevent other rules from matching.
func (m *Matcher) ApplicableRules(resource engineapi.Resource, policies PolicySet) ([]RuleRef, error) {
	var refs []RuleRef
	var errs []error
	if policies == nil {
		return nil, nil
	}
	for _, policy := range policies.PoliciesForKind(resource.Kind()) {
		if policy.IsNamespaced() && policy.GetNamespace() != resource.ScopeNamespace() {
			continue
		}
		for i, rule := range policy.GetSpec().Rules {
			matched, err := m.MatchesRule(resource, rule)
			if err != nil {
				matchErr := &MatchError{Policy: PolicyKey(policy), Rule: rule.Name, Err: err}
				m.log.Error(matchErr, "rule never matches", "policy", PolicyKey(policy), "rule", rule.Name)
				errs = append(errs, matchErr)
				continue
			}
			if matched {
				refs = append(refs, RuleRef{Policy: policy, RuleIndex: i, Rule: rule})
			}
		}
	}
	return refs, multierr.Combine(errs...)
}

// MatchesRule checks the resource satisfies the rule match block and none of its exclude filters
func (m *Matcher) MatchesRule(resource engineapi.Resource, rule kyvernov1.Rule) (bool, error) {
	matched, err := m.matchesResources(resource, rule.MatchResources)
	if err != nil || !matched {
		return false, err
	}
	if rule.ExcludeResources == nil {
		return true, nil
	}
	excluded, err := m.matchesResources(resource, *rule.ExcludeResources)
	if err != nil {
		return false, err
	}
	if excluded {
		m.log.V(4).Info("resource excluded", "rule", rule.Name, "resource", resource.Spec().String())
	}
	return !excluded, nil
}

func (m *Matcher) matchesResources(resource engineapi.Resource, resources kyvernov1.MatchResources) (bool, error) {
	if len(resources.Any) > 0 {
		var errs []error
		for _, filter := range resources.Any {
			matched, err := m.matchesFilter(resource, filter)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if matched {
				return true, nil
			}
		}
		return false, multierr.Combine(errs...)
	}
	if len(resources.All) > 0 {
		for _, filter := range resources.All {
			matched, err := m.matchesFilter(resource, filter)
			if err != nil {
				return false, err
			}
			if !matched {
				return false, nil
			}
		}
		return true, nil
	}
	// an empty match selects nothing, an empty exclude excludes nothing
	return false, nil
}

// matchesFilter checks all the fields declared in the filter, they are ANDed
func (m *Matcher) matchesFilter(resource engineapi.Resource, filter kyvernov1.ResourceFilter) (bool, error) {
	description := filter.ResourceDescription
	if description.IsEmpty() {
		return false, nil
	}
	if len(description.Kinds) > 0 && !checkKind(description.Kinds, resource.GroupVersionKind()) {
		return false, nil
	}
	if len(description.Names) > 0 && !wildcard.MatchAny(description.Names, resource.Name()) {
		return false, nil
	}
	if len(description.Namespaces) > 0 && !checkNameSpace(description.Namespaces, resource) {
		return false, nil
	}
	if len(description.Operations) > 0 && !checkOperation(description.Operations, resource.GetOperation()) {
		return false, nil
	}
	if description.Selector != nil {
		matched, err := m.selectors.checkSelector(description.Selector, resource.Labels())
		if err != nil {
			return false, fmt.Errorf("failed to parse selector: %w", err)
		}
		if !matched {
			return false, nil
		}
	}
	if description.NamespaceSelector != nil {
		namespaceLabels := resource.NamespaceLabels
		if resource.Kind() == "Namespace" {
			namespaceLabels = resource.Labels()
		}
		matched, err := m.selectors.checkSelector(description.NamespaceSelector, namespaceLabels)
		if err != nil {
			return false, fmt.Errorf("failed to parse namespace selector: %w", err)
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

// checkKind checks if the resource kind matches one of the kind selectors
func checkKind(kinds []string, gvk schema.GroupVersionKind) bool {
	for _, k := range kinds {
		if k == "*" {
			return true
		}
		group, version, kind := kubeutils.ParseKindSelector(k)
		if wildcard.Match(group, gvk.Group) && wildcard.Match(version, gvk.Version) && wildcard.Match(kind, gvk.Kind) {
			return true
		}
	}
	return false
}

func checkNameSpace(namespaces []string, resource engineapi.Resource) bool {
	return wildcard.MatchAny(namespaces, resource.ScopeNamespace())
}

func checkOperation(operations []kyvernov1.AdmissionOperation, operation kyvernov1.AdmissionOperation) bool {
	for _, op := range operations {
		if op == operation {
			return true
		}
	}
	return false
}
