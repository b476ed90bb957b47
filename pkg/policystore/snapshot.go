package policystore

import (
	"sort"

	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	"github.com/kyverno/admission-engine/pkg/engine/match"
	kubeutils "github.com/kyverno/admission-engine/pkg/utils/kube"
	"github.com/kyverno/admission-engine/pkg/utils/wildcard"
)

// Snapshot is an immutable view of the active policy set.
// It is safe for concurrent use and stays valid after the store is reloaded.
type Snapshot struct {
	generation uint64
	policies   []kyvernov1.PolicyInterface
	keys       map[string]int
	// kinds stores, per kind, the indices of the policies having a rule matching the kind
	kinds map[string][]int
	// any stores the indices of the policies having a rule that may match any kind
	any []int
}

func newSnapshot(generation uint64, policies []kyvernov1.PolicyInterface) *Snapshot {
	s := &Snapshot{
		generation: generation,
		policies:   policies,
		keys:       make(map[string]int, len(policies)),
		kinds:      map[string][]int{},
	}
	for i, policy := range policies {
		s.keys[match.PolicyKey(policy)] = i
		kinds, anyKind := policyKinds(policy)
		if anyKind {
			s.any = append(s.any, i)
			continue
		}
		for kind := range kinds {
			s.kinds[kind] = append(s.kinds[kind], i)
		}
	}
	return s
}

// policyKinds returns the kinds a policy may apply to, anyKind is set when a rule is not bound to a kind
func policyKinds(policy kyvernov1.PolicyInterface) (kinds map[string]struct{}, anyKind bool) {
	kinds = map[string]struct{}{}
	for _, rule := range policy.GetSpec().Rules {
		for _, filter := range rule.MatchResources.Filters() {
			if len(filter.Kinds) == 0 {
				return nil, true
			}
			for _, k := range filter.Kinds {
				_, _, kind := kubeutils.ParseKindSelector(k)
				if wildcard.ContainsWildcard(kind) {
					return nil, true
				}
				kinds[kind] = struct{}{}
			}
		}
	}
	return kinds, false
}

// Generation is incremented on every successful load
func (s *Snapshot) Generation() uint64 {
	return s.generation
}

// Len returns the number of policies
func (s *Snapshot) Len() int {
	return len(s.policies)
}

// Policies returns the policies in load order
func (s *Snapshot) Policies() []kyvernov1.PolicyInterface {
	out := make([]kyvernov1.PolicyInterface, len(s.policies))
	copy(out, s.policies)
	return out
}

// Get returns a policy by key, namespaced policies are keyed `namespace/name`
func (s *Snapshot) Get(name string) (kyvernov1.PolicyInterface, error) {
	i, ok := s.keys[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return s.policies[i], nil
}

// PoliciesForKind returns, in load order, the policies that may hold rules matching the kind
func (s *Snapshot) PoliciesForKind(kind string) []kyvernov1.PolicyInterface {
	indices := make([]int, 0, len(s.kinds[kind])+len(s.any))
	indices = append(indices, s.kinds[kind]...)
	indices = append(indices, s.any...)
	sort.Ints(indices)
	out := make([]kyvernov1.PolicyInterface, 0, len(indices))
	for i, index := range indices {
		if i > 0 && indices[i-1] == index {
			continue
		}
		out = append(out, s.policies[index])
	}
	return out
}
