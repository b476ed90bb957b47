package policystore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	"github.com/kyverno/admission-engine/pkg/engine/match"
	"github.com/kyverno/admission-engine/pkg/metrics"
	"github.com/kyverno/admission-engine/pkg/metrics/policychanges"
	"k8s.io/apimachinery/pkg/api/equality"
)

// Store holds the active policy set.
// Loads are serialized and replace the whole set at once, readers never observe a partial set.
type Store struct {
	log      logr.Logger
	metrics  metrics.MetricsConfigManager
	lock     sync.Mutex
	snapshot atomic.Pointer[Snapshot]
}

// NewStore creates an empty store, the metrics manager is optional
func NewStore(log logr.Logger, metricsManager metrics.MetricsConfigManager) *Store {
	s := &Store{
		log:     log,
		metrics: metricsManager,
	}
	s.snapshot.Store(newSnapshot(0, nil))
	return s
}

// Load parses a batch of YAML documents and, if every policy is valid, replaces the active set.
// On error the active set is left unchanged and a *ParseError is returned.
func (s *Store) Load(documents [][]byte) error {
	sources := make([]source, 0, len(documents))
	for i, document := range documents {
		sources = append(sources, source{name: fmt.Sprintf("document[%d]", i), data: document})
	}
	return s.load(context.TODO(), sources...)
}

func (s *Store) load(ctx context.Context, sources ...source) error {
	policies, err := decode(sources...)
	if err != nil {
		s.log.Error(err, "policies rejected, keeping the active set", "generation", s.Snapshot().Generation())
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	previous := s.snapshot.Load()
	next := newSnapshot(previous.generation+1, policies)
	s.snapshot.Store(next)
	s.recordChanges(ctx, previous, next)
	s.log.V(2).Info("policies loaded", "count", next.Len(), "generation", next.Generation())
	return nil
}

func (s *Store) recordChanges(ctx context.Context, previous, next *Snapshot) {
	for _, policy := range next.policies {
		old, err := previous.Get(match.PolicyKey(policy))
		switch {
		case err != nil:
			policychanges.RegisterPolicy(ctx, s.metrics, policy, policychanges.PolicyCreated)
		case !equality.Semantic.DeepEqual(old.GetSpec(), policy.GetSpec()):
			policychanges.RegisterPolicy(ctx, s.metrics, policy, policychanges.PolicyUpdated)
		}
	}
	for _, policy := range previous.policies {
		if _, err := next.Get(match.PolicyKey(policy)); err != nil {
			policychanges.RegisterPolicy(ctx, s.metrics, policy, policychanges.PolicyDeleted)
		}
	}
}

// Snapshot returns the active policy set
func (s *Store) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Get returns a policy of the active set, namespaced policies are keyed `namespace/name`
func (s *Store) Get(name string) (kyvernov1.PolicyInterface, error) {
	return s.Snapshot().Get(name)
}

// PoliciesForKind returns the policies of the active set that may apply to the kind
func (s *Store) PoliciesForKind(kind string) []kyvernov1.PolicyInterface {
	return s.Snapshot().PoliciesForKind(kind)
}
