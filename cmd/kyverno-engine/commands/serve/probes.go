package serve

import (
	"github.com/kyverno/admission-engine/pkg/policystore"
)

type probes struct {
	store *policystore.Store
}

func (p probes) IsReady() bool {
	// the first load has completed
	return p.store.Snapshot().Generation() > 0
}

func (p probes) IsLive() bool {
	return true
}
