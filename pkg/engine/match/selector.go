package match

import (
	"encoding/json"

	"github.com/dgraph-io/ristretto"
	"github.com/kyverno/admission-engine/pkg/engine/wildcards"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
)

// selectorCache keeps converted label selectors, keyed by their JSON form
type selectorCache struct {
	store *ristretto.Cache
}

func newSelectorCache() (*selectorCache, error) {
	config := ristretto.Config{
		MaxCost:     10 * 1000, // 10k selectors
		NumCounters: 100 * 1000,
		BufferItems: 64,
	}
	store, err := ristretto.NewCache(&config)
	if err != nil {
		return nil, err
	}
	return &selectorCache{store: store}, nil
}

func (c *selectorCache) get(labelSelector *metav1.LabelSelector) (labels.Selector, error) {
	key, err := json.Marshal(labelSelector)
	if err != nil {
		return nil, err
	}
	if c != nil {
		if cached, ok := c.store.Get(string(key)); ok {
			if selector, ok := cached.(labels.Selector); ok {
				return selector, nil
			}
		}
	}
	selector, err := metav1.LabelSelectorAsSelector(labelSelector)
	if err != nil {
		return nil, err
	}
	if c != nil {
		c.store.Set(string(key), selector, 1)
	}
	return selector, nil
}

// checkSelector checks the labels against a selector, wildcards in the selector are expanded first
func (c *selectorCache) checkSelector(labelSelector *metav1.LabelSelector, resourceLabels map[string]string) (bool, error) {
	replaced := wildcards.ReplaceInSelector(labelSelector, resourceLabels)
	selector, err := c.get(replaced)
	if err != nil {
		return false, err
	}
	return selector.Matches(labels.Set(resourceLabels)), nil
}
