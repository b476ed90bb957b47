package validate

import (
	"sort"

	"github.com/kyverno/admission-engine/pkg/engine/anchor"
)

// Checks if pattern has anchors
func hasNestedAnchors(pattern interface{}) bool {
	switch typed := pattern.(type) {
	case map[string]interface{}:
		for key, value := range typed {
			if a := anchor.Parse(key); anchor.IsOneOf(a, anchor.Condition, anchor.Global, anchor.Existence, anchor.Equality, anchor.Negation) {
				return true
			}
			if hasNestedAnchors(value) {
				return true
			}
		}
		return false
	case []interface{}:
		for _, value := range typed {
			if hasNestedAnchors(value) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// sortedNestedAnchorResources orders plain keys, keys holding nested anchors come first
// so that conditions are evaluated before plain checks. Each group is sorted.
func sortedNestedAnchorResources(patternMap map[string]interface{}, keys []string) []string {
	var withAnchors, withoutAnchors []string
	for _, key := range keys {
		if hasNestedAnchors(patternMap[key]) {
			withAnchors = append(withAnchors, key)
		} else {
			withoutAnchors = append(withoutAnchors, key)
		}
	}
	sort.Strings(withAnchors)
	sort.Strings(withoutAnchors)
	return append(withAnchors, withoutAnchors...)
}
