package wildcards

import (
	"sort"
	"strings"

	"github.com/kyverno/admission-engine/pkg/engine/anchor"
	"github.com/kyverno/admission-engine/pkg/utils/wildcard"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ReplaceInSelector returns a copy of the label selector where keys and values containing
// wildcard characters are replaced with the matching keys and values from the resource labels.
func ReplaceInSelector(labelSelector *metav1.LabelSelector, resourceLabels map[string]string) *metav1.LabelSelector {
	out := labelSelector.DeepCopy()
	out.MatchLabels = replaceWildcardsInMapKeyValues(labelSelector.MatchLabels, resourceLabels)
	return out
}

// replaceWildcardsInMapKeyValues will expand the "key" and "value" and will replace wildcard characters
// It also does not handle anchors as these are not expected in selectors
func replaceWildcardsInMapKeyValues(patternMap map[string]string, resourceMap map[string]string) map[string]string {
	if patternMap == nil {
		return nil
	}
	result := map[string]string{}
	for k, v := range patternMap {
		if wildcard.ContainsWildcard(k) || wildcard.ContainsWildcard(v) {
			matchK, matchV := expandWildcards(k, v, resourceMap, true, true)
			result[matchK] = matchV
		} else {
			result[k] = v
		}
	}
	return result
}

func expandWildcards(k, v string, resourceMap map[string]string, matchValue, replace bool) (key string, val string) {
	// iterate in a stable order so that the same expansion is picked every time
	keys := make([]string, 0, len(resourceMap))
	for k1 := range resourceMap {
		keys = append(keys, k1)
	}
	sort.Strings(keys)
	for _, k1 := range keys {
		v1 := resourceMap[k1]
		if wildcard.Match(k, k1) {
			if !matchValue {
				return k1, v1
			} else if wildcard.Match(v, v1) {
				return k1, v1
			}
		}
	}
	if replace {
		k = replaceWildCardChars(k)
		v = replaceWildCardChars(v)
	}
	return k, v
}

// replaceWildCardChars will replace '*' and '?' characters which are not
// supported by Kubernetes with a '0'.
func replaceWildCardChars(s string) string {
	s = strings.ReplaceAll(s, "*", "0")
	s = strings.ReplaceAll(s, "?", "0")
	return s
}

// ExpandInMetadata substitutes wildcard characters in map keys for metadata.labels and
// metadata.annotations that are present in a validation pattern. Values are not substituted
// here, as they are evaluated separately while processing the validation pattern.
// The pattern map is never modified, a new map is returned when an expansion happens.
func ExpandInMetadata(patternMap, resourceMap map[string]interface{}) map[string]interface{} {
	metadataKey, patternMetadata := getPatternValue("metadata", patternMap)
	metadata, ok := patternMetadata.(map[string]interface{})
	if !ok {
		return patternMap
	}
	resourceMetadata, ok := resourceMap["metadata"].(map[string]interface{})
	if !ok {
		return patternMap
	}
	var expanded map[string]interface{}
	for _, tag := range []string{"labels", "annotations"} {
		tagKey, values := expandWildcardsInTag(tag, metadata, resourceMetadata)
		if values == nil {
			continue
		}
		if expanded == nil {
			expanded = make(map[string]interface{}, len(metadata))
			for k, v := range metadata {
				expanded[k] = v
			}
		}
		expanded[tagKey] = values
	}
	if expanded == nil {
		return patternMap
	}
	out := make(map[string]interface{}, len(patternMap))
	for k, v := range patternMap {
		out[k] = v
	}
	out[metadataKey] = expanded
	return out
}

func getPatternValue(tag string, pattern map[string]interface{}) (string, interface{}) {
	for k, v := range pattern {
		if anchor.RemoveAnchor(k) == tag {
			return k, v
		}
	}
	return "", nil
}

func expandWildcardsInTag(tag string, patternMetadata, resourceMetadata map[string]interface{}) (string, map[string]interface{}) {
	patternKey, patternData := getPatternValue(tag, patternMetadata)
	typedPattern, ok := patternData.(map[string]interface{})
	if !ok {
		return "", nil
	}
	hasWildcardKey := false
	for k := range typedPattern {
		if wildcard.ContainsWildcard(anchor.RemoveAnchor(k)) {
			hasWildcardKey = true
			break
		}
	}
	if !hasWildcardKey {
		return "", nil
	}
	_, resourceData := getValueAsStringMap(tag, resourceMetadata)
	results := map[string]interface{}{}
	for k, v := range typedPattern {
		a := anchor.Parse(k)
		anchorFreeKey := anchor.RemoveAnchor(k)
		if wildcard.ContainsWildcard(anchorFreeKey) {
			matchK, _ := expandWildcards(anchorFreeKey, "", resourceData, false, false)
			if a != nil {
				matchK = anchor.String(a.Type(), matchK)
			}
			results[matchK] = v
		} else {
			results[k] = v
		}
	}
	return patternKey, results
}

func getValueAsStringMap(key string, data interface{}) (string, map[string]string) {
	dataMap, ok := data.(map[string]interface{})
	if !ok {
		return "", nil
	}
	patternKey, val := getPatternValue(key, dataMap)
	valMap, ok := val.(map[string]interface{})
	if !ok {
		return "", nil
	}
	result := map[string]string{}
	for k, v := range valMap {
		if s, ok := v.(string); ok {
			result[k] = s
		}
	}
	return patternKey, result
}
