package jsonutils

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

var pathEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// JoinPath appends a key to a JSON pointer path, escaping it as RFC 6901 requires.
func JoinPath(path, key string) string {
	return path + "/" + pathEscaper.Replace(key)
}

// SortedKeys returns the keys of a JSON object in lexicographic order.
func SortedKeys(object map[string]interface{}) []string {
	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// DocumentToUntyped converts a typed object to JSON data
// i.e. string, []interface{}, map[string]interface{}
func DocumentToUntyped(doc interface{}) (interface{}, error) {
	switch v := doc.(type) {
	case map[string]interface{}, []interface{}, string, bool, float64, int64, nil:
		return v, nil
	default:
		jsonData, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal document: %v", err)
		}
		var untyped interface{}
		if err := json.Unmarshal(jsonData, &untyped); err != nil {
			return nil, fmt.Errorf("failed to unmarshal JSON: %v", err)
		}
		return untyped, nil
	}
}
