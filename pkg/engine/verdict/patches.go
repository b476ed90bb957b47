package verdict

import (
	"encoding/json"
	"sort"
	"strings"

	"gomodules.xyz/jsonpatch/v2"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func createPatches(original, patched unstructured.Unstructured) ([]jsonpatch.Operation, error) {
	originalJSON, err := json.Marshal(original.Object)
	if err != nil {
		return nil, err
	}
	patchedJSON, err := json.Marshal(patched.Object)
	if err != nil {
		return nil, err
	}
	patches, err := jsonpatch.CreatePatch(originalJSON, patchedJSON)
	if err != nil {
		return nil, err
	}
	if len(patches) == 0 {
		return nil, nil
	}
	entries := make([]patchEntry, 0, len(patches))
	for _, patch := range patches {
		entries = append(entries, patchEntry{segments: splitPointer(patch.Path), op: patch})
	}
	sortEntries(entries, 0, original.Object)
	out := make([]jsonpatch.Operation, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.op)
	}
	return out, nil
}

type patchEntry struct {
	segments []string
	op       jsonpatch.Operation
}

// sortEntries orders the patches of sibling object keys by key name.
// The diff emits the operations of one key contiguously but visits keys in map order,
// operations on array elements keep their order since indexes depend on it.
func sortEntries(entries []patchEntry, depth int, doc interface{}) {
	groups := groupEntries(entries, depth)
	if object, ok := doc.(map[string]interface{}); ok {
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].key < groups[j].key
		})
		for _, group := range groups {
			if child, ok := object[group.key]; ok {
				sortEntries(group.entries, depth+1, child)
			}
		}
	} else if array, ok := doc.([]interface{}); ok {
		for _, group := range groups {
			if index, ok := arrayIndex(group.key, len(array)); ok {
				sortEntries(group.entries, depth+1, array[index])
			}
		}
	}
	i := 0
	for _, group := range groups {
		i += copy(entries[i:], group.entries)
	}
}

type entryGroup struct {
	key     string
	entries []patchEntry
}

// groupEntries splits entries in contiguous runs sharing the segment at depth.
// Entries targeting the prefix itself form their own group.
func groupEntries(entries []patchEntry, depth int) []entryGroup {
	var groups []entryGroup
	for _, entry := range entries {
		key := ""
		if len(entry.segments) > depth {
			key = entry.segments[depth]
		}
		if n := len(groups); n > 0 && groups[n-1].key == key && len(entry.segments) > depth {
			groups[n-1].entries = append(groups[n-1].entries, entry)
			continue
		}
		groups = append(groups, entryGroup{key: key, entries: []patchEntry{entry}})
	}
	return groups
}

func arrayIndex(segment string, length int) (int, bool) {
	index := 0
	if segment == "" {
		return 0, false
	}
	for _, c := range segment {
		if c < '0' || c > '9' {
			return 0, false
		}
		index = index*10 + int(c-'0')
	}
	return index, index < length
}

func splitPointer(path string) []string {
	if path == "" || path == "/" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i := range parts {
		parts[i] = strings.ReplaceAll(strings.ReplaceAll(parts[i], "~1", "/"), "~0", "~")
	}
	return parts
}
