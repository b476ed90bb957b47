package mutate

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/kyverno/admission-engine/pkg/engine/anchor"
	"github.com/kyverno/admission-engine/pkg/engine/jsonutils"
	"github.com/kyverno/admission-engine/pkg/engine/validate"
	"github.com/kyverno/admission-engine/pkg/utils/wildcard"
)

// Options tunes overlay processing.
type Options struct {
	// AppendPaths are wildcard paths where overlay sequences are appended to the resource sequence.
	AppendPaths []string
}

// ProcessOverlay merges the overlay into the resource and returns the mutated copy.
// Objects merge recursively, sequences replace the resource sequence unless the path is an append path,
// `+(key)` adds a key only when absent and `(key)` / `<(key)` are conditions.
// A null overlay value removes the key.
// The returned error is a *ConditionError when conditions are not met and a *MutationError
// when the overlay does not fit the resource.
func ProcessOverlay(log logr.Logger, resource map[string]interface{}, overlay interface{}, options Options) (map[string]interface{}, error) {
	typedOverlay, ok := overlay.(map[string]interface{})
	if !ok {
		return nil, newMutationError("", "overlay must be an object, found %T", overlay)
	}
	o := overlayer{log: log, appendPaths: options.AppendPaths}
	patched, err := o.applyOverlayToMap(resource, typedOverlay, "")
	if err != nil {
		return nil, err
	}
	return patched, nil
}

type overlayer struct {
	log         logr.Logger
	appendPaths []string
}

// applyOverlay detects type of current item and goes down through overlay and resource trees applying overlay
func (o overlayer) applyOverlay(resource, overlay interface{}, path string) (interface{}, error) {
	switch typedOverlay := overlay.(type) {
	case map[string]interface{}:
		if resource == nil {
			return o.newElement(typedOverlay, path)
		}
		typedResource, ok := resource.(map[string]interface{})
		if !ok {
			return nil, newMutationError(path, "overlay expects an object, resource has %s", typeName(resource))
		}
		return o.applyOverlayToMap(typedResource, typedOverlay, path)
	case []interface{}:
		if resource == nil {
			return o.newElement(typedOverlay, path)
		}
		typedResource, ok := resource.([]interface{})
		if !ok {
			return nil, newMutationError(path, "overlay expects an array, resource has %s", typeName(resource))
		}
		return o.applyOverlayToArray(typedResource, typedOverlay, path)
	case string, float64, int, int64, bool:
		switch resource.(type) {
		case map[string]interface{}, []interface{}:
			return nil, newMutationError(path, "overlay expects a scalar, resource has %s", typeName(resource))
		}
		return typedOverlay, nil
	default:
		return nil, newMutationError(path, "overlay has unsupported type %T", overlay)
	}
}

// for each overlay and resource map elements applies overlay
func (o overlayer) applyOverlayToMap(resourceMap, overlayMap map[string]interface{}, path string) (map[string]interface{}, error) {
	if err := o.checkConditions(resourceMap, overlayMap, path); err != nil {
		return nil, err
	}
	patched := make(map[string]interface{}, len(resourceMap)+len(overlayMap))
	for key, value := range resourceMap {
		patched[key] = value
	}
	for _, key := range jsonutils.SortedKeys(overlayMap) {
		value := overlayMap[key]
		a := anchor.Parse(key)
		switch {
		case a == nil:
			currentPath := jsonutils.JoinPath(path, key)
			if value == nil {
				delete(patched, key)
				continue
			}
			merged, err := o.applyOverlay(resourceMap[key], value, currentPath)
			if err != nil {
				return nil, err
			}
			patched[key] = merged
		case anchor.IsCondition(a), anchor.IsGlobal(a):
			// conditions are checked, not merged
		case anchor.IsAddIfNotPresent(a):
			if _, ok := resourceMap[a.Key()]; ok {
				continue
			}
			added, err := o.newElement(value, jsonutils.JoinPath(path, a.Key()))
			if err != nil {
				return nil, err
			}
			patched[a.Key()] = added
		default:
			return nil, newMutationError(jsonutils.JoinPath(path, a.Key()), "anchor %s is not supported in overlays", key)
		}
	}
	return patched, nil
}

// checkConditions validates the condition anchors of an overlay map against the resource map
func (o overlayer) checkConditions(resourceMap, overlayMap map[string]interface{}, path string) error {
	for _, key := range jsonutils.SortedKeys(overlayMap) {
		a := anchor.Parse(key)
		if !anchor.IsCondition(a) && !anchor.IsGlobal(a) {
			continue
		}
		currentPath := jsonutils.JoinPath(path, a.Key())
		value, ok := resourceMap[a.Key()]
		if !ok {
			if anchor.IsGlobal(a) {
				continue
			}
			return &ConditionError{Path: currentPath, Err: fmt.Errorf("%s not found", currentPath)}
		}
		if err := validate.MatchPattern(o.log, value, overlayMap[key], validate.Options{}); err != nil {
			o.log.V(4).Info("overlay condition not met", "path", currentPath, "reason", err.Error())
			return &ConditionError{Path: currentPath, Err: err}
		}
	}
	return nil
}

func (o overlayer) applyOverlayToArray(resource, overlay []interface{}, path string) ([]interface{}, error) {
	if wildcard.MatchAny(o.appendPaths, displayPath(path)) {
		return o.appendToArray(resource, overlay, path)
	}
	if hasConditionalElements(overlay) {
		return o.applyConditionalElements(resource, overlay, path)
	}
	// sequences are replaced wholesale
	replaced, err := o.newElement(overlay, path)
	if err != nil {
		return nil, err
	}
	return replaced.([]interface{}), nil
}

func (o overlayer) appendToArray(resource, overlay []interface{}, path string) ([]interface{}, error) {
	patched := make([]interface{}, len(resource), len(resource)+len(overlay))
	copy(patched, resource)
	for i, element := range overlay {
		added, err := o.newElement(element, path+"/"+strconv.Itoa(len(resource)+i))
		if err != nil {
			return nil, err
		}
		if containsElement(patched, added) {
			continue
		}
		patched = append(patched, added)
	}
	return patched, nil
}

// applyConditionalElements merges each anchored overlay element into every resource element
// meeting its conditions. When no resource element meets them the conditions are not met.
func (o overlayer) applyConditionalElements(resource, overlay []interface{}, path string) ([]interface{}, error) {
	patched := make([]interface{}, len(resource))
	copy(patched, resource)
	var lastErr error
	applied := 0
	for _, overlayElement := range overlay {
		typedOverlay := overlayElement.(map[string]interface{})
		for i, resourceElement := range patched {
			currentPath := path + "/" + strconv.Itoa(i)
			typedResource, ok := resourceElement.(map[string]interface{})
			if !ok {
				return nil, newMutationError(currentPath, "overlay expects an object, resource has %s", typeName(resourceElement))
			}
			merged, err := o.applyOverlayToMap(typedResource, typedOverlay, currentPath)
			if err != nil {
				if IsConditionError(err) {
					lastErr = err
					continue
				}
				return nil, err
			}
			patched[i] = merged
			applied++
		}
	}
	if applied == 0 && lastErr != nil {
		return nil, lastErr
	}
	return patched, nil
}

// newElement builds resource content from an overlay element that has no resource counterpart.
// Add anchors are unwrapped, conditions can not be met on absent content.
func (o overlayer) newElement(overlay interface{}, path string) (interface{}, error) {
	switch typed := overlay.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(typed))
		for _, key := range jsonutils.SortedKeys(typed) {
			a := anchor.Parse(key)
			switch {
			case a == nil:
				if typed[key] == nil {
					continue
				}
				value, err := o.newElement(typed[key], jsonutils.JoinPath(path, key))
				if err != nil {
					return nil, err
				}
				out[key] = value
			case anchor.IsAddIfNotPresent(a):
				value, err := o.newElement(typed[key], jsonutils.JoinPath(path, a.Key()))
				if err != nil {
					return nil, err
				}
				out[a.Key()] = value
			case anchor.IsGlobal(a):
			case anchor.IsCondition(a):
				currentPath := jsonutils.JoinPath(path, a.Key())
				return nil, &ConditionError{Path: currentPath, Err: fmt.Errorf("%s not found", currentPath)}
			default:
				return nil, newMutationError(jsonutils.JoinPath(path, a.Key()), "anchor %s is not supported in overlays", key)
			}
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, 0, len(typed))
		for i, element := range typed {
			value, err := o.newElement(element, path+"/"+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	default:
		return typed, nil
	}
}

// hasConditionalElements returns true if every overlay element is an object with top level conditions
func hasConditionalElements(overlay []interface{}) bool {
	if len(overlay) == 0 {
		return false
	}
	for _, element := range overlay {
		typed, ok := element.(map[string]interface{})
		if !ok {
			return false
		}
		found := false
		for key := range typed {
			if a := anchor.Parse(key); anchor.IsCondition(a) || anchor.IsGlobal(a) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsElement(list []interface{}, element interface{}) bool {
	for _, item := range list {
		if reflect.DeepEqual(item, element) {
			return true
		}
	}
	return false
}

func typeName(value interface{}) string {
	switch value.(type) {
	case map[string]interface{}:
		return "an object"
	case []interface{}:
		return "an array"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("a scalar (%T)", value)
	}
}
