package validate

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/kyverno/admission-engine/pkg/engine/anchor"
	"github.com/kyverno/admission-engine/pkg/engine/jsonutils"
	"github.com/kyverno/admission-engine/pkg/engine/pattern"
	"github.com/kyverno/admission-engine/pkg/engine/wildcards"
	"github.com/kyverno/admission-engine/pkg/utils/wildcard"
	"go.uber.org/multierr"
)

// PatternError is returned when a resource does not satisfy a pattern.
// Skip is set when the pattern does not apply to the resource because of a condition anchor.
type PatternError struct {
	Err  error
	Path string
	Skip bool
}

func (e *PatternError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// Options tunes pattern matching.
type Options struct {
	// ExhaustivePaths are wildcard paths where the resource may not carry keys absent from the pattern.
	ExhaustivePaths []string
}

type validator struct {
	exhaustivePaths []string
}

// MatchPattern is a start of element-by-element pattern validation process.
// It returns nil or a *PatternError. Traversal is depth first, anchors are evaluated before
// plain keys and keys are visited in lexicographic order, so the reported path is stable.
func MatchPattern(logger logr.Logger, resource, pattern interface{}, options Options) error {
	v := validator{exhaustivePaths: options.ExhaustivePaths}
	elemPath, err := v.validateResourceElement(logger, resource, pattern, pattern, "")
	if err != nil {
		if skip(err) {
			logger.V(2).Info("resource skipped", "reason", err.Error())
			return &PatternError{Err: err, Skip: true}
		}
		if elemPath == "" {
			elemPath = "/"
		}
		logger.V(2).Info("failed to apply rule on resource", "path", elemPath, "msg", err.Error())
		return &PatternError{Err: err, Path: elemPath}
	}
	return nil
}

func skip(err error) bool {
	// if conditional or global anchors report errors, the rule does not apply to the resource
	return anchor.IsSkipError(err)
}

// validateResourceElement detects the element type (map, array, nil, string, int, bool, float)
// and calls corresponding handler
// Pattern tree and resource tree can have different structure. In this case validation fails
func (v validator) validateResourceElement(log logr.Logger, resourceElement, patternElement, originPattern interface{}, path string) (string, error) {
	switch typedPatternElement := patternElement.(type) {
	// map
	case map[string]interface{}:
		typedResourceElement, ok := resourceElement.(map[string]interface{})
		if !ok {
			log.V(4).Info("pattern and resource have different structures", "path", path, "expected", fmt.Sprintf("%T", patternElement), "current", fmt.Sprintf("%T", resourceElement))
			return path, fmt.Errorf("pattern and resource have different structures at path %s, expected an object", displayPath(path))
		}
		return v.validateMap(log, typedResourceElement, typedPatternElement, originPattern, path)
	// array
	case []interface{}:
		typedResourceElement, ok := resourceElement.([]interface{})
		if !ok {
			log.V(4).Info("pattern and resource have different structures", "path", path, "expected", fmt.Sprintf("%T", patternElement), "current", fmt.Sprintf("%T", resourceElement))
			return path, fmt.Errorf("pattern and resource have different structures at path %s, expected an array", displayPath(path))
		}
		return v.validateArray(log, typedResourceElement, typedPatternElement, originPattern, path)
	// elementary values
	case string, float64, int, int64, bool, nil:
		switch resource := resourceElement.(type) {
		case []interface{}:
			if patternElement == "*" || patternElement == "?*" {
				if pattern.Validate(log, resource, patternElement) {
					return "", nil
				}
				return path, fmt.Errorf("resource value does not match '%v' at path %s", patternElement, displayPath(path))
			}
			for i, res := range resource {
				if !pattern.Validate(log, res, patternElement) {
					currentPath := path + "/" + strconv.Itoa(i)
					return currentPath, fmt.Errorf("resource value '%v' does not match '%v' at path %s", res, patternElement, displayPath(currentPath))
				}
			}
			return "", nil
		default:
			if !pattern.Validate(log, resourceElement, patternElement) {
				return path, fmt.Errorf("resource value '%v' does not match '%v' at path %s", resourceElement, patternElement, displayPath(path))
			}
		}
	default:
		log.V(4).Info("pattern contains unknown type", "path", path, "current", fmt.Sprintf("%T", patternElement))
		return path, fmt.Errorf("failed at '%s', pattern contains unknown type", displayPath(path))
	}
	return "", nil
}

// If validateResourceElement detects map element inside resource and pattern trees, it goes to validateMap
// For each element of the map we must detect the type again, so we pass these elements to validateResourceElement
func (v validator) validateMap(log logr.Logger, resourceMap, patternMap map[string]interface{}, origPattern interface{}, path string) (string, error) {
	patternMap = wildcards.ExpandInMetadata(patternMap, resourceMap)
	// Phase 1 : Evaluate all the anchors
	// Phase 2 : Evaluate non-anchors
	anchors, resources := anchor.GetAnchorsResourcesFromMap(patternMap)
	for _, key := range anchors {
		handler := anchor.CreateElementHandler(key, patternMap[key], path)
		handlerPath, err := handler.Handle(log, v.validateResourceElement, resourceMap, origPattern)
		if err != nil {
			return handlerPath, err
		}
	}
	for _, key := range sortedNestedAnchorResources(patternMap, resources) {
		handler := anchor.CreateElementHandler(key, patternMap[key], path)
		handlerPath, err := handler.Handle(log, v.validateResourceElement, resourceMap, origPattern)
		if err != nil {
			return handlerPath, err
		}
	}
	if v.isExhaustive(path) {
		for _, key := range jsonutils.SortedKeys(resourceMap) {
			if !patternHasKey(patternMap, key) {
				currentPath := jsonutils.JoinPath(path, key)
				return currentPath, fmt.Errorf("field %s is not allowed", currentPath)
			}
		}
	}
	return "", nil
}

func (v validator) validateArray(log logr.Logger, resourceArray, patternArray []interface{}, originPattern interface{}, path string) (string, error) {
	if len(patternArray) == 0 {
		return path, fmt.Errorf("pattern array at path %s is empty", displayPath(path))
	}
	if len(patternArray) == 1 {
		switch typedPatternElement := patternArray[0].(type) {
		case map[string]interface{}:
			// This is special case, because maps in arrays can have anchors that must be
			// processed with the special way affecting the entire array
			return v.validateArrayOfMaps(log, resourceArray, typedPatternElement, originPattern, path)
		case string, float64, int, int64, bool, nil:
			return v.validateResourceElement(log, resourceArray, typedPatternElement, originPattern, path)
		}
	}
	// In all other cases - detect type and handle each array element with validateResourceElement
	if len(resourceArray) < len(patternArray) {
		return path, fmt.Errorf("array length mismatch at path %s, resource array len is %d and pattern array len is %d", displayPath(path), len(resourceArray), len(patternArray))
	}
	if len(resourceArray) > len(patternArray) && v.isExhaustive(path) {
		currentPath := path + "/" + strconv.Itoa(len(patternArray))
		return currentPath, fmt.Errorf("field %s is not allowed", currentPath)
	}
	var applyCount int
	var skipErrors []error
	for i, patternElement := range patternArray {
		currentPath := path + "/" + strconv.Itoa(i)
		elemPath, err := v.validateResourceElement(log, resourceArray[i], patternElement, originPattern, currentPath)
		if err != nil {
			if anchor.IsConditionalAnchorError(err) {
				skipErrors = append(skipErrors, err)
				continue
			}
			return elemPath, err
		}
		applyCount++
	}
	if applyCount == 0 && len(skipErrors) > 0 {
		return path, multierr.Combine(skipErrors...)
	}
	return "", nil
}

// validateArrayOfMaps gets anchors from pattern array map element, applies anchors logic
// and then validates each map due to the pattern
func (v validator) validateArrayOfMaps(log logr.Logger, resourceMapArray []interface{}, patternMap map[string]interface{}, originPattern interface{}, path string) (string, error) {
	applyCount := 0
	var skipErrors []error
	for i, resourceElement := range resourceMapArray {
		currentPath := path + "/" + strconv.Itoa(i)
		returnPath, err := v.validateResourceElement(log, resourceElement, patternMap, originPattern, currentPath)
		if err != nil {
			if anchor.IsConditionalAnchorError(err) {
				skipErrors = append(skipErrors, err)
				continue
			}
			return returnPath, err
		}
		applyCount++
	}
	if applyCount == 0 && len(skipErrors) > 0 {
		return path, multierr.Combine(skipErrors...)
	}
	return "", nil
}

func (v validator) isExhaustive(path string) bool {
	if len(v.exhaustivePaths) == 0 {
		return false
	}
	return wildcard.MatchAny(v.exhaustivePaths, displayPath(path))
}

func patternHasKey(patternMap map[string]interface{}, key string) bool {
	for patternKey := range patternMap {
		if anchor.RemoveAnchor(patternKey) == key {
			return true
		}
	}
	return false
}

func displayPath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

// IsSkip returns true if the error reports a pattern that does not apply to the resource.
func IsSkip(err error) bool {
	var patternErr *PatternError
	return errors.As(err, &patternErr) && patternErr.Skip
}
