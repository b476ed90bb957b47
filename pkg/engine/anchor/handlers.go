package anchor

import (
	"fmt"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/kyverno/admission-engine/pkg/engine/jsonutils"
)

// ResourceElementHandler validates a resource element against a pattern element.
type ResourceElementHandler = func(
	log logr.Logger,
	resourceElement interface{},
	patternElement interface{},
	originPattern interface{},
	path string,
) (string, error)

// ValidationHandler for element processes
type ValidationHandler interface {
	Handle(
		log logr.Logger,
		handler ResourceElementHandler,
		resourceMap map[string]interface{},
		originPattern interface{},
	) (string, error)
}

// CreateElementHandler factory to process elements
func CreateElementHandler(element string, pattern interface{}, path string) ValidationHandler {
	if a := Parse(element); a != nil {
		switch {
		case IsCondition(a):
			return conditionAnchorHandler{anchor: a, pattern: pattern, path: path}
		case IsGlobal(a):
			return globalAnchorHandler{anchor: a, pattern: pattern, path: path}
		case IsExistence(a):
			return existenceHandler{anchor: a, pattern: pattern, path: path}
		case IsEquality(a), IsAddIfNotPresent(a):
			return equalityHandler{anchor: a, pattern: pattern, path: path}
		case IsNegation(a):
			return negationHandler{anchor: a, pattern: pattern, path: path}
		}
	}
	return defaultHandler{element: element, pattern: pattern, path: path}
}

// negationHandler provides handler for check if the tag in anchor is not defined
type negationHandler struct {
	anchor  Anchor
	pattern interface{}
	path    string
}

// Handle process negation handler
func (nh negationHandler) Handle(_ logr.Logger, _ ResourceElementHandler, resourceMap map[string]interface{}, _ interface{}) (string, error) {
	anchorKey := nh.anchor.Key()
	currentPath := jsonutils.JoinPath(nh.path, anchorKey)
	// if anchor is present in the resource then fail
	if _, ok := resourceMap[anchorKey]; ok {
		// no need to process elements in value as key cannot be present in resource
		return currentPath, newNegationAnchorError(fmt.Sprintf("%s is not allowed", currentPath))
	}
	// key is not defined in the resource
	return "", nil
}

// equalityHandler provides handler for equality anchor
type equalityHandler struct {
	anchor  Anchor
	pattern interface{}
	path    string
}

// Handle processed equality anchor, the key is only checked if present
func (eh equalityHandler) Handle(log logr.Logger, handler ResourceElementHandler, resourceMap map[string]interface{}, originPattern interface{}) (string, error) {
	anchorKey := eh.anchor.Key()
	currentPath := jsonutils.JoinPath(eh.path, anchorKey)
	// check if anchor is present in resource
	if value, ok := resourceMap[anchorKey]; ok {
		// validate the values of the pattern
		return handler(log, value, eh.pattern, originPattern, currentPath)
	}
	return "", nil
}

// defaultHandler provides handler for non anchor element
type defaultHandler struct {
	element string
	pattern interface{}
	path    string
}

// Handle process non anchor element
func (dh defaultHandler) Handle(log logr.Logger, handler ResourceElementHandler, resourceMap map[string]interface{}, originPattern interface{}) (string, error) {
	currentPath := jsonutils.JoinPath(dh.path, dh.element)
	value, ok := resourceMap[dh.element]
	if !ok {
		switch dh.pattern.(type) {
		case map[string]interface{}, []interface{}:
			// nested patterns can still be satisfied by an absent element, e.g. when all their keys are anchors
			if isOptional(dh.pattern) {
				return "", nil
			}
		}
		if dh.pattern != nil {
			return currentPath, fmt.Errorf("field %s not found", currentPath)
		}
	}
	return handler(log, value, dh.pattern, originPattern, currentPath)
}

// isOptional returns true when every key of a map pattern is an anchor that tolerates absence.
func isOptional(pattern interface{}) bool {
	typed, ok := pattern.(map[string]interface{})
	if !ok || len(typed) == 0 {
		return false
	}
	for key := range typed {
		if !IsOneOf(Parse(key), Equality, Negation, Global, AddIfNotPresent) {
			return false
		}
	}
	return true
}

// conditionAnchorHandler provides handler for condition anchor
type conditionAnchorHandler struct {
	anchor  Anchor
	pattern interface{}
	path    string
}

// Handle processed condition anchor
func (ch conditionAnchorHandler) Handle(log logr.Logger, handler ResourceElementHandler, resourceMap map[string]interface{}, originPattern interface{}) (string, error) {
	anchorKey := ch.anchor.Key()
	currentPath := jsonutils.JoinPath(ch.path, anchorKey)
	// check if anchor is present in resource
	if value, ok := resourceMap[anchorKey]; ok {
		// validate the values of the pattern
		returnPath, err := handler(log, value, ch.pattern, originPattern, currentPath)
		if err != nil {
			return returnPath, newConditionalAnchorError(err.Error())
		}
		return "", nil
	}
	return currentPath, newConditionalAnchorError(fmt.Sprintf("%s not found", currentPath))
}

// globalAnchorHandler provides handler for global condition anchor
type globalAnchorHandler struct {
	anchor  Anchor
	pattern interface{}
	path    string
}

// Handle processed global condition anchor
func (gh globalAnchorHandler) Handle(log logr.Logger, handler ResourceElementHandler, resourceMap map[string]interface{}, originPattern interface{}) (string, error) {
	anchorKey := gh.anchor.Key()
	currentPath := jsonutils.JoinPath(gh.path, anchorKey)
	// check if anchor is present in resource
	if value, ok := resourceMap[anchorKey]; ok {
		// validate the values of the pattern
		returnPath, err := handler(log, value, gh.pattern, originPattern, currentPath)
		if err != nil {
			return returnPath, newGlobalAnchorError(err.Error())
		}
	}
	return "", nil
}

// existenceHandler provides handlers to process existence anchor handler
type existenceHandler struct {
	anchor  Anchor
	pattern interface{}
	path    string
}

// Handle processes the existence anchor handler
func (eh existenceHandler) Handle(log logr.Logger, handler ResourceElementHandler, resourceMap map[string]interface{}, originPattern interface{}) (string, error) {
	anchorKey := eh.anchor.Key()
	currentPath := jsonutils.JoinPath(eh.path, anchorKey)
	value, ok := resourceMap[anchorKey]
	if !ok {
		return currentPath, fmt.Errorf("field %s not found", currentPath)
	}
	// Existence anchor can only exist on resource value type of list
	typedResource, ok := value.([]interface{})
	if !ok {
		return currentPath, fmt.Errorf("invalid resource type %T: existence ^() anchor can be used only on list/array type resource", value)
	}
	typedPattern, ok := eh.pattern.([]interface{})
	if !ok {
		return currentPath, fmt.Errorf("invalid pattern type %T: pattern has to be of list to compare against resource", eh.pattern)
	}
	// every item in the pattern must be satisfied by at least one resource item
	for _, patternElement := range typedPattern {
		if errorPath, err := validateExistenceListResource(log, handler, typedResource, patternElement, originPattern, currentPath); err != nil {
			return errorPath, err
		}
	}
	return "", nil
}

func validateExistenceListResource(log logr.Logger, handler ResourceElementHandler, resourceList []interface{}, patternElement interface{}, originPattern interface{}, path string) (string, error) {
	for i, resourceElement := range resourceList {
		currentPath := path + "/" + strconv.Itoa(i)
		if _, err := handler(log, resourceElement, patternElement, originPattern, currentPath); err == nil {
			// condition is satisfied, dont check further
			return "", nil
		}
	}
	// none of the existence checks worked, so thats a failure scenario
	return path, fmt.Errorf("existence anchor validation failed at path %s", path)
}
