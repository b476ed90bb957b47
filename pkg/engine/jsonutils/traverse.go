package jsonutils

import (
	"strconv"
)

// ActionData represents data available for action on current element
type ActionData struct {
	Document interface{}
	Element  interface{}
	Path     string
}

// Action encapsulates the logic that must be performed for each
// JSON element
type Action func(data *ActionData) (interface{}, error)

// OnlyForLeafsAndKeys is an action modifier - apply action only for leafs and map keys
func OnlyForLeafsAndKeys(action Action) Action {
	return func(data *ActionData) (interface{}, error) {
		switch typed := data.Element.(type) {
		case map[string]interface{}: // for maps, apply the action on the keys
			renamed := make(map[string]interface{}, len(typed))
			for _, key := range SortedKeys(typed) {
				value, err := action(&ActionData{data.Document, key, JoinPath(data.Path, key)})
				if err != nil {
					return nil, err
				}
				newKey, ok := value.(string)
				if !ok {
					newKey = key
				}
				renamed[newKey] = typed[key]
			}
			return renamed, nil
		case []interface{}: // skip arrays
			return data.Element, nil
		default: // leaf detected
			return action(data)
		}
	}
}

// Traversal is a type that encapsulates JSON traversal algorithm
// It traverses entire JSON structure applying some logic to its elements.
// Objects are visited in sorted key order, the traversed document is never modified.
type Traversal struct {
	document interface{}
	action   Action
}

// NewTraversal creates JSON Traversal object
func NewTraversal(document interface{}, action Action) *Traversal {
	return &Traversal{
		document,
		action,
	}
}

// TraverseJSON performs a traverse of JSON document and applying
// action for each JSON element
func (t *Traversal) TraverseJSON() (interface{}, error) {
	return t.traverseJSON(t.document, "")
}

func (t *Traversal) traverseJSON(element interface{}, path string) (interface{}, error) {
	// perform an action
	element, err := t.action(&ActionData{t.document, element, path})
	if err != nil {
		return element, err
	}
	// traverse further
	switch typed := element.(type) {
	case map[string]interface{}:
		return t.traverseObject(typed, path)
	case []interface{}:
		return t.traverseList(typed, path)
	default:
		return element, nil
	}
}

func (t *Traversal) traverseObject(object map[string]interface{}, path string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(object))
	for _, key := range SortedKeys(object) {
		value, err := t.traverseJSON(object[key], JoinPath(path, key))
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

func (t *Traversal) traverseList(list []interface{}, path string) ([]interface{}, error) {
	out := make([]interface{}, len(list))
	for idx, element := range list {
		value, err := t.traverseJSON(element, path+"/"+strconv.Itoa(idx))
		if err != nil {
			return nil, err
		}
		out[idx] = value
	}
	return out, nil
}
