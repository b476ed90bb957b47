package context

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonpatch "github.com/evanphx/json-patch/v5"
	gojmespath "github.com/kyverno/go-jmespath"
)

// EvalInterface is used to query the context
type EvalInterface interface {
	// Query accepts a JMESPath expression and returns matching data
	Query(query string) (interface{}, error)
}

// Interface to manage context operations
type Interface interface {
	EvalInterface

	// AddJSON merges raw data with the context
	AddJSON(dataRaw []byte) error

	// AddRequest adds the admission request fields under `request`
	AddRequest(request Request) error

	// AddResource merges resource json under request.object
	AddResource(resource map[string]interface{}) error
}

// Request carries the admission request fields exposed to policies.
type Request struct {
	Object    map[string]interface{} `json:"object,omitempty"`
	Operation string                 `json:"operation,omitempty"`
	Namespace string                 `json:"namespace,omitempty"`
	Name      string                 `json:"name,omitempty"`
	Kind      string                 `json:"kind,omitempty"`
}

// context stores the data as JSON
type context struct {
	mutex   sync.RWMutex
	jsonRaw []byte
}

// NewContext returns an empty context
func NewContext() Interface {
	return &context{
		jsonRaw: []byte(`{}`),
	}
}

// NewContextFromRequest returns a context populated with the admission request
func NewContextFromRequest(request Request) (Interface, error) {
	ctx := NewContext()
	if err := ctx.AddRequest(request); err != nil {
		return nil, err
	}
	return ctx, nil
}

// AddJSON merges json data
func (ctx *context) AddJSON(dataRaw []byte) error {
	ctx.mutex.Lock()
	defer ctx.mutex.Unlock()
	merged, err := jsonpatch.MergePatch(ctx.jsonRaw, dataRaw)
	if err != nil {
		return fmt.Errorf("failed to merge JSON data: %w", err)
	}
	ctx.jsonRaw = merged
	return nil
}

// AddRequest adds request fields to the context
func (ctx *context) AddRequest(request Request) error {
	return addToContext(ctx, request, "request")
}

// AddResource data at path: request.object
func (ctx *context) AddResource(resource map[string]interface{}) error {
	return addToContext(ctx, resource, "request", "object")
}

// Query the JSON context with JMESPATH search path
func (ctx *context) Query(query string) (interface{}, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("invalid query (empty)")
	}
	queryPath, err := gojmespath.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("incorrect query %s: %v", query, err)
	}
	ctx.mutex.RLock()
	var data interface{}
	err = json.Unmarshal(ctx.jsonRaw, &data)
	ctx.mutex.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal context: %w", err)
	}
	result, err := queryPath.Search(data)
	if err != nil {
		return nil, fmt.Errorf("JMESPath query failed: %w", err)
	}
	return result, nil
}

func addToContext(ctx *context, data interface{}, tags ...string) error {
	dataRaw, err := json.Marshal(push(data, tags...))
	if err != nil {
		return fmt.Errorf("failed to marshal context data: %w", err)
	}
	return ctx.AddJSON(dataRaw)
}

// push nests data under the given tags, outermost first
func push(data interface{}, tags ...string) interface{} {
	for i := len(tags) - 1; i >= 0; i-- {
		data = map[string]interface{}{
			tags[i]: data,
		}
	}
	return data
}
