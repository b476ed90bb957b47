package generate

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	"github.com/kyverno/admission-engine/pkg/engine/context"
	"github.com/kyverno/admission-engine/pkg/engine/jsonutils"
	"github.com/kyverno/admission-engine/pkg/engine/variables"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// GenerationError is returned when the generate template can not produce a resource.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate resource: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsMissingVariable checks if generation failed because a template variable is absent
func IsMissingVariable(err error) bool {
	var notFound variables.NotFoundVariableErr
	return errors.As(err, &notFound)
}

// ProcessGeneration evaluates the generate template against the trigger resource.
// Only variable substitution is performed, the template is never modified.
func ProcessGeneration(log logr.Logger, ctx context.EvalInterface, generation kyvernov1.Generation, trigger unstructured.Unstructured) (*unstructured.Unstructured, error) {
	untyped, err := jsonutils.DocumentToUntyped(generation)
	if err != nil {
		return nil, &GenerationError{Err: err}
	}
	substituted, err := variables.SubstituteAll(log, ctx, untyped)
	if err != nil {
		return nil, &GenerationError{Err: err}
	}
	typed, ok := substituted.(map[string]interface{})
	if !ok {
		return nil, &GenerationError{Err: fmt.Errorf("unexpected generate template type %T", substituted)}
	}
	kind, _ := typed["kind"].(string)
	name, _ := typed["name"].(string)
	namespace, _ := typed["namespace"].(string)
	apiVersion, _ := typed["apiVersion"].(string)
	if kind == "" {
		return nil, &GenerationError{Err: errors.New("generated resource kind is required")}
	}
	if name == "" {
		return nil, &GenerationError{Err: errors.New("generated resource name is required")}
	}
	if apiVersion == "" {
		apiVersion = "v1"
	}
	var content map[string]interface{}
	switch data := typed["data"].(type) {
	case map[string]interface{}:
		content = data
	case nil:
		content = map[string]interface{}{}
	default:
		return nil, &GenerationError{Err: fmt.Errorf("generate data must be an object, found %T", data)}
	}
	generated := &unstructured.Unstructured{Object: content}
	generated.SetAPIVersion(apiVersion)
	generated.SetKind(kind)
	generated.SetName(name)
	if namespace != "" {
		generated.SetNamespace(namespace)
	}
	manageLabels(log, generated, trigger)
	log.V(3).Info("generated resource", "kind", kind, "namespace", namespace, "name", name)
	return generated, nil
}
