package variables

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-logr/logr"
	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	"github.com/kyverno/admission-engine/pkg/engine/context"
	"github.com/kyverno/admission-engine/pkg/engine/jsonutils"
	gojmespath "github.com/kyverno/go-jmespath"
)

var regexVariables = regexp.MustCompile(`\{\{[^{}]*\}\}`)

// IsVariable returns true if the element contains a 'valid' variable {{}}
func IsVariable(value string) bool {
	return regexVariables.MatchString(value)
}

// NotFoundVariableErr is returned when it is impossible to resolve the variable
type NotFoundVariableErr struct {
	Variable string
	Path     string
}

func (n NotFoundVariableErr) Error() string {
	return fmt.Sprintf("variable %s not resolved at path %s", n.Variable, n.Path)
}

// SubstituteAll replaces every variable in the document, keys included, with values from the context.
// The document is not modified, a substituted copy is returned.
func SubstituteAll(log logr.Logger, ctx context.EvalInterface, document interface{}) (interface{}, error) {
	return jsonutils.NewTraversal(document, substituteVariablesIfAny(log, ctx)).TraverseJSON()
}

// SubstituteString replaces the variables of a single string, e.g. a rule message.
func SubstituteString(log logr.Logger, ctx context.EvalInterface, value string) (string, error) {
	if !IsVariable(value) {
		return value, nil
	}
	substituted, err := substituteString(log, ctx, value, "")
	if err != nil {
		return value, err
	}
	if s, ok := substituted.(string); ok {
		return s, nil
	}
	buffer, err := json.Marshal(substituted)
	if err != nil {
		return value, err
	}
	return string(buffer), nil
}

// SubstituteAllInConditions substitutes variables in condition keys and values.
func SubstituteAllInConditions(log logr.Logger, ctx context.EvalInterface, conditions kyvernov1.AnyAllConditions) (kyvernov1.AnyAllConditions, error) {
	untyped, err := jsonutils.DocumentToUntyped(conditions)
	if err != nil {
		return conditions, err
	}
	substituted, err := SubstituteAll(log, ctx, untyped)
	if err != nil {
		return conditions, err
	}
	raw, err := json.Marshal(substituted)
	if err != nil {
		return conditions, err
	}
	var out kyvernov1.AnyAllConditions
	if err := json.Unmarshal(raw, &out); err != nil {
		return conditions, err
	}
	return out, nil
}

func substituteVariablesIfAny(log logr.Logger, ctx context.EvalInterface) jsonutils.Action {
	return jsonutils.OnlyForLeafsAndKeys(func(data *jsonutils.ActionData) (interface{}, error) {
		value, ok := data.Element.(string)
		if !ok {
			return data.Element, nil
		}
		return substituteString(log, ctx, value, data.Path)
	})
}

// substituteString resolves the variables of the value in a single pass,
// text taken from the context is never scanned for variables again.
func substituteString(log logr.Logger, ctx context.EvalInterface, value string, path string) (interface{}, error) {
	locations := regexVariables.FindAllStringIndex(value, -1)
	if len(locations) == 0 {
		return value, nil
	}
	var builder strings.Builder
	last := 0
	for _, location := range locations {
		v := value[location[0]:location[1]]
		substitutedVar, err := resolveVariable(log, ctx, v, path)
		if err != nil {
			return nil, err
		}
		if v == value {
			return substitutedVar, nil
		}
		s, err := toString(substitutedVar)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %v at path %s: %s", replaceBracesAndTrimSpaces(v), displayPath(path), err.Error())
		}
		builder.WriteString(value[last:location[0]])
		builder.WriteString(s)
		last = location[1]
	}
	builder.WriteString(value[last:])
	return builder.String(), nil
}

func resolveVariable(log logr.Logger, ctx context.EvalInterface, v string, path string) (interface{}, error) {
	variable := replaceBracesAndTrimSpaces(v)
	substitutedVar, err := ctx.Query(variable)
	if err != nil {
		var notFound gojmespath.NotFoundError
		if errors.As(err, &notFound) {
			return nil, NotFoundVariableErr{Variable: variable, Path: displayPath(path)}
		}
		return nil, fmt.Errorf("failed to resolve %v at path %s: %v", variable, displayPath(path), err)
	}
	if substitutedVar == nil {
		return nil, NotFoundVariableErr{Variable: variable, Path: displayPath(path)}
	}
	log.V(3).Info("variable substituted", "variable", v, "value", substitutedVar, "path", displayPath(path))
	return substitutedVar, nil
}

func toString(value interface{}) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	buffer, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %T: %v", value, value)
	}
	return string(buffer), nil
}

func replaceBracesAndTrimSpaces(v string) string {
	variable := strings.ReplaceAll(v, "{{", "")
	variable = strings.ReplaceAll(variable, "}}", "")
	return strings.TrimSpace(variable)
}

func displayPath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
