package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
	"github.com/kyverno/admission-engine/pkg/engine/handlers"
	"github.com/kyverno/admission-engine/pkg/engine/internal"
	"github.com/kyverno/admission-engine/pkg/engine/policycontext"
	"github.com/kyverno/admission-engine/pkg/engine/validate"
	"github.com/kyverno/admission-engine/pkg/engine/variables"
	stringutils "github.com/kyverno/admission-engine/pkg/utils/strings"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

type validateResourceHandler struct{}

func NewValidateResourceHandler() (handlers.Handler, error) {
	return validateResourceHandler{}, nil
}

func (h validateResourceHandler) Process(
	_ context.Context,
	logger logr.Logger,
	policyContext *policycontext.PolicyContext,
	resource unstructured.Unstructured,
	rule kyvernov1.Rule,
) (unstructured.Unstructured, []engineapi.RuleResponse) {
	if rule.Validation == nil {
		return resource, handlers.WithError(rule, engineapi.Validation, "invalid validation rule", errors.New("validate declaration expected"))
	}
	v := newValidator(logger, policyContext, rule)
	return resource, handlers.WithResponses(v.validate(resource))
}

type validator struct {
	log              logr.Logger
	policyContext    *policycontext.PolicyContext
	rule             kyvernov1.Rule
	anyAllConditions *kyvernov1.AnyAllConditions
	pattern          interface{}
	anyPattern       []interface{}
	deny             *kyvernov1.Deny
	exhaustivePaths  []string
}

func newValidator(log logr.Logger, ctx *policycontext.PolicyContext, rule kyvernov1.Rule) *validator {
	return &validator{
		log:              log,
		rule:             rule,
		policyContext:    ctx,
		pattern:          rule.Validation.Pattern,
		anyPattern:       rule.Validation.AnyPattern,
		deny:             rule.Validation.Deny,
		anyAllConditions: rule.Preconditions,
		exhaustivePaths:  rule.Validation.ExhaustivePaths,
	}
}

func (v *validator) validate(resource unstructured.Unstructured) *engineapi.RuleResponse {
	preconditionsPassed, msg, err := internal.CheckPreconditions(v.log, v.policyContext.JSONContext(), v.anyAllConditions)
	if err != nil {
		return engineapi.RuleError(v.rule.Name, engineapi.Validation, "failed to evaluate preconditions", err)
	}
	if !preconditionsPassed {
		s := stringutils.JoinNonEmpty([]string{"preconditions not met", msg}, "; ")
		return engineapi.RuleSkip(v.rule.Name, engineapi.Validation, s)
	}
	if v.deny != nil {
		return v.validateDeny()
	}
	if v.pattern != nil || v.anyPattern != nil {
		if err := v.substitutePatterns(); err != nil {
			return engineapi.RuleError(v.rule.Name, engineapi.Validation, "variable substitution failed", err)
		}
		return v.validatePatterns(resource)
	}
	v.log.V(2).Info("invalid validation rule: patterns or deny expected")
	return engineapi.RuleError(v.rule.Name, engineapi.Validation, "invalid validation rule: pattern, anyPattern or deny expected", nil)
}

func (v *validator) validateDeny() *engineapi.RuleResponse {
	if deny, msg, err := internal.CheckDenyPreconditions(v.log, v.policyContext.JSONContext(), v.deny.Conditions); err != nil {
		return engineapi.RuleError(v.rule.Name, engineapi.Validation, "failed to check deny conditions", err)
	} else {
		if deny {
			return engineapi.RuleFail(v.rule.Name, engineapi.Validation, v.getDenyMessage(deny, msg))
		}
		return engineapi.RulePass(v.rule.Name, engineapi.Validation, v.getDenyMessage(deny, msg))
	}
}

func (v *validator) getDenyMessage(deny bool, msg string) string {
	if !deny {
		return fmt.Sprintf("validation rule '%s' passed.", v.rule.Name)
	}
	if v.rule.Validation.Message == "" {
		return fmt.Sprintf("validation error: rule %s failed", v.rule.Name)
	}
	// the condition message is only used in the default form
	s, err := variables.SubstituteString(v.log, v.policyContext.JSONContext(), v.rule.Validation.Message)
	if err != nil {
		v.log.V(2).Info("failed to substitute variables in message", "error", err)
		return stringutils.JoinNonEmpty([]string{v.rule.Validation.Message, msg}, "; ")
	}
	return s
}

// validatePatterns validate pattern and anyPattern
func (v *validator) validatePatterns(resource unstructured.Unstructured) *engineapi.RuleResponse {
	options := validate.Options{ExhaustivePaths: v.exhaustivePaths}
	if v.pattern != nil {
		if err := validate.MatchPattern(v.log, resource.Object, v.pattern, options); err != nil {
			var pe *validate.PatternError
			if errors.As(err, &pe) {
				v.log.V(3).Info("validation error", "path", pe.Path, "error", err.Error())
				if pe.Skip {
					return engineapi.RuleSkip(v.rule.Name, engineapi.Validation, pe.Error())
				}
				if pe.Path == "" {
					return engineapi.RuleError(v.rule.Name, engineapi.Validation, v.buildErrorMessage(err, ""), nil)
				}
				return engineapi.RuleFail(v.rule.Name, engineapi.Validation, v.buildErrorMessage(err, pe.Path)).WithPath(pe.Path)
			}
			return engineapi.RuleError(v.rule.Name, engineapi.Validation, v.buildErrorMessage(err, ""), nil)
		}
		v.log.V(4).Info("successfully processed rule")
		msg := fmt.Sprintf("validation rule '%s' passed.", v.rule.Name)
		return engineapi.RulePass(v.rule.Name, engineapi.Validation, msg)
	}

	var failedAnyPatternsErrors []error
	var skippedAnyPatternErrors []error
	firstPath := ""
	for idx, pattern := range v.anyPattern {
		err := validate.MatchPattern(v.log, resource.Object, pattern, options)
		if err == nil {
			msg := fmt.Sprintf("validation rule '%s' anyPattern[%d] passed.", v.rule.Name, idx)
			return engineapi.RulePass(v.rule.Name, engineapi.Validation, msg)
		}
		var pe *validate.PatternError
		if !errors.As(err, &pe) {
			return engineapi.RuleError(v.rule.Name, engineapi.Validation, v.buildErrorMessage(err, ""), nil)
		}
		v.log.V(3).Info("validation rule failed", "anyPattern", idx, "path", pe.Path)
		if pe.Skip {
			skippedAnyPatternErrors = append(skippedAnyPatternErrors, fmt.Errorf("rule %s[%d] skipped: %s", v.rule.Name, idx, err.Error()))
			continue
		}
		if pe.Path == "" {
			failedAnyPatternsErrors = append(failedAnyPatternsErrors, fmt.Errorf("rule %s[%d] failed: %s", v.rule.Name, idx, err.Error()))
		} else {
			failedAnyPatternsErrors = append(failedAnyPatternsErrors, fmt.Errorf("rule %s[%d] failed at path %s", v.rule.Name, idx, pe.Path))
			if firstPath == "" {
				firstPath = pe.Path
			}
		}
	}
	if len(failedAnyPatternsErrors) > 0 {
		errorStr := errorStrings(failedAnyPatternsErrors)
		v.log.V(4).Info("validation rule failed", "rule", v.rule.Name, "errors", errorStr)
		return engineapi.RuleFail(v.rule.Name, engineapi.Validation, v.buildAnyPatternErrorMessage(errorStr)).WithPath(firstPath)
	}
	errorStr := errorStrings(skippedAnyPatternErrors)
	v.log.V(4).Info("validation rule skipped", "rule", v.rule.Name, "errors", errorStr)
	return engineapi.RuleSkip(v.rule.Name, engineapi.Validation, strings.Join(errorStr, " "))
}

func errorStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}

func (v *validator) buildErrorMessage(err error, path string) string {
	if v.rule.Validation.Message == "" {
		if path != "" {
			return fmt.Sprintf("validation error: rule %s failed at path %s", v.rule.Name, path)
		}
		return fmt.Sprintf("validation error: rule %s execution error: %s", v.rule.Name, err.Error())
	}
	msg, sErr := variables.SubstituteString(v.log, v.policyContext.JSONContext(), v.rule.Validation.Message)
	if sErr != nil {
		v.log.V(2).Info("failed to substitute variables in message", "error", sErr)
		return fmt.Sprintf("validation error: variables substitution error in rule %s execution error: %s", v.rule.Name, err.Error())
	}
	if !strings.HasSuffix(msg, ".") {
		msg = msg + "."
	}
	if path != "" {
		return fmt.Sprintf("validation error: %s rule %s failed at path %s", msg, v.rule.Name, path)
	}
	return fmt.Sprintf("validation error: %s rule %s execution error: %s", msg, v.rule.Name, err.Error())
}

func (v *validator) buildAnyPatternErrorMessage(errors []string) string {
	errStr := strings.Join(errors, " ")
	if v.rule.Validation.Message == "" {
		return fmt.Sprintf("validation error: %s", errStr)
	}
	msg, sErr := variables.SubstituteString(v.log, v.policyContext.JSONContext(), v.rule.Validation.Message)
	if sErr != nil {
		v.log.V(2).Info("failed to substitute variables in message", "error", sErr)
		return fmt.Sprintf("validation error: variables substitution error in rule %s execution error: %s", v.rule.Name, errStr)
	}
	if strings.HasSuffix(msg, ".") {
		return fmt.Sprintf("validation error: %s %s", msg, errStr)
	}
	return fmt.Sprintf("validation error: %s. %s", msg, errStr)
}

func (v *validator) substitutePatterns() error {
	if v.pattern != nil {
		i, err := variables.SubstituteAll(v.log, v.policyContext.JSONContext(), v.pattern)
		if err != nil {
			return err
		}
		v.pattern = i
		return nil
	}
	if v.anyPattern != nil {
		i, err := variables.SubstituteAll(v.log, v.policyContext.JSONContext(), v.anyPattern)
		if err != nil {
			return err
		}
		anyPattern, ok := i.([]interface{})
		if !ok {
			return fmt.Errorf("failed to deserialize anyPattern, expected type array, got %T", i)
		}
		v.anyPattern = anyPattern
	}
	return nil
}
