package v1

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Validation defines checks to be performed on matching resources.
// Exactly one of pattern, anyPattern and deny must be declared.
type Validation struct {
	// FailureAction overrides the policy validationFailureAction for this rule.
	// +optional
	FailureAction *FailureAction `json:"failureAction,omitempty" yaml:"failureAction,omitempty"`

	// Message specifies a custom message to be displayed on failure.
	// +optional
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// Pattern specifies an overlay-style pattern used to check resources.
	// +optional
	Pattern interface{} `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// AnyPattern specifies list of validation patterns. At least one of the patterns
	// must be satisfied for the validation rule to succeed.
	// +optional
	AnyPattern []interface{} `json:"anyPattern,omitempty" yaml:"anyPattern,omitempty"`

	// Deny defines conditions used to pass or fail a validation rule.
	// +optional
	Deny *Deny `json:"deny,omitempty" yaml:"deny,omitempty"`

	// ExhaustivePaths lists resource paths (wildcards supported) where the resource
	// may not carry keys that are absent from the pattern.
	// +optional
	ExhaustivePaths []string `json:"exhaustivePaths,omitempty" yaml:"exhaustivePaths,omitempty"`
}

// Deny specifies a list of conditions used to pass or fail a validation rule.
type Deny struct {
	// Conditions are used to determine if a resource should be denied.
	Conditions *AnyAllConditions `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// Validate implements programmatic validation
func (v *Validation) Validate(path *field.Path) (errs field.ErrorList) {
	count := 0
	if v.Pattern != nil {
		count++
	}
	if len(v.AnyPattern) > 0 {
		count++
	}
	if v.Deny != nil {
		count++
	}
	if count != 1 {
		errs = append(errs, field.Invalid(path, count, "exactly one of pattern, anyPattern or deny must be specified"))
	}
	if v.FailureAction != nil && !v.FailureAction.IsValid() {
		errs = append(errs, field.NotSupported(path.Child("failureAction"), *v.FailureAction, []string{string(Enforce), string(Audit), string(Warn)}))
	}
	if v.Deny != nil {
		if v.Deny.Conditions == nil {
			errs = append(errs, field.Required(path.Child("deny", "conditions"), "deny requires conditions"))
		} else {
			errs = append(errs, v.Deny.Conditions.Validate(path.Child("deny", "conditions"))...)
		}
	}
	return errs
}

// Mutation defines how resource are modified.
// Exactly one of overlay and patchesJson6902 must be declared.
type Mutation struct {
	// Overlay is a structure merged into the resource. Conditional `(key)` and
	// add-if-not-present `+(key)` anchors are supported.
	// +optional
	Overlay interface{} `json:"overlay,omitempty" yaml:"overlay,omitempty"`

	// PatchesJSON6902 is a list of RFC 6902 JSON Patch declarations used to modify resources.
	// See https://tools.ietf.org/html/rfc6902 and https://kubectl.docs.kubernetes.io/references/kustomize/patchesjson6902/.
	// +optional
	PatchesJSON6902 string `json:"patchesJson6902,omitempty" yaml:"patchesJson6902,omitempty"`

	// AppendPaths lists resource paths (wildcards supported) where overlay sequences are
	// appended to the existing sequence instead of replacing it.
	// +optional
	AppendPaths []string `json:"appendPaths,omitempty" yaml:"appendPaths,omitempty"`
}

// Validate implements programmatic validation
func (m *Mutation) Validate(path *field.Path) (errs field.ErrorList) {
	hasOverlay := m.Overlay != nil
	hasPatches := m.PatchesJSON6902 != ""
	if hasOverlay == hasPatches {
		errs = append(errs, field.Invalid(path, m, "exactly one of overlay or patchesJson6902 must be specified"))
	}
	if hasPatches {
		if _, err := DecodePatchesJSON6902(m.PatchesJSON6902); err != nil {
			errs = append(errs, field.Invalid(path.Child("patchesJson6902"), m.PatchesJSON6902, fmt.Sprintf("invalid JSON patch: %v", err)))
		}
	}
	return errs
}

// Generation defines how a resource is generated.
type Generation struct {
	// APIVersion specifies resource apiVersion.
	APIVersion string `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`

	// Kind specifies resource kind.
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Name specifies the resource name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Namespace specifies resource namespace.
	// +optional
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`

	// Synchronize controls if generated resources should be kept in-sync with their source resource.
	// +optional
	Synchronize bool `json:"synchronize,omitempty" yaml:"synchronize,omitempty"`

	// Data provides the resource declaration used to populate each generated resource.
	// +optional
	Data interface{} `json:"data,omitempty" yaml:"data,omitempty"`
}

// Validate implements programmatic validation
func (g *Generation) Validate(path *field.Path) (errs field.ErrorList) {
	if g.Kind == "" {
		errs = append(errs, field.Required(path.Child("kind"), "generate requires a kind"))
	}
	if g.Name == "" {
		errs = append(errs, field.Required(path.Child("name"), "generate requires a name"))
	}
	if g.Data == nil {
		errs = append(errs, field.Required(path.Child("data"), "generate requires data"))
	}
	return errs
}
