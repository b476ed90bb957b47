package v1

import (
	"k8s.io/apimachinery/pkg/util/validation/field"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// AdmissionOperation can have one of the values CREATE, UPDATE, CONNECT, DELETE, which are used to match a specific action.
// +kubebuilder:validation:Enum=CREATE;CONNECT;UPDATE;DELETE
type AdmissionOperation string

const (
	Create  AdmissionOperation = "CREATE"
	Update  AdmissionOperation = "UPDATE"
	Delete  AdmissionOperation = "DELETE"
	Connect AdmissionOperation = "CONNECT"
)

// MatchResources is used to specify resource and admission review request data for
// which a policy rule is applicable.
type MatchResources struct {
	// Any allows specifying resources which will be ORed
	// +optional
	Any ResourceFilters `json:"any,omitempty" yaml:"any,omitempty"`

	// All allows specifying resources which will be ANDed
	// +optional
	All ResourceFilters `json:"all,omitempty" yaml:"all,omitempty"`
}

// Filters returns the filters declared in either any or all.
func (m *MatchResources) Filters() ResourceFilters {
	if len(m.Any) > 0 {
		return m.Any
	}
	return m.All
}

// Validate checks a match block declares exactly one of any and all.
func (m *MatchResources) Validate(path *field.Path) (errs field.ErrorList) {
	if len(m.Any) > 0 && len(m.All) > 0 {
		errs = append(errs, field.Invalid(path, m, "Can't specify any and all together"))
	}
	if len(m.Any) == 0 && len(m.All) == 0 {
		errs = append(errs, field.Required(path, "match must declare at least one resource filter in any or all"))
	}
	errs = append(errs, m.validateFilters(path)...)
	return errs
}

// ValidateExclude checks an exclude block, which may be left empty.
func (m *MatchResources) ValidateExclude(path *field.Path) (errs field.ErrorList) {
	if len(m.Any) > 0 && len(m.All) > 0 {
		errs = append(errs, field.Invalid(path, m, "Can't specify any and all together"))
	}
	errs = append(errs, m.validateFilters(path)...)
	return errs
}

func (m *MatchResources) validateFilters(path *field.Path) (errs field.ErrorList) {
	for i, filter := range m.Any {
		errs = append(errs, filter.Validate(path.Child("any").Index(i))...)
	}
	for i, filter := range m.All {
		errs = append(errs, filter.Validate(path.Child("all").Index(i))...)
	}
	return errs
}

// ResourceFilters is a slice of ResourceFilter
type ResourceFilters []ResourceFilter

// ResourceFilter allow users to "AND" or "OR" between resources
type ResourceFilter struct {
	// ResourceDescription contains information about the resource being created or modified.
	ResourceDescription `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// ResourceDescription contains criteria used to match resources.
// All declared fields must be satisfied for the description to match.
type ResourceDescription struct {
	// Kinds is a list of resource kinds. Kinds can be written as `Kind`, `version/Kind`
	// or `group/version/Kind` and support wildcards.
	// +optional
	Kinds []string `json:"kinds,omitempty" yaml:"kinds,omitempty"`

	// Names are the names of the resources. Each name supports wildcard characters
	// "*" (matches zero or many characters) and "?" (at least one character).
	// +optional
	Names []string `json:"names,omitempty" yaml:"names,omitempty"`

	// Namespaces is a list of namespaces names. Each name supports wildcard characters
	// "*" (matches zero or many characters) and "?" (at least one character).
	// +optional
	Namespaces []string `json:"namespaces,omitempty" yaml:"namespaces,omitempty"`

	// Selector is a label selector. Label keys and values in `matchLabels` support the wildcard
	// characters `*` (matches zero or many characters) and `?` (matches one character).
	// +optional
	Selector *metav1.LabelSelector `json:"selector,omitempty" yaml:"selector,omitempty"`

	// NamespaceSelector is a label selector for the resource namespace.
	// +optional
	NamespaceSelector *metav1.LabelSelector `json:"namespaceSelector,omitempty" yaml:"namespaceSelector,omitempty"`

	// Operations can contain values ["CREATE, "UPDATE", "CONNECT", "DELETE"], which are used to match a specific action.
	// +optional
	Operations []AdmissionOperation `json:"operations,omitempty" yaml:"operations,omitempty"`
}

// IsEmpty returns true if the description declares no criteria at all.
func (r ResourceDescription) IsEmpty() bool {
	return len(r.Kinds) == 0 &&
		len(r.Names) == 0 &&
		len(r.Namespaces) == 0 &&
		r.Selector == nil &&
		r.NamespaceSelector == nil &&
		len(r.Operations) == 0
}

// Validate implements programmatic validation
func (r ResourceFilter) Validate(path *field.Path) (errs field.ErrorList) {
	resources := path.Child("resources")
	if r.IsEmpty() {
		errs = append(errs, field.Required(resources, "resource description must declare at least one criterion"))
	}
	for i, op := range r.Operations {
		switch op {
		case Create, Update, Delete, Connect:
		default:
			errs = append(errs, field.NotSupported(resources.Child("operations").Index(i), op, []string{string(Create), string(Update), string(Delete), string(Connect)}))
		}
	}
	return errs
}
