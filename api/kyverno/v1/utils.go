package v1

import (
	jsonpatch "github.com/evanphx/json-patch/v5"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"sigs.k8s.io/yaml"
)

// ValidatePolicyName checks the policy name is set and fits in a label value.
func ValidatePolicyName(path *field.Path, name string) (errs field.ErrorList) {
	// policy name is stored in the label of the report change request
	if name == "" {
		errs = append(errs, field.Required(path, "policy name is required"))
	} else if len(name) > 63 {
		errs = append(errs, field.TooLong(path, name, 63))
	}
	return errs
}

// DecodePatchesJSON6902 decodes a patchesJson6902 declaration, written either in JSON or YAML.
func DecodePatchesJSON6902(patches string) (jsonpatch.Patch, error) {
	data, err := yaml.YAMLToJSON([]byte(patches))
	if err != nil {
		return nil, err
	}
	return jsonpatch.DecodePatch(data)
}
