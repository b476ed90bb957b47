package mutate

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/go-logr/logr"
	kyvernov1 "github.com/kyverno/admission-engine/api/kyverno/v1"
)

// ProcessPatchesJSON6902 applies an RFC 6902 patch, written in JSON or YAML, to the resource
// and returns the patched copy.
func ProcessPatchesJSON6902(logger logr.Logger, resource map[string]interface{}, patchesJSON6902 string) (map[string]interface{}, error) {
	patch, err := kyvernov1.DecodePatchesJSON6902(patchesJSON6902)
	if err != nil {
		return nil, &MutationError{Path: "/", Err: fmt.Errorf("failed to decode patches: %v", err)}
	}
	resourceRaw, err := json.Marshal(resource)
	if err != nil {
		return nil, &MutationError{Path: "/", Err: fmt.Errorf("failed to marshal resource: %v", err)}
	}
	patchedRaw, err := applyPatchesWithOptions(resourceRaw, patch)
	if err != nil {
		logger.V(3).Info("failed to apply JSON Patch", "error", err.Error())
		return nil, &MutationError{Path: "/", Err: err}
	}
	var patched map[string]interface{}
	if err := json.Unmarshal(patchedRaw, &patched); err != nil {
		return nil, &MutationError{Path: "/", Err: fmt.Errorf("failed to unmarshal patched resource: %v", err)}
	}
	return patched, nil
}

func applyPatchesWithOptions(resource []byte, patch jsonpatch.Patch) ([]byte, error) {
	options := jsonpatch.NewApplyOptions()
	options.SupportNegativeIndices = true
	options.AllowMissingPathOnRemove = true
	options.EnsurePathExistsOnAdd = true
	return patch.ApplyWithOptions(resource, options)
}
