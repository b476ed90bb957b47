package admission

import (
	admissionv1 "k8s.io/api/admission/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func Response(err error, warnings ...string) *admissionv1.AdmissionResponse {
	response := &admissionv1.AdmissionResponse{
		Allowed: err == nil,
	}
	if err != nil {
		response.Result = &metav1.Status{
			Status:  metav1.StatusFailure,
			Message: err.Error(),
		}
	}
	response.Warnings = warnings
	return response
}

func ResponseSuccess(warnings ...string) *admissionv1.AdmissionResponse {
	return Response(nil, warnings...)
}

// MutationResponse admits the request with a JSON patch, an empty patch is omitted
func MutationResponse(patch []byte, warnings ...string) *admissionv1.AdmissionResponse {
	response := ResponseSuccess(warnings...)
	if len(patch) > 0 {
		patchType := admissionv1.PatchTypeJSONPatch
		response.Patch = patch
		response.PatchType = &patchType
	}
	return response
}
