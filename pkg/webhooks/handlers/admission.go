package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/kyverno/admission-engine/pkg/tracing"
	admissionv1 "k8s.io/api/admission/v1"
)

func (inner AdmissionHandler) WithAdmission(logger logr.Logger) HttpHandler {
	return inner.withAdmission(logger).WithTrace("ADMISSION")
}

func (inner AdmissionHandler) withAdmission(rootLogger logr.Logger) HttpHandler {
	return func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		startTime := time.Now()
		if request.Body == nil {
			httpError(writer, request, rootLogger, nil, "empty body", http.StatusBadRequest)
			return
		}
		defer request.Body.Close()
		body, err := io.ReadAll(request.Body)
		if err != nil {
			httpError(writer, request, rootLogger, err, "failed to read HTTP body", http.StatusBadRequest)
			return
		}
		contentType := request.Header.Get("Content-Type")
		if contentType != "application/json" {
			httpError(writer, request, rootLogger, nil, "invalid Content-Type, expect `application/json`", http.StatusUnsupportedMediaType)
			return
		}
		admissionReview := &admissionv1.AdmissionReview{}
		if err := json.Unmarshal(body, &admissionReview); err != nil {
			httpError(writer, request, rootLogger, err, "failed to decode request body to type 'AdmissionReview'", http.StatusExpectationFailed)
			return
		}
		if admissionReview.Request == nil {
			httpError(writer, request, rootLogger, nil, "admission review carries no request", http.StatusBadRequest)
			return
		}
		logger := rootLogger.WithValues(
			"kind", admissionReview.Request.Kind,
			"namespace", admissionReview.Request.Namespace,
			"name", admissionReview.Request.Name,
			"operation", admissionReview.Request.Operation,
			"uid", admissionReview.Request.UID,
		)
		admissionResponse := inner(ctx, logger, admissionReview.Request, startTime)
		if admissionResponse == nil {
			admissionResponse = &admissionv1.AdmissionResponse{Allowed: true}
		}
		admissionResponse.UID = admissionReview.Request.UID
		responseReview := admissionv1.AdmissionReview{
			TypeMeta: admissionReview.TypeMeta,
			Response: admissionResponse,
		}
		responseJSON, err := json.Marshal(responseReview)
		if err != nil {
			httpError(writer, request, logger, err, "failed to encode response", http.StatusInternalServerError)
			return
		}
		writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		if _, err := writer.Write(responseJSON); err != nil {
			logger.Error(err, "failed to write response")
			return
		}
		logger.V(4).Info("admission review request processed", "time", time.Since(startTime).String())
	}
}

func httpError(writer http.ResponseWriter, request *http.Request, logger logr.Logger, err error, msg string, code int) {
	logger.Info(msg, "req", request.URL.String(), "error", err)
	tracing.SetHttpStatus(request.Context(), err, code)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	http.Error(writer, msg, code)
}
