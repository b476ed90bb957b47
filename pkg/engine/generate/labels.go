package generate

import (
	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const (
	LabelManagedBy            = "app.kubernetes.io/managed-by"
	LabelGeneratedByKind      = "kyverno.io/generated-by-kind"
	LabelGeneratedByNamespace = "kyverno.io/generated-by-namespace"
	LabelGeneratedByName      = "kyverno.io/generated-by-name"
	ValueManagedBy            = "kyverno"
	maxLabelValueLength       = 63
)

func manageLabels(log logr.Logger, unstr *unstructured.Unstructured, triggerResource unstructured.Unstructured) {
	labels := unstr.GetLabels()
	if labels == nil {
		labels = map[string]string{}
	}
	managedBy(log, labels)
	generatedBy(log, labels, triggerResource)
	unstr.SetLabels(labels)
}

func managedBy(log logr.Logger, labels map[string]string) {
	if val, ok := labels[LabelManagedBy]; ok {
		if val != ValueManagedBy {
			log.V(2).Info("resource managed by another manager, the label is kept", "managedBy", val)
		}
		return
	}
	labels[LabelManagedBy] = ValueManagedBy
}

func generatedBy(log logr.Logger, labels map[string]string, triggerResource unstructured.Unstructured) {
	checkGeneratedBy(log, labels, LabelGeneratedByKind, triggerResource.GetKind())
	checkGeneratedBy(log, labels, LabelGeneratedByNamespace, triggerResource.GetNamespace())
	checkGeneratedBy(log, labels, LabelGeneratedByName, triggerResource.GetName())
}

func checkGeneratedBy(log logr.Logger, labels map[string]string, key, value string) {
	if value == "" {
		return
	}
	if len(value) > maxLabelValueLength {
		value = value[0:maxLabelValueLength]
	}
	if val, ok := labels[key]; ok {
		if val != value {
			log.V(2).Info("label already set, it won't be overridden", "label", key)
		}
		return
	}
	labels[key] = value
}
