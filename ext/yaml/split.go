package yaml

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"

	"k8s.io/apimachinery/pkg/util/yaml"
)

type document = []byte

// SplitDocuments reads the YAML bytes per-document, empty documents are dropped
func SplitDocuments(yamlBytes document) (documents []document, error error) {
	reader := yaml.NewYAMLReader(bufio.NewReader(bytes.NewBuffer(yamlBytes)))
	for {
		b, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if !IsEmptyDocument(b) {
			documents = append(documents, b)
		}
	}
	return documents, nil
}

// IsEmptyDocument reports whether the document holds nothing but blank lines, comments and separators
func IsEmptyDocument(document document) bool {
	for _, line := range strings.Split(string(document), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "---") {
			continue
		}
		return false
	}
	return true
}
