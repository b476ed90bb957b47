package jsonutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testStruct struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func Test_DocumentToUntyped(t *testing.T) {
	out, err := DocumentToUntyped(testStruct{Name: "a", Value: 1})
	assert.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "a", "value": float64(1)}, out)

	out, err = DocumentToUntyped("test-string")
	assert.NoError(t, err)
	assert.Equal(t, "test-string", out)

	_, err = DocumentToUntyped(make(chan int))
	assert.Error(t, err)
}

func Test_JoinPath(t *testing.T) {
	assert.Equal(t, "/metadata/annotations/app.kubernetes.io~1name", JoinPath("/metadata/annotations", "app.kubernetes.io/name"))
	assert.Equal(t, "/a~0b", JoinPath("", "a~b"))
}

func Test_SortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]interface{}{"c": 1, "a": 2, "b": 3}))
}
