package pattern

import (
	"encoding/json"
	"testing"

	"github.com/go-logr/logr"
	"gotest.tools/assert"
)

func TestValidate_Bool(t *testing.T) {
	assert.Assert(t, Validate(logr.Discard(), true, true))
	assert.Assert(t, !Validate(logr.Discard(), true, false))
	assert.Assert(t, !Validate(logr.Discard(), false, true))
	assert.Assert(t, Validate(logr.Discard(), false, false))
	assert.Assert(t, !Validate(logr.Discard(), "true", true))
}

func TestValidate_BoolInJson(t *testing.T) {
	rawPattern := []byte(`{"key": true}`)
	rawValue := []byte(`{"key": true}`)
	var pattern, value map[string]interface{}
	assert.NilError(t, json.Unmarshal(rawPattern, &pattern))
	assert.NilError(t, json.Unmarshal(rawValue, &value))
	assert.Assert(t, Validate(logr.Discard(), value["key"], pattern["key"]))
}

func TestValidate_NullPattern(t *testing.T) {
	assert.Assert(t, Validate(logr.Discard(), nil, nil))
	assert.Assert(t, Validate(logr.Discard(), "", nil))
	assert.Assert(t, Validate(logr.Discard(), float64(0), nil))
	assert.Assert(t, Validate(logr.Discard(), false, nil))
	assert.Assert(t, !Validate(logr.Discard(), "value", nil))
	assert.Assert(t, !Validate(logr.Discard(), map[string]interface{}{}, nil))
}

func TestValidate_Numbers(t *testing.T) {
	assert.Assert(t, Validate(logr.Discard(), int64(7), float64(7)))
	assert.Assert(t, Validate(logr.Discard(), float64(7), int64(7)))
	assert.Assert(t, Validate(logr.Discard(), "7", float64(7)))
	assert.Assert(t, !Validate(logr.Discard(), int64(8), float64(7)))
	assert.Assert(t, !Validate(logr.Discard(), "seven", float64(7)))
}

func TestValidate_Wildcards(t *testing.T) {
	testCases := []struct {
		name    string
		value   interface{}
		pattern string
		want    bool
	}{
		{name: "star matches string", value: "anything", pattern: "*", want: true},
		{name: "star matches empty string", value: "", pattern: "*", want: true},
		{name: "star matches object", value: map[string]interface{}{"a": "b"}, pattern: "*", want: true},
		{name: "star rejects absent", value: nil, pattern: "*", want: false},
		{name: "non empty matches string", value: "x", pattern: "?*", want: true},
		{name: "non empty matches number", value: int64(0), pattern: "?*", want: true},
		{name: "non empty rejects empty string", value: "", pattern: "?*", want: false},
		{name: "non empty rejects absent", value: nil, pattern: "?*", want: false},
		{name: "glob prefix", value: "nginx:1.25", pattern: "nginx:*", want: true},
		{name: "glob mismatch", value: "redis:7", pattern: "nginx:*", want: false},
		{name: "negated glob", value: "nginx:latest", pattern: "!*:latest", want: false},
		{name: "negated glob passes", value: "nginx:1.25", pattern: "!*:latest", want: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, Validate(logr.Discard(), tc.value, tc.pattern), tc.want)
		})
	}
}

func TestValidate_Operators(t *testing.T) {
	testCases := []struct {
		name    string
		value   interface{}
		pattern string
		want    bool
	}{
		{name: "more", value: int64(5), pattern: ">3", want: true},
		{name: "more fails", value: int64(2), pattern: ">3", want: false},
		{name: "more equal", value: float64(3), pattern: ">=3", want: true},
		{name: "less", value: "2", pattern: "<3", want: true},
		{name: "less equal quantity", value: "512Mi", pattern: "<=1Gi", want: true},
		{name: "less quantity fails", value: "2Gi", pattern: "<1Gi", want: false},
		{name: "duration", value: "90s", pattern: ">1m", want: true},
		{name: "not equal", value: "latest", pattern: "!latest", want: false},
		{name: "not equal passes", value: "v1", pattern: "!latest", want: true},
		{name: "range", value: int64(5), pattern: "1-10", want: true},
		{name: "range fails", value: int64(11), pattern: "1-10", want: false},
		{name: "quantity range", value: "256Mi", pattern: "128Mi-512Mi", want: true},
		{name: "not in range", value: int64(11), pattern: "1!-10", want: true},
		{name: "not in range fails", value: int64(3), pattern: "1!-10", want: false},
		{name: "comparison on text", value: "abc", pattern: ">3", want: false},
		{name: "alternatives", value: "Always", pattern: "IfNotPresent|Always", want: true},
		{name: "alternatives fail", value: "Never", pattern: "IfNotPresent|Always", want: false},
		{name: "conjunction", value: int64(5), pattern: ">1 & <10", want: true},
		{name: "conjunction fails", value: int64(50), pattern: ">1 & <10", want: false},
		{name: "literal string", value: "prod", pattern: "prod", want: true},
		{name: "literal number as string", value: int64(80), pattern: "80", want: true},
		{name: "literal quantity", value: "1Gi", pattern: "1024Mi", want: true},
		{name: "literal mismatch", value: "dev", pattern: "prod", want: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, Validate(logr.Discard(), tc.value, tc.pattern), tc.want)
		})
	}
}

func TestValidate_UnsupportedPattern(t *testing.T) {
	assert.Assert(t, !Validate(logr.Discard(), "a", []string{"a"}))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		value, operand interface{}
		want           int
		ok             bool
	}{
		{value: 2, operand: 3, want: -1, ok: true},
		{value: "2Gi", operand: "1024Mi", want: 1, ok: true},
		{value: "90s", operand: "1m", want: 1, ok: true},
		{value: "1m", operand: "60s", want: 0, ok: true},
		{value: "abc", operand: 1, ok: false},
		{value: map[string]interface{}{}, operand: 1, ok: false},
	}
	for _, tt := range tests {
		got, ok := Compare(tt.value, tt.operand)
		assert.Equal(t, ok, tt.ok)
		if tt.ok {
			assert.Equal(t, got, tt.want)
		}
	}
}

func TestEqualScalars(t *testing.T) {
	assert.Assert(t, EqualScalars("1Gi", "1024Mi"))
	assert.Assert(t, EqualScalars(3, "3"))
	assert.Assert(t, EqualScalars(int64(3), 3.0))
	assert.Assert(t, EqualScalars("60s", "1m"))
	assert.Assert(t, !EqualScalars("a", "b"))
	assert.Assert(t, !EqualScalars(true, "1"))
}
