package mutate

import (
	"errors"
	"fmt"
)

// MutationError is returned when a mutation can not be applied to the resource,
// e.g. the overlay expects an object where the resource holds a scalar.
type MutationError struct {
	Path string
	Err  error
}

func (e *MutationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to mutate resource: %v", e.Err)
	}
	return fmt.Sprintf("failed to mutate resource at path %s: %v", e.Path, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// ConditionError reports overlay conditions the resource does not meet,
// the mutation does not apply.
type ConditionError struct {
	Path string
	Err  error
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("conditions are not met at %s: %v", e.Path, e.Err)
}

func (e *ConditionError) Unwrap() error {
	return e.Err
}

// IsConditionError checks if the error reports unmet overlay conditions
func IsConditionError(err error) bool {
	var condErr *ConditionError
	return errors.As(err, &condErr)
}

func newMutationError(path string, format string, args ...interface{}) error {
	return &MutationError{Path: displayPath(path), Err: fmt.Errorf(format, args...)}
}

func displayPath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
