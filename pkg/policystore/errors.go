package policystore

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// ErrNotFound is returned when a policy is not in the active set
var ErrNotFound = errors.New("policy not found")

// NotFoundError reports a missing policy, it matches ErrNotFound
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("policy %s not found", e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// DocumentError locates a failure to a YAML document of a batch
type DocumentError struct {
	Source string
	Index  int
	Err    error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s[%d]: %v", e.Source, e.Index, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// ParseError aggregates every problem found in a batch of policy documents.
// A batch failing with a ParseError leaves the active policy set unchanged.
type ParseError struct {
	err error
}

func newParseError(errs ...error) error {
	err := multierr.Combine(errs...)
	if err == nil {
		return nil
	}
	return &ParseError{err: err}
}

func (e *ParseError) Error() string {
	errs := e.Errors()
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("failed to load policies: %s", strings.Join(msgs, "; "))
}

// Errors returns the individual document errors
func (e *ParseError) Errors() []error {
	return multierr.Errors(e.err)
}

func (e *ParseError) Unwrap() []error {
	return e.Errors()
}
