package anchor

import (
	"errors"
	"sort"
)

// anchorErrorType is the type of anchor errors
type anchorErrorType int

const (
	// conditionalAnchorErr refers to condition violation
	conditionalAnchorErr anchorErrorType = iota
	// globalAnchorErr refers to global condition violation
	globalAnchorErr
	// negationAnchorErr refers to negation violation
	negationAnchorErr
)

// validateAnchorError represents the error type of validation anchors
type validateAnchorError struct {
	err     anchorErrorType
	message string
}

func (e validateAnchorError) Error() string {
	return e.message
}

func newConditionalAnchorError(msg string) error {
	return validateAnchorError{err: conditionalAnchorErr, message: "conditional anchor mismatch: " + msg}
}

func newGlobalAnchorError(msg string) error {
	return validateAnchorError{err: globalAnchorErr, message: "global anchor mismatch: " + msg}
}

func newNegationAnchorError(msg string) error {
	return validateAnchorError{err: negationAnchorErr, message: "negation anchor mismatch: " + msg}
}

func isError(err error, t anchorErrorType) bool {
	var anchorErr validateAnchorError
	return errors.As(err, &anchorErr) && anchorErr.err == t
}

// IsConditionalAnchorError checks if error is a conditional anchor mismatch
func IsConditionalAnchorError(err error) bool {
	return isError(err, conditionalAnchorErr)
}

// IsGlobalAnchorError checks if error is a global anchor mismatch
func IsGlobalAnchorError(err error) bool {
	return isError(err, globalAnchorErr)
}

// IsNegationAnchorError checks if error is a negation anchor mismatch
func IsNegationAnchorError(err error) bool {
	return isError(err, negationAnchorErr)
}

// IsSkipError returns true for errors that make an element not applicable instead of failing it.
func IsSkipError(err error) bool {
	return IsConditionalAnchorError(err) || IsGlobalAnchorError(err)
}

func sortStrings(s []string) {
	sort.Strings(s)
}
