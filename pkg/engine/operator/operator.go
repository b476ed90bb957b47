package operator

import (
	"regexp"
	"strings"
)

// Operator is string alias that represents selection operators enum
type Operator string

const (
	// Equal stands for ==
	Equal Operator = ""
	// MoreEqual stands for >=
	MoreEqual Operator = ">="
	// LessEqual stands for <=
	LessEqual Operator = "<="
	// NotEqual stands for !
	NotEqual Operator = "!"
	// More stands for >
	More Operator = ">"
	// Less stands for <
	Less Operator = "<"
	// InRange stands for -
	InRange Operator = "-"
	// NotInRange stands for !-
	NotInRange Operator = "!-"
)

var (
	inRangeRegex    = regexp.MustCompile(`^(-?\d+(\.\d+)?)([^-!]*)-(-?\d+(\.\d+)?)([^-!]*)$`)
	notInRangeRegex = regexp.MustCompile(`^(-?\d+(\.\d+)?)([^-!]*)!-(-?\d+(\.\d+)?)([^-!]*)$`)
)

// GetOperatorFromStringPattern parses operator from pattern
func GetOperatorFromStringPattern(pattern string) Operator {
	if len(pattern) < 2 {
		return Equal
	}
	for _, op := range []Operator{MoreEqual, LessEqual, More, Less, NotEqual} {
		if strings.HasPrefix(pattern, string(op)) {
			return op
		}
	}
	if inRangeRegex.MatchString(pattern) {
		return InRange
	}
	if notInRangeRegex.MatchString(pattern) {
		return NotInRange
	}
	return Equal
}

// SplitRange returns the lower and upper bounds of a range pattern.
func SplitRange(pattern string, op Operator) (string, string, bool) {
	var matches []string
	switch op {
	case InRange:
		matches = inRangeRegex.FindStringSubmatch(pattern)
	case NotInRange:
		matches = notInRangeRegex.FindStringSubmatch(pattern)
	default:
		return "", "", false
	}
	if len(matches) == 0 {
		return "", "", false
	}
	return matches[1] + matches[3], matches[4] + matches[6], true
}
