package wildcard

import (
	"strings"

	"github.com/IGLOU-EU/go-wildcard"
)

// ContainsWildcard returns true if the string carries a `*` or `?` wildcard.
func ContainsWildcard(v string) bool {
	return strings.Contains(v, "*") || strings.Contains(v, "?")
}

// Match checks the value against a wildcard pattern.
// Patterns without wildcards use plain string equality.
func Match(pattern, value string) bool {
	if !ContainsWildcard(pattern) {
		return pattern == value
	}
	return wildcard.Match(pattern, value)
}

// MatchAny returns true if the value matches at least one of the patterns.
func MatchAny(patterns []string, value string) bool {
	for _, pattern := range patterns {
		if Match(pattern, value) {
			return true
		}
	}
	return false
}

// CheckPatterns returns the first pattern the value matches.
func CheckPatterns(patterns []string, value string) (string, bool) {
	for _, pattern := range patterns {
		if Match(pattern, value) {
			return pattern, true
		}
	}
	return "", false
}
