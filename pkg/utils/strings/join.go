package strings

import "strings"

// JoinNonEmpty joins the non empty elements with sep
func JoinNonEmpty(elems []string, sep string) string {
	parts := make([]string, 0, len(elems))
	for _, s := range elems {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}
