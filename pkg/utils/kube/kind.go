package kube

import "strings"

// ParseKindSelector parses a kind selector of the form `Kind`, `version/Kind` or `group/version/Kind`.
// Missing parts are returned as `*`.
func ParseKindSelector(input string) (group, version, kind string) {
	parts := strings.Split(input, "/")
	switch len(parts) {
	case 1:
		return "*", "*", parts[0]
	case 2:
		return "*", parts[0], parts[1]
	default:
		return strings.Join(parts[:len(parts)-2], "/"), parts[len(parts)-2], parts[len(parts)-1]
	}
}

// SplitAPIVersion splits an apiVersion into group and version, the core group is empty.
func SplitAPIVersion(apiVersion string) (group, version string) {
	if i := strings.LastIndex(apiVersion, "/"); i >= 0 {
		return apiVersion[:i], apiVersion[i+1:]
	}
	return "", apiVersion
}
