package analyzer

import "strings"

// NormalizePath canonicalizes a route path for cross-ecosystem matching.
// Path-parameter segments in any of the common styles ({id}, :id, <id>,
// [id], ${expr}) become a single "*" token; a trailing slash is dropped
// except on the bare root. Normalization is idempotent: a normalized path
// maps to itself.
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	if path == "" || path == "/" {
		return "/"
	}
	path = strings.TrimSuffix(path, "/")

	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if isParamSegment(segment) {
			segments[i] = "*"
		}
	}
	return strings.Join(segments, "/")
}

func isParamSegment(segment string) bool {
	if segment == "*" {
		return true
	}
	if strings.HasPrefix(segment, ":") && len(segment) > 1 {
		return true
	}
	if strings.Contains(segment, "${") {
		return true
	}
	for _, pair := range [][2]string{{"{", "}"}, {"<", ">"}, {"[", "]"}} {
		if strings.HasPrefix(segment, pair[0]) && strings.HasSuffix(segment, pair[1]) {
			return true
		}
	}
	return false
}
