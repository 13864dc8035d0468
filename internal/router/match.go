package router

import "strings"

// MatchPath matches a concrete request path against a route pattern and, on
// success, returns the bound `:name` parameters.
//
// Both strings are split on "/" and compared segment by segment: a pattern
// segment starting with ":" binds whatever the path has in that position;
// any other segment must match literally (case-sensitive, no normalization,
// no percent-decoding). Segment counts must be equal; there is no wildcard
// or catch-all support.
func MatchPath(pattern, path string) (map[string]string, bool) {
	patSegs := strings.Split(pattern, "/")
	pathSegs := strings.Split(path, "/")
	if len(patSegs) != len(pathSegs) {
		return nil, false
	}

	params := map[string]string{}
	for i, seg := range patSegs {
		if strings.HasPrefix(seg, ":") {
			params[seg[1:]] = pathSegs[i]
			continue
		}
		if seg != pathSegs[i] {
			return nil, false
		}
	}
	return params, true
}
